package restapi

import (
	"net/http"

	"koox.dev/busrouter/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(api.Clock.Now())
	api.sendResponse(w, r, models.NewEntryResponseWithClock(timeData, api.Clock))
}
