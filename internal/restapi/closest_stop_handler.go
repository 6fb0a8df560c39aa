package restapi

import (
	"net/http"

	"koox.dev/busrouter/internal/models"
	"koox.dev/busrouter/internal/utils"
)

func (api *RestAPI) closestStopHandler(w http.ResponseWriter, r *http.Request) {
	fieldErrors := make(map[string][]string)
	lat, lon := utils.ParseCoordinateParams(r.URL.Query(), "latitude", "longitude", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}

	stop, km, err := engine.NearestStop(lat, lon)
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponseWithClock(models.NewStopWithDistance(stop, km), api.Clock))
}
