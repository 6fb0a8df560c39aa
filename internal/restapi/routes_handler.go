package restapi

import (
	"net/http"
	"strings"

	"koox.dev/busrouter/internal/models"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}
	api.sendResponse(w, r, models.NewListResponseWithClock(engine.Routes(), false, api.Clock))
}

func (api *RestAPI) stopsForRouteHandler(w http.ResponseWriter, r *http.Request) {
	route := strings.TrimSpace(r.PathValue("id"))
	if route == "" {
		api.validationErrorResponse(w, r, map[string][]string{"id": {"route id is required"}})
		return
	}

	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}

	stops, err := engine.StopsForRoute(route)
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponseWithClock(models.NewStops(stops), false, api.Clock))
}
