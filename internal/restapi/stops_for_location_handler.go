package restapi

import (
	"math"
	"net/http"

	"koox.dev/busrouter/internal/models"
	"koox.dev/busrouter/internal/utils"
)

func (api *RestAPI) stopsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()
	fieldErrors := make(map[string][]string)

	lat, lon := utils.ParseCoordinateParams(queryParams, "lat", "lon", fieldErrors)
	radius := utils.ParseOptionalFloatParam(queryParams, "radius", models.DefaultSearchRadiusInMeters, fieldErrors)
	maxCountF := utils.ParseOptionalFloatParam(queryParams, "maxCount", models.DefaultMaxCountForStops, fieldErrors)

	if _, bad := fieldErrors["radius"]; !bad {
		if radius <= 0 {
			fieldErrors["radius"] = []string{"must be greater than zero"}
		} else if radius > models.MaxSearchRadiusInMeters {
			fieldErrors["radius"] = []string{"must not exceed 10000"}
		}
	}
	if _, bad := fieldErrors["maxCount"]; !bad {
		if maxCountF != math.Trunc(maxCountF) || maxCountF <= 0 {
			fieldErrors["maxCount"] = []string{"must be a positive integer"}
		} else if maxCountF > models.MaxAllowedCount {
			fieldErrors["maxCount"] = []string{"must not exceed 250"}
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}

	maxCount := int(maxCountF)
	// One extra result tells us whether the limit cut the list short.
	found, err := engine.StopsNear(lat, lon, radius, maxCount+1)
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}

	limitExceeded := len(found) > maxCount
	if limitExceeded {
		found = found[:maxCount]
	}

	list := make([]models.StopWithDistance, len(found))
	for i, s := range found {
		list[i] = models.NewStopWithDistance(s.Stop, s.DistanceKm)
	}
	api.sendResponse(w, r, models.NewListResponseWithClock(list, limitExceeded, api.Clock))
}
