package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/models"
	"koox.dev/busrouter/internal/utils"
)

// planHandler finds the fewest-transfer bus itinerary between the stops
// nearest to the two query points.
func (api *RestAPI) planHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()
	fieldErrors := make(map[string][]string)

	fromLat, fromLon := utils.ParseCoordinateParams(queryParams, "fromLat", "fromLon", fieldErrors)
	toLat, toLon := utils.ParseCoordinateParams(queryParams, "toLat", "toLon", fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}

	start := time.Now()
	plan, err := engine.PlanTrip(r.Context(), fromLat, fromLon, toLat, toLon)
	elapsed := time.Since(start)
	if api.Metrics != nil {
		api.Metrics.ObservePlan(err, elapsed, plan.Stats)
	}

	if api.Config.Verbose {
		logging.LogOperation(api.logger(), "trip_planned",
			slog.Int("start_stop", plan.StartStop.ID),
			slog.Int("end_stop", plan.EndStop.ID),
			slog.Int("bus_count", plan.BusCount),
			slog.Int("expanded", plan.Stats.Expanded),
			slog.Duration("elapsed", elapsed),
			slog.Bool("ok", err == nil))
	}

	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponseWithClock(models.NewTripPlan(plan), api.Clock))
}
