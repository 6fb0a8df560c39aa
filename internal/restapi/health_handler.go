package restapi

import (
	"net/http"

	"koox.dev/busrouter/internal/models"
)

// healthHandler reports 200 while a routing snapshot is being served.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := models.Health{Status: "unavailable"}
	code := http.StatusServiceUnavailable

	if api.Manager != nil {
		stats := api.Manager.Statistics()
		health.SnapshotVersion = stats.Version
		health.Stops = stats.Stops
		health.Routes = stats.Routes
		health.LoadedAt = stats.LoadedAt
		if err := api.Manager.LastError(); err != nil {
			health.LastError = err.Error()
		}
		if api.Manager.IsHealthy() {
			health.Status = "ok"
			code = http.StatusOK
		}
	}

	text := "OK"
	if code != http.StatusOK {
		text = "routing data not loaded"
	}
	api.sendResponse(w, r, models.NewResponseWithClock(code, health, text, api.Clock))
}
