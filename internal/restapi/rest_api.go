package restapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"koox.dev/busrouter/internal/app"
	"koox.dev/busrouter/internal/routing"
)

type RestAPI struct {
	*app.Application
	rateLimiter  *RateLimitMiddleware
	shutdownOnce sync.Once
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second),
	}
}

// Shutdown stops the rate limiter's background cleanup. Safe to call more than once.
func (api *RestAPI) Shutdown() {
	api.shutdownOnce.Do(func() {
		if api.rateLimiter != nil {
			api.rateLimiter.Stop()
		}
	})
}

func (api *RestAPI) logger() *slog.Logger {
	if api.Logger != nil {
		return api.Logger
	}
	return slog.Default()
}

// currentEngine returns the live snapshot, answering 503 when none is loaded.
func (api *RestAPI) currentEngine(w http.ResponseWriter, r *http.Request) (*routing.Engine, bool) {
	var engine *routing.Engine
	if api.Manager != nil {
		engine = api.Manager.Engine()
	}
	if engine == nil {
		api.serviceUnavailableResponse(w, r, "routing data not loaded")
		return nil, false
	}
	return engine, true
}
