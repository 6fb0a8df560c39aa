package restapi

import (
	"net/http"
	"net/http/pprof"

	"koox.dev/busrouter/internal/appconf"
)

// listCacheSeconds is short since stops can be edited through the API.
const listCacheSeconds = 30

// rateLimitAndValidateAPIKey combines rate limiting, API key validation, and compression
func rateLimitAndValidateAPIKey(api *RestAPI, finalHandler http.HandlerFunc) http.Handler {
	// Compression is innermost, then rate limiting.
	var handler http.Handler = CompressionMiddleware(finalHandler)
	if api.rateLimiter != nil {
		handler = api.rateLimiter.Handler()(handler)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

// cached adds a Cache-Control header to an authenticated read.
func cached(api *RestAPI, handler http.HandlerFunc) http.Handler {
	return CacheControlMiddleware(listCacheSeconds, rateLimitAndValidateAPIKey(api, handler))
}

// uncached marks the response as never cacheable.
func uncached(api *RestAPI, handler http.HandlerFunc) http.Handler {
	return CacheControlMiddleware(0, rateLimitAndValidateAPIKey(api, handler))
}

// registerPprofHandlers exposes the profiler. The patterns carry a method so
// they stay more specific than the web UI's "GET /debug/".
func registerPprofHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("POST /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
}

// SetRoutes registers all API endpoints with compression applied per route
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	// No authentication for probes and scraping.
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", api.Metrics.Handler())
	}
	if api.Config.Env == appconf.Development {
		registerPprofHandlers(mux)
	}

	mux.Handle("GET /api/where/current-time.json", uncached(api, api.currentTimeHandler))

	mux.Handle("GET /api/stops", uncached(api, api.stopsHandler))
	mux.Handle("POST /api/stops", uncached(api, api.createStopHandler))
	mux.Handle("GET /api/stops/closest", uncached(api, api.closestStopHandler))
	mux.Handle("GET /api/stops/{id}", uncached(api, api.stopHandler))
	mux.Handle("PUT /api/stops/{id}", uncached(api, api.updateStopHandler))
	mux.Handle("DELETE /api/stops/{id}", uncached(api, api.deleteStopHandler))
	mux.Handle("GET /api/stops-for-location", cached(api, api.stopsForLocationHandler))

	mux.Handle("GET /api/routes", cached(api, api.routesHandler))
	mux.Handle("GET /api/routes/{id}/stops", cached(api, api.stopsForRouteHandler))

	mux.Handle("GET /api/plan", uncached(api, api.planHandler))
}

// SetupAPIRoutes returns a mux with every API route registered.
func (api *RestAPI) SetupAPIRoutes() http.Handler {
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	return mux
}
