package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/models"
	"koox.dev/busrouter/internal/routing"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.logger(), "failed to encode response", err,
			slog.String("path", r.URL.Path))
	}
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, text string) {
	api.sendResponse(w, r, models.NewResponseWithClock(code, nil, text, api.Clock))
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) badRequestResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.sendError(w, r, http.StatusBadRequest, text)
}

func (api *RestAPI) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, text string) {
	api.sendError(w, r, http.StatusServiceUnavailable, text)
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	data := map[string]interface{}{
		"fieldErrors": fieldErrors,
	}
	api.sendResponse(w, r, models.NewResponseWithClock(http.StatusBadRequest, data, "invalid request parameters", api.Clock))
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.logger(), "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

// routingErrorResponse maps the routing sentinel errors onto HTTP statuses.
func (api *RestAPI) routingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidInput):
		api.badRequestResponse(w, r, err.Error())
	case errors.Is(err, routing.ErrNoPath):
		api.sendError(w, r, http.StatusNotFound, "no bus connection between the nearest stops")
	case errors.Is(err, routing.ErrEmptyDataset):
		api.sendError(w, r, http.StatusNotFound, "no stops loaded")
	case errors.Is(err, routing.ErrNotFound):
		api.sendNotFound(w, r)
	case errors.Is(err, routing.ErrSearchAborted):
		api.serviceUnavailableResponse(w, r, "route search exceeded its expansion limit")
	default:
		api.serverErrorResponse(w, r, err)
	}
}
