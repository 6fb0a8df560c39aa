package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"koox.dev/busrouter/internal/events"
	"koox.dev/busrouter/internal/logging"
	"koox.dev/busrouter/internal/models"
	"koox.dev/busrouter/internal/routing"
	"koox.dev/busrouter/internal/utils"
)

const maxStopBodyBytes = 1 << 20

// rebuildTimeout bounds the snapshot rebuild that follows a committed edit.
const rebuildTimeout = 30 * time.Second

func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}
	stops := models.NewStops(engine.Stops())
	api.sendResponse(w, r, models.NewListResponseWithClock(stops, false, api.Clock))
}

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.pathStopID(w, r)
	if !ok {
		return
	}
	engine, ok := api.currentEngine(w, r)
	if !ok {
		return
	}

	stop, err := engine.StopByID(id)
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponseWithClock(models.NewStop(stop), api.Clock))
}

func (api *RestAPI) createStopHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := api.decodeStopRequest(w, r)
	if !ok {
		return
	}
	if fieldErrors := req.MissingForCreate(); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if api.Store == nil {
		api.serverErrorResponse(w, r, errors.New("stop store is not configured"))
		return
	}

	created, err := api.Store.Queries.CreateStop(r.Context(), req.ApplyTo(routing.Stop{}))
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}

	api.afterMutation(r.Context(), events.ActionCreate, created.ID)
	response := models.NewResponseWithClock(http.StatusCreated,
		map[string]interface{}{"entry": models.NewStop(created)}, "Created", api.Clock)
	api.sendResponse(w, r, response)
}

func (api *RestAPI) updateStopHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.pathStopID(w, r)
	if !ok {
		return
	}
	req, ok := api.decodeStopRequest(w, r)
	if !ok {
		return
	}
	if req.ID != nil && *req.ID != id {
		api.validationErrorResponse(w, r, map[string][]string{
			"id": {"id in body does not match the path"},
		})
		return
	}
	if api.Store == nil {
		api.serverErrorResponse(w, r, errors.New("stop store is not configured"))
		return
	}

	ctx := r.Context()
	existing, err := api.Store.Queries.GetStop(ctx, id)
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}

	updated, err := api.Store.Queries.UpdateStop(ctx, id, req.ApplyTo(existing))
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}

	api.afterMutation(ctx, events.ActionUpdate, id)
	api.sendResponse(w, r, models.NewEntryResponseWithClock(models.NewStop(updated), api.Clock))
}

func (api *RestAPI) deleteStopHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := api.pathStopID(w, r)
	if !ok {
		return
	}
	if api.Store == nil {
		api.serverErrorResponse(w, r, errors.New("stop store is not configured"))
		return
	}

	deleted, err := api.Store.Queries.DeleteStop(r.Context(), id)
	if err != nil {
		api.routingErrorResponse(w, r, err)
		return
	}

	api.afterMutation(r.Context(), events.ActionDelete, id)
	api.sendResponse(w, r, models.NewEntryResponseWithClock(models.NewStop(deleted), api.Clock))
}

func (api *RestAPI) pathStopID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := utils.ParseStopID(utils.ExtractIDFromParams(r))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return 0, false
	}
	return id, true
}

func (api *RestAPI) decodeStopRequest(w http.ResponseWriter, r *http.Request) (models.StopRequest, bool) {
	var req models.StopRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStopBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		api.badRequestResponse(w, r, "invalid JSON body: "+err.Error())
		return req, false
	}
	return req, true
}

// afterMutation rebuilds the routing snapshot from the store and tells other
// instances to do the same. A failed rebuild keeps the previous snapshot.
func (api *RestAPI) afterMutation(reqCtx context.Context, action string, stopID int) {
	// The edit is already committed; a client hanging up must not leave the
	// served snapshot behind the store.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), rebuildTimeout)
	defer cancel()

	logger := api.logger().With(slog.String("component", "stops_api"))

	if api.Manager != nil {
		if err := api.Manager.ForceUpdate(ctx); err != nil {
			logging.LogError(logger, "snapshot rebuild after edit failed", err,
				slog.String("action", action),
				slog.Int("stop_id", stopID))
		}
	}

	if api.Events == nil {
		return
	}
	msg := events.StopsChanged{
		Action:    action,
		StopID:    stopID,
		Timestamp: api.Clock.Now(),
	}
	if err := api.Events.PublishStopsChanged(ctx, msg); err != nil {
		logging.LogError(logger, "failed to publish stops change", err,
			slog.String("action", action))
	}
}
