package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ficonsole/pkg/core"
	"ficonsole/pkg/maneuver"
)

// Session is the command surface of the session controller.
type Session interface {
	Status() core.Status
	RequestStart(kind maneuver.Kind, target string) error
	RequestEnd()
	Reconnect(ctx context.Context) error
}

type SessionHandler struct {
	session Session
}

func NewSessionHandler(s Session) *SessionHandler {
	return &SessionHandler{session: s}
}

// StartRequest selects a maneuver. Target is the raw operator text; it is
// ignored for straight-and-level.
type StartRequest struct {
	Kind   string `json:"kind"`
	Target string `json:"target"`
}

// ManeuverInfo describes a selectable maneuver.
type ManeuverInfo struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	NeedsTarget bool   `json:"needs_target"`
}

func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Status())
}

func (h *SessionHandler) HandleManeuvers(w http.ResponseWriter, r *http.Request) {
	out := make([]ManeuverInfo, 0, len(maneuver.Kinds))
	for _, k := range maneuver.Kinds {
		out = append(out, ManeuverInfo{Kind: k.Slug(), Name: k.String(), NeedsTarget: k.NeedsTarget()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	kind, err := maneuver.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.session.RequestStart(kind, req.Target); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.session.Status())
}

func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	h.session.RequestEnd()
	writeJSON(w, http.StatusAccepted, h.session.Status())
}

func (h *SessionHandler) HandleReconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reconnect(r.Context()); err != nil {
		slog.Warn("Reconnect via API failed", "error", err)
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Status())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, maneuver.ErrInvalidTarget), errors.Is(err, maneuver.ErrNoTelemetry):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSourceDisconnected):
		return http.StatusConflict
	case errors.Is(err, core.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
