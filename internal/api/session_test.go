package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ficonsole/pkg/core"
	"ficonsole/pkg/maneuver"
)

type fakeSession struct {
	status       core.Status
	startErr     error
	reconnectErr error

	startKind   maneuver.Kind
	startTarget string
	starts      int
	ends        int
	reconnects  int
}

func (f *fakeSession) Status() core.Status { return f.status }

func (f *fakeSession) RequestStart(kind maneuver.Kind, target string) error {
	f.starts++
	f.startKind, f.startTarget = kind, target
	return f.startErr
}

func (f *fakeSession) RequestEnd() { f.ends++ }

func (f *fakeSession) Reconnect(ctx context.Context) error {
	f.reconnects++
	return f.reconnectErr
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest("POST", "/", &buf)
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestSessionHandler_HandleStart(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		startErr   error
		wantStatus int
		wantStarts int
		wantKind   maneuver.Kind
	}{
		{
			name:       "climb accepted",
			body:       StartRequest{Kind: "climb", Target: "4500"},
			wantStatus: http.StatusAccepted,
			wantStarts: 1,
			wantKind:   maneuver.Climb,
		},
		{
			name:       "slug is case-insensitive",
			body:       StartRequest{Kind: "Straight-And-Level"},
			wantStatus: http.StatusAccepted,
			wantStarts: 1,
			wantKind:   maneuver.StraightAndLevel,
		},
		{
			name:       "unknown kind",
			body:       StartRequest{Kind: "loop"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad body",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid target",
			body:       StartRequest{Kind: "descent", Target: "abc"},
			startErr:   fmt.Errorf("%w: not a number", maneuver.ErrInvalidTarget),
			wantStatus: http.StatusBadRequest,
			wantStarts: 1,
			wantKind:   maneuver.Descent,
		},
		{
			name:       "no telemetry yet",
			body:       StartRequest{Kind: "turn", Target: "90"},
			startErr:   maneuver.ErrNoTelemetry,
			wantStatus: http.StatusBadRequest,
			wantStarts: 1,
			wantKind:   maneuver.Turn,
		},
		{
			name:       "disconnected",
			body:       StartRequest{Kind: "turn", Target: "90"},
			startErr:   core.ErrSourceDisconnected,
			wantStatus: http.StatusConflict,
			wantStarts: 1,
			wantKind:   maneuver.Turn,
		},
		{
			name:       "closed",
			body:       StartRequest{Kind: "turn", Target: "90"},
			startErr:   core.ErrClosed,
			wantStatus: http.StatusServiceUnavailable,
			wantStarts: 1,
			wantKind:   maneuver.Turn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeSession{startErr: tt.startErr, status: core.Status{Text: "Climb Initiated"}}
			h := NewSessionHandler(fs)

			rr := postJSON(t, h.HandleStart, tt.body)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStarts, fs.starts)
			if tt.wantStarts > 0 {
				assert.Equal(t, tt.wantKind, fs.startKind)
			}
			if rr.Code >= 400 && rr.Header().Get("Content-Type") == "application/json" {
				var body map[string]string
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestSessionHandler_HandleStart_PassesRawTarget(t *testing.T) {
	fs := &fakeSession{}
	h := NewSessionHandler(fs)
	postJSON(t, h.HandleStart, StartRequest{Kind: "climb", Target: " 4500 "})
	assert.Equal(t, " 4500 ", fs.startTarget)
}

func TestSessionHandler_HandleEnd(t *testing.T) {
	fs := &fakeSession{status: core.Status{Text: "Constant Airspeed Climbs Failed (Aborted)"}}
	h := NewSessionHandler(fs)

	rr := postJSON(t, h.HandleEnd, nil)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, 1, fs.ends)
	var st core.Status
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&st))
	assert.Equal(t, "Constant Airspeed Climbs Failed (Aborted)", st.Text)
}

func TestSessionHandler_HandleReconnect(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		fs := &fakeSession{status: core.Status{Text: maneuver.NotStartedStatus, Connected: true}}
		rr := postJSON(t, NewSessionHandler(fs).HandleReconnect, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, fs.reconnects)
	})
	t.Run("source down", func(t *testing.T) {
		fs := &fakeSession{reconnectErr: fmt.Errorf("%w: %w", core.ErrSourceDisconnected, errors.New("refused"))}
		rr := postJSON(t, NewSessionHandler(fs).HandleReconnect, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestSessionHandler_HandleManeuvers(t *testing.T) {
	h := NewSessionHandler(&fakeSession{})
	rr := httptest.NewRecorder()
	h.HandleManeuvers(rr, httptest.NewRequest("GET", "/api/maneuvers", http.NoBody))

	var got []ManeuverInfo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got, len(maneuver.Kinds))
	assert.Equal(t, ManeuverInfo{Kind: "straight-and-level", Name: "Straight-and-Level Flight", NeedsTarget: false}, got[0])
	assert.True(t, got[3].NeedsTarget)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("wrap: %w", maneuver.ErrInvalidTarget)))
}
