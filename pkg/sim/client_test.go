package sim_test

import (
	"context"
	"errors"
	"testing"

	"ficonsole/pkg/sim"
)

type stubClient struct {
	pos    sim.Position
	ias    float64
	vvi    float64
	posErr error
	iasErr error
	vviErr error
}

func (s *stubClient) GetPosition(ctx context.Context) (sim.Position, error) { return s.pos, s.posErr }
func (s *stubClient) GetAirspeed(ctx context.Context) (float64, error)      { return s.ias, s.iasErr }
func (s *stubClient) GetVerticalSpeed(ctx context.Context) (float64, error) { return s.vvi, s.vviErr }
func (s *stubClient) GetState() sim.State                                   { return sim.StateActive }
func (s *stubClient) Close() error                                          { return nil }

func TestPoll(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		client  *stubClient
		wantErr bool
	}{
		{
			name: "AllFieldsSet",
			client: &stubClient{
				pos: sim.Position{Latitude: 51.5, Longitude: -0.12, AltitudeMeters: 304.8, Heading: 90},
				ias: 120,
				vvi: 500,
			},
		},
		{name: "PositionFails", client: &stubClient{posErr: boom}, wantErr: true},
		{name: "AirspeedFails", client: &stubClient{iasErr: boom}, wantErr: true},
		{name: "VerticalSpeedFails", client: &stubClient{vviErr: sim.ErrNotConnected}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := sim.Poll(context.Background(), tt.client)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Poll failed: %v", err)
			}
			if r.Latitude != tt.client.pos.Latitude {
				t.Errorf("Latitude: got %v, want %v", r.Latitude, tt.client.pos.Latitude)
			}
			if r.Airspeed != tt.client.ias {
				t.Errorf("Airspeed: got %v, want %v", r.Airspeed, tt.client.ias)
			}
			if r.VerticalSpeed != tt.client.vvi {
				t.Errorf("VerticalSpeed: got %v, want %v", r.VerticalSpeed, tt.client.vvi)
			}
		})
	}
}

func TestPoll_WrapsNotConnected(t *testing.T) {
	_, err := sim.Poll(context.Background(), &stubClient{posErr: sim.ErrNotConnected})
	if !errors.Is(err, sim.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected in chain, got %v", err)
	}
}
