// Package sim provides simulator client interfaces and types.
package sim

// State represents the connection state of the simulator.
type State string

const (
	// StateDisconnected indicates no connection to the simulator.
	StateDisconnected State = "disconnected"
	// StateActive indicates the simulator is answering requests.
	StateActive State = "active"
)
