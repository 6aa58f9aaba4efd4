// Package appliance defines the appliance states and command codes
// shared by the transmitter and the telemetry wire format.
package appliance

// State enumerates the appliance operating states. The numeric values
// are the wire codes carried in telemetry packets and must not change.
type State byte

const (
	// Off means the appliance is powered off.
	Off State = iota
	// On means the appliance is powered on with default settings.
	On
	// Temp20 means cooling set to 20C.
	Temp20
	// Temp22 means cooling set to 22C. Selecting this state is the
	// known-faulting command (see pkg/fault).
	Temp22
	// Fan1 means fan speed level 1.
	Fan1
	// Fan2 means fan speed level 2.
	Fan2

	numStates
)

// A Command requests a transition into the matching state, so commands
// share the state code space. The zero command is Off.
type Command = State

// IsValid reports whether the code names a known state.
func (s State) IsValid() bool {
	return s < numStates
}

var stateNames = [numStates]string{"OFF", "ON", "20C", "22C", "FAN1", "FAN2"}

// String returns the short display name used on status panels.
func (s State) String() string {
	if !s.IsValid() {
		return "???"
	}
	return stateNames[s]
}
