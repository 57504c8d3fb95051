package types

// ------------------------
// Application device state (reported by the voice state machine)
// ------------------------

type DeviceState uint8

const (
	DeviceStateUnknown DeviceState = iota
	DeviceStateStarting
	DeviceStateWifiConfiguring
	DeviceStateIdle
	DeviceStateConnecting
	DeviceStateListening
	DeviceStateSpeaking
	DeviceStateUpgrading
	DeviceStateActivating
	DeviceStateFatalError
)

var deviceStateNames = [...]string{
	"unknown",
	"starting",
	"wifi_configuring",
	"idle",
	"connecting",
	"listening",
	"speaking",
	"upgrading",
	"activating",
	"fatal_error",
}

func (s DeviceState) String() string {
	if int(s) < len(deviceStateNames) {
		return deviceStateNames[s]
	}
	return "unknown"
}

// ------------------------
// Board lifecycle (retained on board/state)
// ------------------------

type BoardLevel string

const (
	BoardStarting BoardLevel = "starting"
	BoardReady    BoardLevel = "ready"
	BoardFailed   BoardLevel = "failed"
	BoardStopped  BoardLevel = "stopped"
)

type BoardState struct {
	Level BoardLevel `json:"level"`
	Board string     `json:"board"`
	Step  string     `json:"step,omitempty"`  // failing pipeline step
	Error string     `json:"error,omitempty"` // machine-readable short code
	TS    int64      `json:"ts_ms"`
}
