package types

// ------------------------
// Lamp / relay (GPIO actuator)
// ------------------------

// LampState is the result object of the lamp get_state command and the
// retained value on board/lamp/value.
type LampState struct {
	Power bool `json:"power"`
}

// ------------------------
// Button
// ------------------------

type ButtonClick struct {
	Name string `json:"name"`
	TS   int64  `json:"ts_ms"`
}

// ------------------------
// Display geometry
// ------------------------

type Geometry struct {
	Width       int16 `json:"width" yaml:"width"`
	Height      int16 `json:"height" yaml:"height"`
	OffsetX     int16 `json:"offset_x" yaml:"offset_x"`
	OffsetY     int16 `json:"offset_y" yaml:"offset_y"`
	MirrorX     bool  `json:"mirror_x" yaml:"mirror_x"`
	MirrorY     bool  `json:"mirror_y" yaml:"mirror_y"`
	SwapXY      bool  `json:"swap_xy" yaml:"swap_xy"`
	InvertColor bool  `json:"invert_color" yaml:"invert_color"`
}
