package core

import (
	"voicebox-go/types"

	"tinygo.org/x/drivers"
)

// DrawSurface is the drawing handle handed to application rendering code.
type DrawSurface interface {
	drivers.Displayer
	Geometry() types.Geometry
}

// AudioCodec is a duplex audio endpoint built from independent output and
// input interfaces. Rates and pins are fixed at construction.
type AudioCodec interface {
	InputSampleRate() uint32
	OutputSampleRate() uint32
	EnableInput(on bool) error
	EnableOutput(on bool) error
	Read(dst []int16) (int, error)
	Write(src []int16) (int, error)
}

// Indicator is a single status LED.
type Indicator interface {
	Set(on bool)
	On() bool
}
