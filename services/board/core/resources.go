package core

import "tinygo.org/x/drivers"

// NC marks a line that is not connected.
const NC = -1

// ---- GPIO handles ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOHandle interface {
	Number() int
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOHandle with interrupts. The handler runs in interrupt
// context and must not block.
type IRQPin interface {
	GPIOHandle
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// ---- SPI (transactional bus) ----

type DMAChannel int8

const (
	DMADisabled DMAChannel = 0
	DMAAuto     DMAChannel = -1
)

type SPIConfig struct {
	Host            string // e.g. "spi2"
	MOSI, MISO      int
	SCLK            int
	QuadWP, QuadHD  int
	MaxTransferSize int // bytes
	DMA             DMAChannel
}

// SPIBus is an initialised SPI host. Devices attach to it through panel IO.
type SPIBus interface {
	drivers.SPI
	Config() SPIConfig
}

// ---- Display panel ----

type PanelIOConfig struct {
	CS, DC     int
	Mode       uint8
	ClockHz    uint32
	QueueDepth int
	CmdBits    int
	ParamBits  int
}

// PanelIO is the command/data transport bound to a bus and a CS/DC pair.
type PanelIO interface {
	Bus() SPIBus
	Config() PanelIOConfig
}

type ColorOrder uint8

const (
	OrderRGB ColorOrder = iota
	OrderBGR
)

type PanelConfig struct {
	Reset        int
	Order        ColorOrder
	BitsPerPixel int
	Width        int16
	Height       int16
}

// PanelController drives the panel chip. Steps are issued in a fixed order
// by the panel adapter; implementations must not reorder them.
type PanelController interface {
	drivers.Displayer
	Reset() error
	Init() error
	InvertColor(invert bool) error
	SwapXY(swap bool) error
	Mirror(x, y bool) error
	DisplayOn(on bool) error
}

// ---- Audio (I2S, one direction per endpoint) ----

type I2STxConfig struct {
	BCLK, WS, DOUT int
	SampleRate     uint32
}

type I2SRxConfig struct {
	SCK, WS, DIN int
	SampleRate   uint32
}

type I2STx interface {
	Enable(on bool) error
	Write(samples []int16) (int, error)
	Close() error
}

type I2SRx interface {
	Enable(on bool) error
	Read(samples []int16) (int, error)
	Close() error
}

// ---- Unified registry interface ----

// ResourceRegistry hands out hardware resources and tracks pin ownership.
// A pin has at most one owner; a second claim fails with errcode.PinInUse
// and an unknown or not-connected pin with errcode.UnknownPin.
type ResourceRegistry interface {
	ClaimPin(devID string, n int) (GPIOHandle, error)
	ReleasePin(devID string, n int)
	PinOwner(n int) (string, bool)

	InitSPI(cfg SPIConfig) (SPIBus, error)
	NewPanelIO(bus SPIBus, cfg PanelIOConfig) (PanelIO, error)
	NewPanel(io PanelIO, cfg PanelConfig) (PanelController, error)

	NewI2STx(cfg I2STxConfig) (I2STx, error)
	NewI2SRx(cfg I2SRxConfig) (I2SRx, error)
}
