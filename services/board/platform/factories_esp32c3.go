//go:build esp32c3

package platform

import (
	"image/color"
	"machine"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/st7789"

	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
)

// ESP32-C3 exposes GPIO0..GPIO21.
const maxGPIO = 21

// NewRegistry returns the ESP32-C3 provider backed by machine pins, the SPI2
// host and the st7789 driver.
func NewRegistry() core.ResourceRegistry {
	return &c3Registry{owners: map[int]string{}, spi: map[string]bool{}}
}

type c3Registry struct {
	mu     sync.Mutex
	owners map[int]string
	spi    map[string]bool
}

func (r *c3Registry) ClaimPin(devID string, n int) (core.GPIOHandle, error) {
	if n < 0 || n > maxGPIO {
		return nil, errcode.UnknownPin
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.owners[n]; ok && owner != devID {
		return nil, errcode.PinInUse
	}
	r.owners[n] = devID
	return &c3Pin{p: machine.Pin(n), n: n}, nil
}

func (r *c3Registry) ReleasePin(devID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[n] == devID {
		delete(r.owners, n)
	}
}

func (r *c3Registry) PinOwner(n int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[n]
	return o, ok
}

// ---- GPIO ----

type c3Pin struct {
	p machine.Pin
	n int
}

func (c *c3Pin) ConfigureInput(pull core.Pull) error {
	mode := machine.PinInput
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	}
	c.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (c *c3Pin) ConfigureOutput(initial bool) error {
	c.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	c.p.Set(initial)
	return nil
}

func (c *c3Pin) Set(level bool) { c.p.Set(level) }
func (c *c3Pin) Get() bool      { return c.p.Get() }
func (c *c3Pin) Number() int    { return c.n }

func (c *c3Pin) SetIRQ(edge core.Edge, handler func()) error {
	return c.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (c *c3Pin) ClearIRQ() error {
	var zero machine.PinChange
	return c.p.SetInterrupt(zero, nil)
}

func toPinChange(e core.Edge) machine.PinChange {
	switch e {
	case core.EdgeRising:
		return machine.PinRising
	case core.EdgeFalling:
		return machine.PinFalling
	case core.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

func machinePin(n int) machine.Pin {
	if n == core.NC {
		return machine.NoPin
	}
	return machine.Pin(n)
}

// ---- SPI ----

type c3SPI struct {
	*machine.SPI
	cfg core.SPIConfig
}

func (s *c3SPI) Config() core.SPIConfig { return s.cfg }

func (r *c3Registry) InitSPI(cfg core.SPIConfig) (core.SPIBus, error) {
	if cfg.Host != "spi2" {
		return nil, errcode.UnknownBus
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spi[cfg.Host] {
		return nil, errcode.BusInUse
	}
	bus := machine.SPI2
	// The clock is raised to the panel rate when the panel IO attaches.
	if err := bus.Configure(machine.SPIConfig{
		SCK: machinePin(cfg.SCLK),
		SDO: machinePin(cfg.MOSI),
		SDI: machinePin(cfg.MISO),
	}); err != nil {
		return nil, err
	}
	r.spi[cfg.Host] = true
	return &c3SPI{SPI: bus, cfg: cfg}, nil
}

// ---- Panel ----

type c3PanelIO struct {
	bus core.SPIBus
	cfg core.PanelIOConfig
}

func (io *c3PanelIO) Bus() core.SPIBus           { return io.bus }
func (io *c3PanelIO) Config() core.PanelIOConfig { return io.cfg }

func (r *c3Registry) NewPanelIO(bus core.SPIBus, cfg core.PanelIOConfig) (core.PanelIO, error) {
	s, ok := bus.(*c3SPI)
	if !ok {
		return nil, errcode.UnknownBus
	}
	if err := s.SPI.Configure(machine.SPIConfig{
		Frequency: cfg.ClockHz,
		Mode:      cfg.Mode,
		SCK:       machinePin(s.cfg.SCLK),
		SDO:       machinePin(s.cfg.MOSI),
		SDI:       machinePin(s.cfg.MISO),
	}); err != nil {
		return nil, err
	}
	return &c3PanelIO{bus: bus, cfg: cfg}, nil
}

func (r *c3Registry) NewPanel(io core.PanelIO, cfg core.PanelConfig) (core.PanelController, error) {
	if cfg.BitsPerPixel != 16 {
		return nil, errcode.Unsupported
	}
	ioc := io.Config()
	dev := st7789.New(io.Bus(), machinePin(cfg.Reset), machinePin(ioc.DC), machinePin(ioc.CS), machine.NoPin)
	return &c3Panel{dev: &dev, cfg: cfg}, nil
}

// c3Panel maps the step-wise controller onto st7789. The driver performs
// reset and init sequencing inside Configure, and expresses swap and mirror as
// a single rotation, so the steps record intent and the driver call happens
// once the orientation is known.
type c3Panel struct {
	dev *st7789.Device
	cfg core.PanelConfig

	swap, mx, my bool
}

func (p *c3Panel) Reset() error { return nil }

func (p *c3Panel) Init() error {
	p.dev.Configure(st7789.Config{
		Width:    p.cfg.Width,
		Height:   p.cfg.Height,
		Rotation: drivers.Rotation0,
	})
	p.dev.IsBGR(p.cfg.Order == core.OrderBGR)
	return nil
}

func (p *c3Panel) InvertColor(invert bool) error {
	p.dev.InvertColors(invert)
	return nil
}

// SwapXY is applied together with the mirror flags, which always follow it.
func (p *c3Panel) SwapXY(swap bool) error {
	p.swap = swap
	return nil
}

func (p *c3Panel) Mirror(x, y bool) error {
	p.mx, p.my = x, y
	rot, ok := rotationFor(p.swap, p.mx, p.my)
	if !ok {
		return errcode.Unsupported
	}
	return p.dev.SetRotation(rot)
}

func (p *c3Panel) DisplayOn(on bool) error {
	if err := p.dev.Sleep(!on); err != nil {
		return err
	}
	p.dev.EnableBacklight(on)
	return nil
}

func (p *c3Panel) Size() (x, y int16)                { return p.dev.Size() }
func (p *c3Panel) SetPixel(x, y int16, c color.RGBA) { p.dev.SetPixel(x, y, c) }
func (p *c3Panel) Display() error                    { return p.dev.Display() }

// ---- I2S ----

// TinyGo has no I2S peripheral support for the ESP32-C3.
func (r *c3Registry) NewI2STx(core.I2STxConfig) (core.I2STx, error) {
	return nil, errcode.Unsupported
}

func (r *c3Registry) NewI2SRx(core.I2SRxConfig) (core.I2SRx, error) {
	return nil, errcode.Unsupported
}
