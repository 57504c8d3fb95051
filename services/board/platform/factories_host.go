//go:build !esp32c3

package platform

import (
	"image/color"
	"strconv"
	"sync"

	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
)

var _ core.ResourceRegistry = (*HostRegistry)(nil)

// NewRegistry returns the provider for the build target. On the host it is an
// in-memory registry with GPIO0..GPIO21, matching the ESP32-C3.
func NewRegistry() core.ResourceRegistry { return NewHostRegistry(21) }

// ----------------------------- Journal ---------------------------------------

// Journal records hardware operations in the order they were issued.
type Journal struct {
	mu  sync.Mutex
	ops []string
}

func (j *Journal) add(op string) {
	j.mu.Lock()
	j.ops = append(j.ops, op)
	j.mu.Unlock()
}

// Ops returns a copy of the recorded operations.
func (j *Journal) Ops() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.ops...)
}

// ----------------------------- Registry --------------------------------------

// HostRegistry implements core.ResourceRegistry for host-side tests and the
// simulator.
type HostRegistry struct {
	mu      sync.Mutex
	maxGPIO int
	pins    map[int]*FakePin
	owners  map[int]string
	spi     map[string]*FakeSPI
	faults  map[string]error

	Journal *Journal
}

func NewHostRegistry(maxGPIO int) *HostRegistry {
	return &HostRegistry{
		maxGPIO: maxGPIO,
		pins:    map[int]*FakePin{},
		owners:  map[int]string{},
		spi:     map[string]*FakeSPI{},
		faults:  map[string]error{},
		Journal: &Journal{},
	}
}

// FailOn makes the named operation (as it appears in the journal) fail with
// err from now on.
func (r *HostRegistry) FailOn(op string, err error) {
	r.mu.Lock()
	r.faults[op] = err
	r.mu.Unlock()
}

func (r *HostRegistry) fault(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faults[op]
}

// do journals op unless a fault is armed for it.
func (r *HostRegistry) do(op string) error {
	if err := r.fault(op); err != nil {
		return err
	}
	r.Journal.add(op)
	return nil
}

func (r *HostRegistry) ClaimPin(devID string, n int) (core.GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 || n > r.maxGPIO {
		return nil, errcode.UnknownPin
	}
	if owner, ok := r.owners[n]; ok && owner != devID {
		return nil, errcode.PinInUse
	}
	r.owners[n] = devID
	p, ok := r.pins[n]
	if !ok {
		p = &FakePin{number: n}
		r.pins[n] = p
	}
	return p, nil
}

func (r *HostRegistry) ReleasePin(devID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owners[n] == devID {
		delete(r.owners, n)
	}
}

func (r *HostRegistry) PinOwner(n int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[n]
	return o, ok
}

// Pin exposes the underlying *FakePin for tests (e.g. to drive IRQ edges).
func (r *HostRegistry) Pin(n int) (*FakePin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pins[n]
	return p, ok
}

func (r *HostRegistry) InitSPI(cfg core.SPIConfig) (core.SPIBus, error) {
	if err := r.fault("spi.init"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if _, ok := r.spi[cfg.Host]; ok {
		r.mu.Unlock()
		return nil, errcode.BusInUse
	}
	b := &FakeSPI{cfg: cfg}
	r.spi[cfg.Host] = b
	r.mu.Unlock()
	r.Journal.add("spi.init")
	return b, nil
}

func (r *HostRegistry) NewPanelIO(bus core.SPIBus, cfg core.PanelIOConfig) (core.PanelIO, error) {
	if err := r.do("panel_io.install"); err != nil {
		return nil, err
	}
	return &FakePanelIO{bus: bus, cfg: cfg}, nil
}

func (r *HostRegistry) NewPanel(io core.PanelIO, cfg core.PanelConfig) (core.PanelController, error) {
	if err := r.do("panel.install"); err != nil {
		return nil, err
	}
	return &FakePanel{reg: r, cfg: cfg, pixels: map[[2]int16]color.RGBA{}}, nil
}

func (r *HostRegistry) NewI2STx(cfg core.I2STxConfig) (core.I2STx, error) {
	if err := r.do("i2s.tx"); err != nil {
		return nil, err
	}
	return &FakeI2STx{cfg: cfg}, nil
}

func (r *HostRegistry) NewI2SRx(cfg core.I2SRxConfig) (core.I2SRx, error) {
	if err := r.do("i2s.rx"); err != nil {
		return nil, err
	}
	return &FakeI2SRx{cfg: cfg}, nil
}

// ----------------------------- GPIO ------------------------------------------

// FakePin implements core.IRQPin. Set drives the line as the outside world
// would and fires the IRQ handler on a matching edge.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    core.Pull
	irqEdge core.Edge
	irqFunc func()
}

func (p *FakePin) ConfigureInput(pull core.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	if pull == core.PullUp {
		p.level = true
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.level
}

func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge core.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = core.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, cur bool) core.Edge {
	switch {
	case !old && cur:
		return core.EdgeRising
	case old && !cur:
		return core.EdgeFalling
	default:
		return core.EdgeNone
	}
}

func irqWanted(cfg, seen core.Edge) bool {
	switch cfg {
	case core.EdgeBoth:
		return seen == core.EdgeRising || seen == core.EdgeFalling
	default:
		return cfg != core.EdgeNone && cfg == seen
	}
}

// ----------------------------- SPI -------------------------------------------

type FakeSPI struct {
	mu  sync.Mutex
	cfg core.SPIConfig
	tx  int
}

func (s *FakeSPI) Config() core.SPIConfig { return s.cfg }

func (s *FakeSPI) Tx(w, r []byte) error {
	s.mu.Lock()
	s.tx += len(w)
	s.mu.Unlock()
	for i := range r {
		r[i] = 0
	}
	return nil
}

func (s *FakeSPI) Transfer(b byte) (byte, error) {
	s.mu.Lock()
	s.tx++
	s.mu.Unlock()
	return 0, nil
}

// ----------------------------- Panel -----------------------------------------

type FakePanelIO struct {
	bus core.SPIBus
	cfg core.PanelIOConfig
}

func (io *FakePanelIO) Bus() core.SPIBus           { return io.bus }
func (io *FakePanelIO) Config() core.PanelIOConfig { return io.cfg }

// FakePanel journals each controller step as "panel.<step>".
type FakePanel struct {
	reg *HostRegistry
	cfg core.PanelConfig

	mu                    sync.Mutex
	inverted, swapped, on bool
	mirrorX, mirrorY      bool
	pixels                map[[2]int16]color.RGBA
	flushes               int
}

func (p *FakePanel) Reset() error { return p.reg.do("panel.reset") }
func (p *FakePanel) Init() error  { return p.reg.do("panel.init") }

func (p *FakePanel) InvertColor(invert bool) error {
	if err := p.reg.do("panel.invert"); err != nil {
		return err
	}
	p.mu.Lock()
	p.inverted = invert
	p.mu.Unlock()
	return nil
}

func (p *FakePanel) SwapXY(swap bool) error {
	if err := p.reg.do("panel.swap_xy"); err != nil {
		return err
	}
	p.mu.Lock()
	p.swapped = swap
	p.mu.Unlock()
	return nil
}

func (p *FakePanel) Mirror(x, y bool) error {
	if err := p.reg.do("panel.mirror"); err != nil {
		return err
	}
	p.mu.Lock()
	p.mirrorX, p.mirrorY = x, y
	p.mu.Unlock()
	return nil
}

func (p *FakePanel) DisplayOn(on bool) error {
	if err := p.reg.do("panel.display_on"); err != nil {
		return err
	}
	p.mu.Lock()
	p.on = on
	p.mu.Unlock()
	return nil
}

// Size reports the native panel size; orientation is applied by the surface.
func (p *FakePanel) Size() (x, y int16) { return p.cfg.Width, p.cfg.Height }

func (p *FakePanel) SetPixel(x, y int16, c color.RGBA) {
	p.mu.Lock()
	p.pixels[[2]int16{x, y}] = c
	p.mu.Unlock()
}

func (p *FakePanel) Display() error {
	p.mu.Lock()
	p.flushes++
	p.mu.Unlock()
	return nil
}

// Pixel returns the colour last written at native coordinates (x, y).
func (p *FakePanel) Pixel(x, y int16) (color.RGBA, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.pixels[[2]int16{x, y}]
	return c, ok
}

// State reports the transform flags and output state last applied.
func (p *FakePanel) State() (inverted, swapped, mirrorX, mirrorY, on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inverted, p.swapped, p.mirrorX, p.mirrorY, p.on
}

// ----------------------------- I2S -------------------------------------------

type FakeI2STx struct {
	mu      sync.Mutex
	cfg     core.I2STxConfig
	enabled bool
	written []int16
}

func (t *FakeI2STx) Config() core.I2STxConfig { return t.cfg }

func (t *FakeI2STx) Enable(on bool) error {
	t.mu.Lock()
	t.enabled = on
	t.mu.Unlock()
	return nil
}

func (t *FakeI2STx) Write(samples []int16) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return 0, errcode.Busy
	}
	t.written = append(t.written, samples...)
	return len(samples), nil
}

func (t *FakeI2STx) Written() []int16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int16(nil), t.written...)
}

func (t *FakeI2STx) Close() error { return t.Enable(false) }

type FakeI2SRx struct {
	mu      sync.Mutex
	cfg     core.I2SRxConfig
	enabled bool
	pending []int16
}

func (r *FakeI2SRx) Config() core.I2SRxConfig { return r.cfg }

func (r *FakeI2SRx) Enable(on bool) error {
	r.mu.Lock()
	r.enabled = on
	r.mu.Unlock()
	return nil
}

// Feed queues samples for subsequent reads, as a microphone would produce.
func (r *FakeI2SRx) Feed(samples []int16) {
	r.mu.Lock()
	r.pending = append(r.pending, samples...)
	r.mu.Unlock()
}

func (r *FakeI2SRx) Read(dst []int16) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return 0, errcode.Busy
	}
	n := copy(dst, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *FakeI2SRx) Close() error { return r.Enable(false) }

// String helps test failure messages.
func (r *HostRegistry) String() string {
	return "host registry (gpio0..gpio" + strconv.Itoa(r.maxGPIO) + ")"
}
