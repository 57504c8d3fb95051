// Package panel brings up the display controller and wraps it as a drawing
// surface.
package panel

import (
	"image/color"

	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
	"voicebox-go/types"
)

const devID = "display"

// Panel IO transport constants for an 8-bit command / 8-bit parameter panel.
const (
	queueDepth   = 10
	cmdBits      = 8
	paramBits    = 8
	bitsPerPixel = 16
)

type Config struct {
	CS, DC    int
	Reset     int
	Backlight int
	Mode      uint8
	ClockHz   uint32
	BGR       bool
	Geometry  types.Geometry
}

// Initialize runs the bring-up sequence against an initialised bus:
//
//	panel_io.install, panel.install, panel.reset, panel.init,
//	panel.invert, panel.swap_xy, panel.mirror, panel.display_on
//
// Transform flags are applied before output is enabled. The first failing
// step aborts the sequence and is reported as errcode.PanelInitFailed with the
// step as Op; later steps are not attempted and the claimed lines are
// released.
func Initialize(reg core.ResourceRegistry, bus core.SPIBus, cfg Config) (*Surface, error) {
	var claimed []int
	for _, n := range []int{cfg.CS, cfg.DC, cfg.Reset, cfg.Backlight} {
		if n == core.NC {
			continue
		}
		if _, err := reg.ClaimPin(devID, n); err != nil {
			release(reg, claimed)
			return nil, fail("panel.claim", err)
		}
		claimed = append(claimed, n)
	}
	abort := func(op string, err error) (*Surface, error) {
		release(reg, claimed)
		return nil, fail(op, err)
	}

	io, err := reg.NewPanelIO(bus, core.PanelIOConfig{
		CS:         cfg.CS,
		DC:         cfg.DC,
		Mode:       cfg.Mode,
		ClockHz:    cfg.ClockHz,
		QueueDepth: queueDepth,
		CmdBits:    cmdBits,
		ParamBits:  paramBits,
	})
	if err != nil {
		return abort("panel_io.install", err)
	}

	order := core.OrderRGB
	if cfg.BGR {
		order = core.OrderBGR
	}
	g := cfg.Geometry
	ctrl, err := reg.NewPanel(io, core.PanelConfig{
		Reset:        cfg.Reset,
		Order:        order,
		BitsPerPixel: bitsPerPixel,
		Width:        g.Width,
		Height:       g.Height,
	})
	if err != nil {
		return abort("panel.install", err)
	}

	steps := []struct {
		op string
		fn func() error
	}{
		{"panel.reset", ctrl.Reset},
		{"panel.init", ctrl.Init},
		{"panel.invert", func() error { return ctrl.InvertColor(g.InvertColor) }},
		{"panel.swap_xy", func() error { return ctrl.SwapXY(g.SwapXY) }},
		{"panel.mirror", func() error { return ctrl.Mirror(g.MirrorX, g.MirrorY) }},
		{"panel.display_on", func() error { return ctrl.DisplayOn(true) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return abort(s.op, err)
		}
	}
	return &Surface{io: io, ctrl: ctrl, geom: g, reg: reg, pins: claimed}, nil
}

func release(reg core.ResourceRegistry, pins []int) {
	for _, n := range pins {
		reg.ReleasePin(devID, n)
	}
}

func fail(op string, err error) error {
	return &errcode.E{C: errcode.PanelInitFailed, Op: op, Err: err}
}

// Surface is the drawing handle: transport, controller and geometry. It
// implements core.DrawSurface in logical coordinates; the panel offsets are
// added on the way to the controller.
type Surface struct {
	io   core.PanelIO
	ctrl core.PanelController
	geom types.Geometry

	reg  core.ResourceRegistry
	pins []int
}

var _ core.DrawSurface = (*Surface)(nil)

func (s *Surface) IO() core.PanelIO                 { return s.io }
func (s *Surface) Controller() core.PanelController { return s.ctrl }
func (s *Surface) Geometry() types.Geometry         { return s.geom }

// Size is the logical size, with width and height exchanged when the axes
// are swapped.
func (s *Surface) Size() (x, y int16) {
	if s.geom.SwapXY {
		return s.geom.Height, s.geom.Width
	}
	return s.geom.Width, s.geom.Height
}

// SetPixel ignores coordinates outside the logical area.
func (s *Surface) SetPixel(x, y int16, c color.RGBA) {
	w, h := s.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	s.ctrl.SetPixel(x+s.geom.OffsetX, y+s.geom.OffsetY, c)
}

func (s *Surface) Display() error { return s.ctrl.Display() }

// Close releases the CS, DC, reset and backlight lines. The controller is
// left as it is; the surface must not be used afterwards.
func (s *Surface) Close() {
	release(s.reg, s.pins)
	s.pins = nil
}
