// Package board is the composition root of the voice endpoint: it brings up
// the peripherals of one board plan in a fixed order and hands out the
// capabilities the application layer queries.
package board

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"voicebox-go/bus"
	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
	"voicebox-go/services/board/internal/audio"
	"voicebox-go/services/board/internal/button"
	"voicebox-go/services/board/internal/lamp"
	"voicebox-go/services/board/internal/panel"
	"voicebox-go/services/board/internal/spibus"
	"voicebox-go/services/command"
	"voicebox-go/services/config"
	"voicebox-go/types"
	"voicebox-go/x/opt"
	"voicebox-go/x/timex"

	"github.com/rs/zerolog"
)

// TopicState carries the retained types.BoardState.
var TopicState = bus.T("board", "state")

// TopicButton returns the topic on which clicks of the named button appear.
func TopicButton(name string) bus.Topic { return bus.T("board", "button", name, "event") }

// Application is the voice-interaction state machine.
type Application interface {
	DeviceState() types.DeviceState
	ToggleChatState()
}

// Connectivity reports whether the network link is up.
type Connectivity interface {
	IsConnected() bool
}

// NetworkConfigurator discards stored network credentials and re-enters
// provisioning.
type NetworkConfigurator interface {
	TriggerReconfiguration()
}

// Deps are the collaborators a board is wired to. Commands defaults to
// command.Default(); Conn and OnClick are optional.
type Deps struct {
	Log      zerolog.Logger
	Reg      core.ResourceRegistry
	Commands *command.Registry
	Conn     *bus.Connection

	App    Application
	Wifi   Connectivity
	NetCfg NetworkConfigurator

	// OnClick runs after the click behaviour, e.g. to count clicks.
	OnClick func()
}

// Board owns every peripheral of one plan.
type Board struct {
	plan config.Plan
	deps Deps
	log  zerolog.Logger

	spi       core.SPIBus
	display   *panel.Surface
	button    *button.Button
	lamp      *lamp.Lamp
	indicator opt.Option[core.Indicator]

	audio   func() (*audio.Duplex, error)
	duplex  atomic.Pointer[audio.Duplex] // set once the codec is built
	closers []func() error               // one per completed step, in order

	closeOnce sync.Once
}

// Step names, in pipeline order.
const (
	StepSPIBus    = "spi_bus"
	StepDisplay   = "display"
	StepButton    = "button"
	StepLamp      = "lamp"
	StepIndicator = "indicator"
)

type step struct {
	name string
	run  func(b *Board) error
}

// pipeline is the construction order. Every step depends only on the steps
// before it.
var pipeline = []step{
	{StepSPIBus, (*Board).initSPIBus},
	{StepDisplay, (*Board).initDisplay},
	{StepButton, (*Board).initButton},
	{StepLamp, (*Board).initLamp},
	{StepIndicator, (*Board).initIndicator},
}

// Steps lists the pipeline step names in order.
func Steps() []string {
	out := make([]string, len(pipeline))
	for i, s := range pipeline {
		out[i] = s.name
	}
	return out
}

// New runs the construction pipeline. The first failing step stops it and
// the lines claimed by earlier steps are released; the error is an
// *errcode.E whose Op names the step and whose code is the step's own.
// Callers treat it as fatal.
func New(plan config.Plan, deps Deps) (*Board, error) {
	if deps.Reg == nil || deps.App == nil || deps.Wifi == nil || deps.NetCfg == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "board.new", Msg: "registry and collaborators are required"}
	}
	if deps.Commands == nil {
		deps.Commands = command.Default()
	}
	b := &Board{
		plan: plan,
		deps: deps,
		log:  deps.Log.With().Str("component", "board").Str("board", plan.Board).Logger(),
	}
	b.audio = sync.OnceValues(b.newAudio)

	b.publishState(types.BoardState{Level: types.BoardStarting})
	for _, s := range pipeline {
		start := time.Now()
		if err := s.run(b); err != nil {
			b.log.Error().Err(err).Str("step", s.name).Msg("board init failed")
			_ = b.release()
			b.publishState(types.BoardState{Level: types.BoardFailed, Step: s.name, Error: string(errcode.Of(err))})
			return nil, &errcode.E{C: errcode.Of(err), Op: "board." + s.name, Err: err}
		}
		b.log.Debug().Str("step", s.name).Dur("took", time.Since(start)).Msg("step done")
	}
	b.publishState(types.BoardState{Level: types.BoardReady})
	return b, nil
}

func (b *Board) initSPIBus() error {
	p := b.plan
	sb, err := spibus.Initialize(b.deps.Reg, spibus.Config{
		Host:   p.SPI.Host,
		MOSI:   p.SPI.MOSI,
		SCLK:   p.SPI.SCLK,
		Width:  p.Display.Width,
		Height: p.Display.Height,
	})
	if err != nil {
		return err
	}
	b.spi = sb
	b.closers = append(b.closers, func() error {
		spibus.Release(b.deps.Reg, spibus.Config{MOSI: p.SPI.MOSI, SCLK: p.SPI.SCLK})
		return nil
	})
	return nil
}

func (b *Board) initDisplay() error {
	d := b.plan.Display
	s, err := panel.Initialize(b.deps.Reg, b.spi, panel.Config{
		CS:        d.CS,
		DC:        d.DC,
		Reset:     d.Reset,
		Backlight: d.Backlight,
		Mode:      d.SPIMode,
		ClockHz:   d.ClockHz,
		BGR:       d.BGR,
		Geometry:  d.Geometry,
	})
	if err != nil {
		return err
	}
	b.display = s
	b.closers = append(b.closers, func() error { s.Close(); return nil })
	return nil
}

func (b *Board) initButton() error {
	bp := b.plan.Button
	btn, err := button.New(b.deps.Reg, button.Config{
		Name:      bp.Name,
		Pin:       bp.Pin,
		ActiveLow: bp.ActiveLow,
		Debounce:  time.Duration(bp.DebounceMs) * time.Millisecond,
	}, b.log)
	if err != nil {
		return err
	}
	if err := btn.OnClick(b.handleClick); err != nil {
		_ = btn.Close()
		return err
	}
	b.button = btn
	b.closers = append(b.closers, btn.Close)
	return nil
}

func (b *Board) initLamp() error {
	l, err := lamp.New(b.deps.Reg, b.plan.Lamp.Pin, b.deps.Commands, b.deps.Conn, b.deps.Log)
	if err != nil {
		return err
	}
	b.lamp = l
	b.closers = append(b.closers, func() error { l.Close(); return nil })
	return nil
}

func (b *Board) newAudio() (*audio.Duplex, error) {
	a := b.plan.Audio
	d, err := audio.New(b.deps.Reg, audio.Config{
		InputRate:  a.InputRate,
		OutputRate: a.OutputRate,
		Speaker:    core.I2STxConfig{BCLK: a.Speaker.BCLK, WS: a.Speaker.WS, DOUT: a.Speaker.DOUT},
		Mic:        core.I2SRxConfig{SCK: a.Mic.SCK, WS: a.Mic.WS, DIN: a.Mic.DIN},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("audio codec init failed")
		return nil, err
	}
	b.log.Debug().Uint32("in_hz", a.InputRate).Uint32("out_hz", a.OutputRate).Msg("audio codec ready")
	b.duplex.Store(d)
	return d, nil
}

// ---- capability queries ----

// Indicator is None when the board has no indicator line or when the line is
// taken by another peripheral.
func (b *Board) Indicator() opt.Option[core.Indicator] { return b.indicator }

// Display returns the surface built during construction.
func (b *Board) Display() core.DrawSurface { return b.display }

// AudioCodec builds the codec on first use. Every call returns the same
// instance, or the same error if construction failed.
func (b *Board) AudioCodec() (core.AudioCodec, error) {
	d, err := b.audio()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Lamp exposes the actuator for in-process callers.
func (b *Board) Lamp() *lamp.Lamp { return b.lamp }

func (b *Board) Plan() config.Plan { return b.plan }

// ---- lifecycle ----

// Start runs the button worker until ctx is cancelled or the board is
// closed. Later calls do nothing.
func (b *Board) Start(ctx context.Context) {
	b.button.Start(ctx)
	b.log.Info().Msg("board started")
}

// Close stops the button worker, releases every line the board claimed and
// reports the board stopped. The lamp commands stay registered and keep
// answering without a line.
func (b *Board) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.release()
		b.publishState(types.BoardState{Level: types.BoardStopped})
	})
	return err
}

// release undoes the completed steps in reverse order, then the codec if it
// was built.
func (b *Board) release() error {
	var errs []error
	if d := b.duplex.Load(); d != nil {
		errs = append(errs, d.Close())
	}
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}

func (b *Board) publishState(st types.BoardState) {
	if b.deps.Conn == nil {
		return
	}
	st.Board = b.plan.Board
	st.TS = timex.NowMs()
	b.deps.Conn.Publish(b.deps.Conn.NewMessage(TopicState, st, true))
}
