// Package button turns a GPIO interrupt line into debounced click events.
package button

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"voicebox-go/errcode"
	"voicebox-go/services/board/core"

	"github.com/rs/zerolog"
)

type Config struct {
	Name      string
	Pin       int
	ActiveLow bool
	Debounce  time.Duration
}

// Button reports a click for each press followed by a release. Edges closer
// than Debounce to the last accepted edge are discarded.
type Button struct {
	cfg Config
	reg core.ResourceRegistry
	pin core.IRQPin
	log zerolog.Logger

	// Written by the ISR; the ISR never blocks.
	isrQ  chan isrEvent
	drops uint32

	mu      sync.Mutex
	handler func()

	// Owned by the worker goroutine.
	pressed   bool
	lastEvent time.Time

	startOnce sync.Once
	started   atomic.Bool
	cancel    context.CancelFunc
	stopped   chan struct{}
}

type isrEvent struct {
	level bool // captured in ISR
}

func devID(name string) string { return "button." + name }

// New claims the pin, configures it as an input with the pull towards the
// released level and arms the interrupt on both edges. Edges are queued until
// Start.
func New(reg core.ResourceRegistry, cfg Config, log zerolog.Logger) (*Button, error) {
	id := devID(cfg.Name)
	h, err := reg.ClaimPin(id, cfg.Pin)
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "button.claim", err)
	}
	pin, ok := h.(core.IRQPin)
	if !ok {
		reg.ReleasePin(id, cfg.Pin)
		return nil, &errcode.E{C: errcode.Unsupported, Op: "button.claim", Msg: "pin has no interrupt support"}
	}
	pull := core.PullDown
	if cfg.ActiveLow {
		pull = core.PullUp
	}
	if err := pin.ConfigureInput(pull); err != nil {
		reg.ReleasePin(id, cfg.Pin)
		return nil, errcode.Wrap(errcode.Error, "button.configure", err)
	}

	b := &Button{
		cfg:     cfg,
		reg:     reg,
		pin:     pin,
		log:     log.With().Str("button", cfg.Name).Logger(),
		isrQ:    make(chan isrEvent, 16),
		stopped: make(chan struct{}),
	}
	b.pressed = b.logical(pin.Get())

	isr := func() {
		select {
		case b.isrQ <- isrEvent{level: pin.Get()}:
		default:
			atomic.AddUint32(&b.drops, 1)
		}
	}
	if err := pin.SetIRQ(core.EdgeBoth, isr); err != nil {
		reg.ReleasePin(id, cfg.Pin)
		return nil, errcode.Wrap(errcode.Error, "button.irq", err)
	}
	return b, nil
}

func (b *Button) Name() string { return b.cfg.Name }

// OnClick sets the click handler. Only one handler may be set; a second call
// fails with errcode.HandlerSet. The handler runs on the worker goroutine, one
// click at a time.
func (b *Button) OnClick(h func()) error {
	if h == nil {
		return errcode.InvalidParams
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handler != nil {
		return errcode.HandlerSet
	}
	b.handler = h
	return nil
}

// Start runs the worker until ctx is cancelled or the button is closed.
// Only the first call starts a worker.
func (b *Button) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		ctx, b.cancel = context.WithCancel(ctx)
		b.started.Store(true)
		go func() {
			defer close(b.stopped)
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-b.isrQ:
					b.handleISR(ev, time.Now())
				}
			}
		}()
	})
}

// Done is closed once the worker has exited.
func (b *Button) Done() <-chan struct{} { return b.stopped }

// Close stops the worker, disarms the interrupt and releases the pin. It must
// not be called from the click handler.
func (b *Button) Close() error {
	if b.started.Load() {
		b.cancel()
		<-b.stopped
	}
	err := b.pin.ClearIRQ()
	b.reg.ReleasePin(devID(b.cfg.Name), b.cfg.Pin)
	return err
}

// ISRDrops counts edges lost because the ISR queue was full.
func (b *Button) ISRDrops() uint32 { return atomic.LoadUint32(&b.drops) }

func (b *Button) logical(level bool) bool {
	if b.cfg.ActiveLow {
		return !level
	}
	return level
}

func (b *Button) handleISR(ev isrEvent, at time.Time) {
	if !b.lastEvent.IsZero() && at.Sub(b.lastEvent) < b.cfg.Debounce {
		return
	}
	down := b.logical(ev.level)
	if down == b.pressed {
		return
	}
	b.pressed = down
	b.lastEvent = at
	if down {
		return
	}

	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	b.log.Debug().Msg("click")
	if h != nil {
		h()
	}
}
