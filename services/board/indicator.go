package board

import (
	"sync"

	"voicebox-go/services/board/core"
	"voicebox-go/x/opt"
)

const indicatorID = "indicator"

// initIndicator resolves the status LED last, after every other peripheral
// has claimed its lines. A line that is already owned, or reserved for the
// lazily built audio codec, is reported absent.
func (b *Board) initIndicator() error {
	pin := b.plan.Indicator.Pin
	b.indicator = opt.None[core.Indicator]()
	if pin == core.NC {
		return nil
	}
	if owner, taken := b.lineOwner(pin); taken {
		b.log.Info().Int("pin", pin).Str("owner", owner).Msg("indicator line in use, no indicator")
		return nil
	}
	h, err := b.deps.Reg.ClaimPin(indicatorID, pin)
	if err != nil {
		return err
	}
	if err := h.ConfigureOutput(false); err != nil {
		b.deps.Reg.ReleasePin(indicatorID, pin)
		return err
	}
	b.indicator = opt.Some[core.Indicator](&gpioIndicator{pin: h})
	b.closers = append(b.closers, func() error {
		h.Set(false)
		b.deps.Reg.ReleasePin(indicatorID, pin)
		return nil
	})
	return nil
}

// lineOwner reports who holds n now or will claim it later.
func (b *Board) lineOwner(n int) (string, bool) {
	if owner, taken := b.deps.Reg.PinOwner(n); taken {
		return owner, true
	}
	for _, a := range b.plan.Audio.AudioPins() {
		if a == n {
			return "audio", true
		}
	}
	return "", false
}

type gpioIndicator struct {
	mu  sync.Mutex
	pin core.GPIOHandle
	on  bool
}

func (g *gpioIndicator) Set(on bool) {
	g.mu.Lock()
	g.on = on
	g.pin.Set(on)
	g.mu.Unlock()
}

func (g *gpioIndicator) On() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}
