// Package audio provides the duplex codec built from two simplex I2S
// endpoints: a speaker amplifier and a microphone on separate pins.
package audio

import (
	"errors"
	"sync"

	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
)

const devID = "audio"

type Config struct {
	InputRate, OutputRate uint32
	Speaker               core.I2STxConfig // SampleRate is taken from OutputRate
	Mic                   core.I2SRxConfig // SampleRate is taken from InputRate
}

// Duplex implements core.AudioCodec. Rates and pins are fixed at
// construction.
type Duplex struct {
	mu  sync.Mutex
	cfg Config
	tx  core.I2STx
	rx  core.I2SRx

	reg  core.ResourceRegistry
	pins []int

	inOn, outOn bool
}

var _ core.AudioCodec = (*Duplex)(nil)

// New claims the six I2S lines and opens both endpoints. On failure every
// resource acquired so far is released.
func New(reg core.ResourceRegistry, cfg Config) (*Duplex, error) {
	cfg.Speaker.SampleRate = cfg.OutputRate
	cfg.Mic.SampleRate = cfg.InputRate

	pins := []int{
		cfg.Speaker.BCLK, cfg.Speaker.WS, cfg.Speaker.DOUT,
		cfg.Mic.SCK, cfg.Mic.WS, cfg.Mic.DIN,
	}
	var claimed []int
	release := func() {
		for _, n := range claimed {
			reg.ReleasePin(devID, n)
		}
	}
	for _, n := range pins {
		if _, err := reg.ClaimPin(devID, n); err != nil {
			release()
			return nil, errcode.Wrap(errcode.AudioInitFailed, "audio.claim", err)
		}
		claimed = append(claimed, n)
	}

	tx, err := reg.NewI2STx(cfg.Speaker)
	if err != nil {
		release()
		return nil, errcode.Wrap(errcode.AudioInitFailed, "audio.speaker", err)
	}
	rx, err := reg.NewI2SRx(cfg.Mic)
	if err != nil {
		_ = tx.Close()
		release()
		return nil, errcode.Wrap(errcode.AudioInitFailed, "audio.mic", err)
	}
	return &Duplex{cfg: cfg, tx: tx, rx: rx, reg: reg, pins: claimed}, nil
}

func (d *Duplex) InputSampleRate() uint32  { return d.cfg.InputRate }
func (d *Duplex) OutputSampleRate() uint32 { return d.cfg.OutputRate }

// Pins reports the wiring the codec was built with.
func (d *Duplex) Pins() (speaker core.I2STxConfig, mic core.I2SRxConfig) {
	return d.cfg.Speaker, d.cfg.Mic
}

func (d *Duplex) EnableInput(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inOn == on {
		return nil
	}
	if err := d.rx.Enable(on); err != nil {
		return err
	}
	d.inOn = on
	return nil
}

func (d *Duplex) EnableOutput(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.outOn == on {
		return nil
	}
	if err := d.tx.Enable(on); err != nil {
		return err
	}
	d.outOn = on
	return nil
}

// Read fills dst with microphone samples. Input must be enabled.
func (d *Duplex) Read(dst []int16) (int, error) {
	d.mu.Lock()
	on := d.inOn
	d.mu.Unlock()
	if !on {
		return 0, errcode.Busy
	}
	return d.rx.Read(dst)
}

// Write queues src for the speaker. Output must be enabled.
func (d *Duplex) Write(src []int16) (int, error) {
	d.mu.Lock()
	on := d.outOn
	d.mu.Unlock()
	if !on {
		return 0, errcode.Busy
	}
	return d.tx.Write(src)
}

// Close shuts both endpoints and releases the six lines. Reads and writes
// fail with errcode.Busy afterwards.
func (d *Duplex) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pins == nil {
		return nil
	}
	d.inOn, d.outOn = false, false
	err := errors.Join(d.tx.Close(), d.rx.Close())
	for _, n := range d.pins {
		d.reg.ReleasePin(devID, n)
	}
	d.pins = nil
	return err
}
