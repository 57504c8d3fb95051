// Package spibus brings up the SPI host that carries display traffic.
package spibus

import (
	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
)

const devID = "spi_bus"

// Config is the wiring of the SPI host. Width and Height size the largest
// transfer: one full 16-bit frame.
type Config struct {
	Host          string
	MOSI, SCLK    int
	Width, Height int16
}

// Settings expands the board wiring into the full host configuration. Lines the
// board does not use are NC and DMA channel selection is automatic.
func Settings(cfg Config) core.SPIConfig {
	return core.SPIConfig{
		Host:            cfg.Host,
		MOSI:            cfg.MOSI,
		MISO:            core.NC,
		SCLK:            cfg.SCLK,
		QuadWP:          core.NC,
		QuadHD:          core.NC,
		MaxTransferSize: int(cfg.Width) * int(cfg.Height) * 2,
		DMA:             core.DMAAuto,
	}
}

// Initialize claims the data and clock lines and initialises the host. It must
// run before any device attaches to the bus; a second call for the same host
// fails with errcode.BusInUse wrapped in errcode.BusClaimFailed.
func Initialize(reg core.ResourceRegistry, cfg Config) (core.SPIBus, error) {
	sc := Settings(cfg)
	var claimed []int
	release := func() {
		for _, n := range claimed {
			reg.ReleasePin(devID, n)
		}
	}
	for _, n := range []int{sc.MOSI, sc.SCLK} {
		if owner, held := reg.PinOwner(n); held && owner == devID {
			continue
		}
		if _, err := reg.ClaimPin(devID, n); err != nil {
			release()
			return nil, errcode.Wrap(errcode.BusClaimFailed, "spi_bus.claim", err)
		}
		claimed = append(claimed, n)
	}
	bus, err := reg.InitSPI(sc)
	if err != nil {
		release()
		return nil, errcode.Wrap(errcode.BusClaimFailed, "spi_bus.init", err)
	}
	return bus, nil
}

// Release gives back the data and clock lines. The host itself stays
// initialised; core has no teardown for it.
func Release(reg core.ResourceRegistry, cfg Config) {
	for _, n := range []int{cfg.MOSI, cfg.SCLK} {
		reg.ReleasePin(devID, n)
	}
}
