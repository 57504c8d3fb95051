package spibus

import (
	"errors"
	"testing"

	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
	"voicebox-go/services/board/platform"
)

func TestSettings(t *testing.T) {
	sc := Settings(Config{Host: "spi2", MOSI: 10, SCLK: 1, Width: 240, Height: 240})
	if sc.MaxTransferSize != 240*240*2 {
		t.Fatalf("MaxTransferSize = %d", sc.MaxTransferSize)
	}
	if sc.MISO != core.NC || sc.QuadWP != core.NC || sc.QuadHD != core.NC {
		t.Fatalf("unused lines should be NC: %+v", sc)
	}
	if sc.DMA != core.DMAAuto {
		t.Fatalf("DMA = %d, want auto", sc.DMA)
	}
}

func TestInitializeClaimsPins(t *testing.T) {
	reg := platform.NewHostRegistry(21)
	bus, err := Initialize(reg, Config{Host: "spi2", MOSI: 10, SCLK: 1, Width: 240, Height: 240})
	if err != nil {
		t.Fatal(err)
	}
	if bus.Config().MOSI != 10 {
		t.Fatalf("bus config = %+v", bus.Config())
	}
	for _, n := range []int{10, 1} {
		if owner, ok := reg.PinOwner(n); !ok || owner != devID {
			t.Errorf("pin %d owner = %q,%v", n, owner, ok)
		}
	}
}

func TestInitializeTwice(t *testing.T) {
	reg := platform.NewHostRegistry(21)
	cfg := Config{Host: "spi2", MOSI: 10, SCLK: 1, Width: 240, Height: 240}
	if _, err := Initialize(reg, cfg); err != nil {
		t.Fatal(err)
	}
	_, err := Initialize(reg, cfg)
	if errcode.Of(err) != errcode.BusClaimFailed {
		t.Fatalf("code = %v, want bus_claim_failed", errcode.Of(err))
	}
	if !errors.Is(err, errcode.BusInUse) {
		t.Fatalf("cause = %v, want bus_in_use", err)
	}
	if owner, ok := reg.PinOwner(10); !ok || owner != devID {
		t.Fatal("a rejected second bring-up must not release the live bus pins")
	}
}

func TestInitializePinConflict(t *testing.T) {
	reg := platform.NewHostRegistry(21)
	if _, err := reg.ClaimPin("someone", 1); err != nil {
		t.Fatal(err)
	}
	_, err := Initialize(reg, Config{Host: "spi2", MOSI: 10, SCLK: 1, Width: 240, Height: 240})
	if !errors.Is(err, errcode.PinInUse) {
		t.Fatalf("got %v, want pin_in_use", err)
	}
	if _, ok := reg.PinOwner(10); ok {
		t.Fatal("MOSI should be released after a failed bring-up")
	}
}

func TestReleaseFreesLines(t *testing.T) {
	reg := platform.NewHostRegistry(21)
	cfg := Config{Host: "spi2", MOSI: 10, SCLK: 1, Width: 240, Height: 240}
	if _, err := Initialize(reg, cfg); err != nil {
		t.Fatal(err)
	}
	Release(reg, cfg)
	for _, n := range []int{10, 1} {
		if _, ok := reg.PinOwner(n); ok {
			t.Errorf("pin %d still claimed", n)
		}
	}
}
