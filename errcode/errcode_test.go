package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]error{
		"pin_in_use":          PinInUse,
		"bus_in_use":          BusInUse,
		"duplicate_command":   DuplicateCommand,
		"unknown_command":     UnknownCommand,
		"invalid_params":      InvalidParams,
		"handler_already_set": HandlerSet,
	}
	for want, e := range cases {
		if e.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, e.Error())
		}
	}
}

func TestOf(t *testing.T) {
	cause := errors.New("spi host busy")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", PinInUse, PinInUse},
		{"wrapped E", &E{C: BusClaimFailed, Op: "spi_bus", Err: cause}, BusClaimFailed},
		{"generic E falls through", &E{C: Error, Err: UnknownPin}, UnknownPin},
		{"fmt wrapped", fmt.Errorf("ctx: %w", DuplicateCommand), DuplicateCommand},
		{"foreign", cause, Error},
	}
	for _, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Errorf("%s: Of() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEFormatsAndUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(PanelInitFailed, "panel.reset", cause)
	if got, want := err.Error(), "panel.reset: panel_init_failed: boom"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should reach the cause")
	}
	if Wrap(PanelInitFailed, "x", nil) != nil {
		t.Fatal("Wrap(nil) must be nil")
	}
}
