package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voicebox-go/errcode"

	"github.com/rs/zerolog"
)

type volumeParams struct {
	Level int
	Mute  bool
}

func (volumeParams) Schema() Schema {
	return Schema{IntRange("volume", 0, 100), BoolProp("mute").WithDefault(false)}
}

func (p *volumeParams) Bind(a Args) error {
	p.Level = a.Int("volume")
	p.Mute = a.Bool("mute")
	return nil
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	codes []errcode.Code
}

func (o *recordingObserver) CommandCalled(name string, res Result, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, name)
	o.codes = append(o.codes, res.Code())
}

func newTestRegistry(opts ...Option) *Registry { return New(zerolog.Nop(), opts...) }

func TestRegisterAndCall(t *testing.T) {
	r := newTestRegistry()
	err := Register(r, "self.speaker.ping", "Ping", func(ctx context.Context, _ NoParams) Result {
		return Text("pong")
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	res := r.Call(context.Background(), "self.speaker.ping", nil)
	if s, ok := res.AsText(); !ok || s != "pong" {
		t.Fatalf("Call() = %+v", res)
	}
}

func TestDuplicateNameRejectedFirstStays(t *testing.T) {
	r := newTestRegistry()
	first := func(ctx context.Context, _ NoParams) Result { return Int(1) }
	second := func(ctx context.Context, _ NoParams) Result { return Int(2) }

	if err := Register(r, "self.dup.cmd", "first", first); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := Register(r, "self.dup.cmd", "second", second)
	if errcode.Of(err) != errcode.DuplicateCommand {
		t.Fatalf("second Register err = %v, want duplicate_command", err)
	}
	if v, ok := r.Call(context.Background(), "self.dup.cmd", nil).AsInt(); !ok || v != 1 {
		t.Fatalf("first registration not active: %v,%v", v, ok)
	}
	if tools := r.Tools(); len(tools) != 1 || tools[0].Description != "first" {
		t.Fatalf("Tools() = %+v", tools)
	}
}

func TestValidName(t *testing.T) {
	cases := map[string]bool{
		"self.lamp.turn_on": true,
		"self.x":            true,
		"self":              false,
		"lamp.turn_on":      false,
		"self..turn_on":     false,
		"self.Lamp.on":      false,
		"self.lamp.on-off":  false,
	}
	for name, want := range cases {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}

	r := newTestRegistry()
	err := Register(r, "other.cmd", "", func(ctx context.Context, _ NoParams) Result { return Bool(true) })
	if errcode.Of(err) != errcode.InvalidName {
		t.Fatalf("err = %v, want invalid_name", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRegistry(WithObserver(obs))
	res := r.Call(context.Background(), "self.nope", nil)
	if !res.IsError() || res.Code() != errcode.UnknownCommand {
		t.Fatalf("Call() = %+v, want unknown_command", res)
	}
	if len(obs.calls) != 1 || obs.codes[0] != errcode.UnknownCommand {
		t.Fatalf("observer did not see the failure: %+v", obs)
	}
}

func TestTypedParams(t *testing.T) {
	r := newTestRegistry()
	var got volumeParams
	err := Register(r, "self.audio_speaker.set_volume", "Set volume", func(ctx context.Context, p volumeParams) Result {
		got = p
		return Bool(true)
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// JSON numbers arrive as float64.
	res := r.Call(context.Background(), "self.audio_speaker.set_volume", Args{"volume": float64(40)})
	if ok, _ := res.AsBool(); !ok {
		t.Fatalf("Call() = %+v", res)
	}
	if got.Level != 40 || got.Mute {
		t.Fatalf("bound params = %+v", got)
	}

	bad := []Args{
		nil,                                 // missing required
		{"volume": float64(101)},            // out of range
		{"volume": 4.5},                     // not integral
		{"volume": "loud"},                  // wrong type
		{"volume": float64(1), "extra": 1},  // unknown parameter
		{"volume": float64(1), "mute": "y"}, // wrong type for optional
	}
	for _, a := range bad {
		if res := r.Call(context.Background(), "self.audio_speaker.set_volume", a); res.Code() != errcode.InvalidParams {
			t.Errorf("args %v: code = %q, want invalid_params", a, res.Code())
		}
	}

	info := r.Tools()[0].InputSchema
	if info.Type != "object" || len(info.Required) != 1 || info.Required[0] != "volume" {
		t.Fatalf("InputSchema = %+v", info)
	}
	if v := info.Properties["volume"]; v.Type != "integer" || *v.Minimum != 0 || *v.Maximum != 100 {
		t.Fatalf("volume schema = %+v", v)
	}
}

func TestHandlerFailuresAreReported(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRegistry(WithObserver(obs))
	boom := errors.New("relay stuck")

	_ = Register(r, "self.t.fail", "", func(ctx context.Context, _ NoParams) Result { return Fail(boom) })
	_ = Register(r, "self.t.panic", "", func(ctx context.Context, _ NoParams) Result { panic("bad") })
	_ = Register(r, "self.t.empty", "", func(ctx context.Context, _ NoParams) Result { return Result{} })

	if res := r.Call(context.Background(), "self.t.fail", nil); !errors.Is(res.Err(), boom) {
		t.Fatalf("fail: %+v", res)
	}
	if res := r.Call(context.Background(), "self.t.panic", nil); res.Code() != errcode.HandlerPanic {
		t.Fatalf("panic: %+v", res)
	}
	if res := r.Call(context.Background(), "self.t.empty", nil); !res.IsError() {
		t.Fatalf("empty: %+v", res)
	}
	if len(obs.calls) != 3 {
		t.Fatalf("observer saw %d calls, want 3", len(obs.calls))
	}
}

func TestDefaultIsSingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default() returned different registries")
	}
}
