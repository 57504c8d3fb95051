package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"voicebox-go/services/board"
	"voicebox-go/services/board/platform"
	"voicebox-go/services/command"
	"voicebox-go/services/config"
	"voicebox-go/types"

	"github.com/rs/zerolog"
)

func newConsole(t *testing.T) (*console, *bytes.Buffer) {
	t.Helper()
	plan, err := config.Lookup("esp32c3-supermini")
	if err != nil {
		t.Fatal(err)
	}
	sim := newSimulation(zerolog.Nop())
	cmds := command.New(zerolog.Nop())
	reg := platform.NewHostRegistry(plan.MaxGPIO)
	brd, err := board.New(plan, board.Deps{
		Log: zerolog.Nop(), Reg: reg, Commands: cmds,
		App: sim, Wifi: sim, NetCfg: sim,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = brd.Close() })

	out := &bytes.Buffer{}
	return &console{
		log: zerolog.Nop(), sim: sim, cmds: cmds, reg: reg, plan: plan,
		audio: brd.AudioCodec, out: out,
	}, out
}

func TestConsoleScript(t *testing.T) {
	c, out := newConsole(t)
	script := strings.Join([]string{
		"call self.lamp.get_state",
		"call self.lamp.turn_on",
		"call self.lamp.get_state",
		"call self.nope",
		"audio",
		"quit",
		"call self.lamp.turn_off",
	}, "\n")
	if err := c.run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatal(err)
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{
		`{"power":false}`,
		`true`,
		`{"power":true}`,
	}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("line %d = %q, want %q (all: %q)", i, got[i], w, got)
		}
	}
	if !strings.Contains(got[3], "unknown_command") {
		t.Fatalf("unknown command line = %q", got[3])
	}
	if got[4] != "in 16000 Hz, out 24000 Hz" {
		t.Fatalf("audio line = %q", got[4])
	}
	if len(got) != 5 {
		t.Fatalf("commands after quit ran: %q", got)
	}
}

func TestConsoleStateAndWifi(t *testing.T) {
	c, _ := newConsole(t)
	c.exec(context.Background(), "state idle")
	c.exec(context.Background(), "wifi on")
	if c.sim.DeviceState() != types.DeviceStateIdle || !c.sim.IsConnected() {
		t.Fatalf("sim = %v/%v", c.sim.DeviceState(), c.sim.IsConnected())
	}
	c.sim.ToggleChatState()
	if c.sim.DeviceState() != types.DeviceStateListening {
		t.Fatalf("toggle from idle = %v", c.sim.DeviceState())
	}
}

func TestParseDeviceState(t *testing.T) {
	for _, name := range []string{"starting", "idle", "fatal_error"} {
		st, ok := parseDeviceState(name)
		if !ok || st.String() != name {
			t.Errorf("parseDeviceState(%q) = %v,%v", name, st, ok)
		}
	}
	if _, ok := parseDeviceState("bogus"); ok {
		t.Error("bogus state parsed")
	}
}
