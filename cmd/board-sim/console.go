package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"voicebox-go/services/board/core"
	"voicebox-go/services/board/platform"
	"voicebox-go/services/command"
	"voicebox-go/services/config"
	"voicebox-go/types"

	"github.com/rs/zerolog"
)

// simulation stands in for the application, connectivity and network
// configuration collaborators.
type simulation struct {
	mu        sync.Mutex
	state     types.DeviceState
	connected bool
	log       zerolog.Logger
}

func newSimulation(log zerolog.Logger) *simulation {
	return &simulation{state: types.DeviceStateStarting, log: log.With().Str("component", "sim").Logger()}
}

func (s *simulation) DeviceState() types.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *simulation) ToggleChatState() {
	s.mu.Lock()
	switch s.state {
	case types.DeviceStateIdle:
		s.state = types.DeviceStateListening
	case types.DeviceStateListening, types.DeviceStateSpeaking:
		s.state = types.DeviceStateIdle
	}
	st := s.state
	s.mu.Unlock()
	s.log.Info().Str("state", st.String()).Msg("toggle chat state")
}

func (s *simulation) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *simulation) TriggerReconfiguration() {
	s.mu.Lock()
	s.state = types.DeviceStateWifiConfiguring
	s.mu.Unlock()
	s.log.Warn().Msg("network reconfiguration requested")
}

func (s *simulation) setState(st types.DeviceState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *simulation) setConnected(on bool) {
	s.mu.Lock()
	s.connected = on
	s.mu.Unlock()
}

func parseDeviceState(name string) (types.DeviceState, bool) {
	for st := types.DeviceStateUnknown; st <= types.DeviceStateFatalError; st++ {
		if st.String() == name {
			return st, true
		}
	}
	return types.DeviceStateUnknown, false
}

type console struct {
	log   zerolog.Logger
	sim   *simulation
	cmds  *command.Registry
	reg   *platform.HostRegistry
	plan  config.Plan
	audio func() (core.AudioCodec, error)
	out   io.Writer
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.exec(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (c *console) exec(ctx context.Context, line string) (quit bool) {
	verb, rest, _ := strings.Cut(line, " ")
	switch verb {
	case "":
	case "quit", "exit":
		return true
	case "click":
		c.click()
	case "list":
		raw, _ := json.MarshalIndent(c.cmds.Tools(), "", "  ")
		fmt.Fprintln(c.out, string(raw))
	case "call":
		c.call(ctx, rest)
	case "state":
		st, ok := parseDeviceState(strings.TrimSpace(rest))
		if !ok {
			fmt.Fprintln(c.out, "unknown state", rest)
			return false
		}
		c.sim.setState(st)
	case "wifi":
		c.sim.setConnected(strings.TrimSpace(rest) == "on")
	case "audio":
		codec, err := c.audio()
		if err != nil {
			fmt.Fprintln(c.out, "error:", err)
			return false
		}
		fmt.Fprintf(c.out, "in %d Hz, out %d Hz\n", codec.InputSampleRate(), codec.OutputSampleRate())
	default:
		fmt.Fprintln(c.out, "unknown command", verb)
	}
	return false
}

// click drives the button line through a press and release, holding it past
// the debounce window.
func (c *console) click() {
	bp := c.plan.Button
	pin, ok := c.reg.Pin(bp.Pin)
	if !ok {
		fmt.Fprintln(c.out, "button line not claimed")
		return
	}
	pressed := !bp.ActiveLow
	pin.Set(pressed)
	time.Sleep(time.Duration(bp.DebounceMs+10) * time.Millisecond)
	pin.Set(!pressed)
}

func (c *console) call(ctx context.Context, rest string) {
	name, rawArgs, _ := strings.Cut(strings.TrimSpace(rest), " ")
	var args command.Args
	if rawArgs = strings.TrimSpace(rawArgs); rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			fmt.Fprintln(c.out, "bad arguments:", err)
			return
		}
	}
	res := c.cmds.Call(ctx, name, args)
	text, err := res.Encode()
	if err != nil {
		fmt.Fprintf(c.out, "error (%s): %v\n", res.Code(), err)
		return
	}
	fmt.Fprintln(c.out, text)
}
