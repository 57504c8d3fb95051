// Package lamp is the GPIO-backed on/off actuator and its commands.
package lamp

import (
	"context"
	"sync"

	"voicebox-go/bus"
	"voicebox-go/errcode"
	"voicebox-go/services/board/core"
	"voicebox-go/services/command"
	"voicebox-go/types"

	"github.com/rs/zerolog"
)

const devID = "lamp"

// Command names.
const (
	CmdGetState = command.Namespace + ".lamp.get_state"
	CmdTurnOn   = command.Namespace + ".lamp.turn_on"
	CmdTurnOff  = command.Namespace + ".lamp.turn_off"
)

// TopicValue carries the retained types.LampState.
var TopicValue = bus.T("board", "lamp", "value")

// Lamp keeps the authoritative power state; the line has no readback. With
// Pin NC the state is still tracked and the commands still answer.
type Lamp struct {
	mu    sync.Mutex
	power bool
	pin   core.GPIOHandle // nil when not connected or closed
	reg   core.ResourceRegistry
	conn  *bus.Connection
	log   zerolog.Logger
}

// New drives the line low and registers the lamp commands. conn may be nil.
func New(reg core.ResourceRegistry, pin int, cmds *command.Registry, conn *bus.Connection, log zerolog.Logger) (*Lamp, error) {
	l := &Lamp{reg: reg, conn: conn, log: log.With().Str("component", "lamp").Logger()}
	if pin != core.NC {
		h, err := reg.ClaimPin(devID, pin)
		if err != nil {
			return nil, errcode.Wrap(errcode.Error, "lamp.claim", err)
		}
		if err := h.ConfigureOutput(false); err != nil {
			reg.ReleasePin(devID, pin)
			return nil, errcode.Wrap(errcode.Error, "lamp.configure", err)
		}
		l.pin = h
	}

	err := command.Register(cmds, CmdGetState, "Get the power state of the lamp",
		func(context.Context, command.NoParams) command.Result {
			return command.Object(l.State())
		})
	if err == nil {
		err = command.Register(cmds, CmdTurnOn, "Turn on the lamp",
			func(context.Context, command.NoParams) command.Result {
				l.Set(true)
				return command.Bool(true)
			})
	}
	if err == nil {
		err = command.Register(cmds, CmdTurnOff, "Turn off the lamp",
			func(context.Context, command.NoParams) command.Result {
				l.Set(false)
				return command.Bool(true)
			})
	}
	if err != nil {
		// Commands registered before the failure stay in the registry and
		// keep answering for this orphaned lamp; the line itself is freed.
		if l.pin != nil {
			l.mu.Lock()
			l.pin = nil
			l.mu.Unlock()
			reg.ReleasePin(devID, pin)
		}
		return nil, err
	}
	l.publish(false)
	return l, nil
}

func (l *Lamp) State() types.LampState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types.LampState{Power: l.power}
}

// Set updates the state, drives the line and publishes under one lock, so
// the level and the retained value always match the last accepted call.
func (l *Lamp) Set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.power = on
	if l.pin != nil {
		l.pin.Set(on)
	}
	l.publish(on)
	l.log.Info().Bool("power", on).Msg("lamp set")
}

// Close drives the line low and releases it. The commands stay registered
// and keep tracking state without a line.
func (l *Lamp) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pin == nil {
		return
	}
	l.pin.Set(false)
	l.reg.ReleasePin(devID, l.pin.Number())
	l.pin = nil
}

func (l *Lamp) publish(on bool) {
	if l.conn == nil {
		return
	}
	l.conn.Publish(l.conn.NewMessage(TopicValue, types.LampState{Power: on}, true))
}
