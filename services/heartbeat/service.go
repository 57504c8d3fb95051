// Package heartbeat blinks the status indicator and publishes a liveness
// tick on the bus.
package heartbeat

import (
	"context"
	"time"

	"voicebox-go/bus"
	"voicebox-go/services/board/core"
	"voicebox-go/x/opt"
	"voicebox-go/x/timex"

	"github.com/rs/zerolog"
)

var (
	TopicConfig = bus.T("config", "heartbeat")
	TopicTick   = bus.T("board", "heartbeat")
)

const DefaultInterval = time.Second

// Config is accepted on config/heartbeat, either as a Config value or as a
// decoded JSON object {"interval_ms": n}.
type Config struct {
	IntervalMs int `json:"interval_ms"`
}

// Tick is published on board/heartbeat.
type Tick struct {
	Seq uint64 `json:"seq"`
	TS  int64  `json:"ts_ms"`
}

type Service struct {
	Interval  time.Duration
	Indicator opt.Option[core.Indicator]
	Log       zerolog.Logger
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(TopicConfig)
	defer conn.Unsubscribe(cfgSub)

	iv := s.Interval
	if iv <= 0 {
		iv = DefaultInterval
	}
	tick := time.NewTicker(iv)
	defer tick.Stop()

	ind, hasInd := s.Indicator.Get()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			if hasInd {
				ind.Set(false)
			}
			s.Log.Debug().Msg("heartbeat stopping")
			return
		case <-tick.C:
			seq++
			if hasInd {
				ind.Set(!ind.On())
			}
			conn.Publish(conn.NewMessage(TopicTick, Tick{Seq: seq, TS: timex.NowMs()}, false))
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				s.Log.Debug().Msg("heartbeat connection closed")
				return
			}
			if d, ok := intervalFrom(msg.Payload); ok {
				tick.Reset(d)
				s.Log.Info().Dur("interval", d).Msg("heartbeat interval set")
			}
		}
	}
}

func intervalFrom(p any) (time.Duration, bool) {
	var ms int
	switch v := p.(type) {
	case Config:
		ms = v.IntervalMs
	case map[string]any:
		f, ok := v["interval_ms"].(float64)
		if !ok {
			return 0, false
		}
		ms = int(f)
	default:
		return 0, false
	}
	if ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
