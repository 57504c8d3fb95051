package metrics_test

import (
	"context"
	"testing"

	"voicebox-go/services/command"
	"voicebox-go/services/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	n := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			n++
		}
	}
	return n == len(labels)
}

func TestCollectorObservesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	r := command.New(zerolog.Nop(), command.WithObserver(m))
	if err := command.Register(r, "self.lamp.turn_on", "", func(ctx context.Context, _ command.NoParams) command.Result {
		return command.Bool(true)
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.Call(context.Background(), "self.lamp.turn_on", nil)
	r.Call(context.Background(), "self.lamp.turn_on", nil)
	r.Call(context.Background(), "self.made.up", nil)
	r.Call(context.Background(), "self.also.made_up", nil)

	if got := counterValue(t, reg, "voicebox_command_calls_total", map[string]string{"command": "self.lamp.turn_on", "code": "ok"}); got != 2 {
		t.Fatalf("turn_on ok count = %v, want 2", got)
	}
	if got := counterValue(t, reg, "voicebox_command_calls_total", map[string]string{"command": "unknown", "code": "unknown_command"}); got != 2 {
		t.Fatalf("unknown count = %v, want 2", got)
	}
}

func TestClick(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	m.Click()
	if got := counterValue(t, reg, "voicebox_button_clicks_total", nil); got != 1 {
		t.Fatalf("clicks = %v, want 1", got)
	}
}
