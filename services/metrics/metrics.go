// Package metrics provides Prometheus metrics for the board's command
// surface.
package metrics

import (
	"time"

	"voicebox-go/errcode"
	"voicebox-go/services/command"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the board.
type Collector struct {
	CommandCalls    *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ButtonClicks    prometheus.Counter
}

// New registers the collector on the default Prometheus registry.
func New() *Collector { return NewWithRegistry(prometheus.DefaultRegisterer) }

// NewWithRegistry registers the collector on reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	c := &Collector{
		CommandCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicebox",
				Name:      "command_calls_total",
				Help:      "Command invocations by command and result code",
			},
			[]string{"command", "code"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "voicebox",
				Name:      "command_duration_seconds",
				Help:      "Command handler duration in seconds",
				Buckets:   []float64{.00001, .0001, .001, .01, .1},
			},
			[]string{"command"},
		),
		ButtonClicks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "voicebox",
				Name:      "button_clicks_total",
				Help:      "Debounced button clicks",
			},
		),
	}
	reg.MustRegister(c.CommandCalls, c.CommandDuration, c.ButtonClicks)
	return c
}

var _ command.Observer = (*Collector)(nil)

// CommandCalled implements command.Observer. Unknown names share one label
// value so remote callers cannot grow the series set.
func (c *Collector) CommandCalled(name string, res command.Result, took time.Duration) {
	code := res.Code()
	if code == errcode.UnknownCommand {
		name = "unknown"
	}
	c.CommandCalls.WithLabelValues(name, string(code)).Inc()
	c.CommandDuration.WithLabelValues(name).Observe(took.Seconds())
}

// Click counts one button click.
func (c *Collector) Click() { c.ButtonClicks.Inc() }
