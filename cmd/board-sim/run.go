package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicebox-go/bus"
	"voicebox-go/services/board"
	"voicebox-go/services/board/platform"
	"voicebox-go/services/command"
	"voicebox-go/services/config"
	"voicebox-go/services/heartbeat"
	"voicebox-go/services/metrics"
	"voicebox-go/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	runBoard       string
	runPlanFile    string
	runMetricsAddr string
	runHeartbeat   time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the board and start the console",
	RunE:  runSim,
}

func init() {
	runCmd.Flags().StringVar(&runBoard, "board", "esp32c3-supermini", "embedded board plan")
	runCmd.Flags().StringVar(&runPlanFile, "plan", "", "YAML file overriding keys of the board plan")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().DurationVar(&runHeartbeat, "heartbeat", heartbeat.DefaultInterval, "indicator blink interval")
}

func loadPlan() (config.Plan, error) {
	plan, err := config.Lookup(runBoard)
	if err != nil {
		return config.Plan{}, err
	}
	if runPlanFile == "" {
		return plan, nil
	}
	raw, err := os.ReadFile(runPlanFile)
	if err != nil {
		return config.Plan{}, err
	}
	return config.ParseOver(plan, raw)
}

func runSim(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	plan, err := loadPlan()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	promReg := prometheus.NewRegistry()
	col := metrics.NewWithRegistry(promReg)
	cmds := command.New(log, command.WithObserver(col))

	b := bus.NewBus(16)
	sim := newSimulation(log)
	reg := platform.NewHostRegistry(plan.MaxGPIO)

	brd, err := board.New(plan, board.Deps{
		Log:      log,
		Reg:      reg,
		Commands: cmds,
		Conn:     b.NewConnection("board"),
		App:      sim,
		Wifi:     sim,
		NetCfg:   sim,
		OnClick:  col.Click,
	})
	if err != nil {
		log.Error().Err(err).Msg("board construction failed")
		return err
	}
	defer func() {
		// Stop the heartbeat before the indicator line is released.
		stop()
		_ = brd.Close()
	}()
	brd.Start(ctx)

	hb := &heartbeat.Service{Interval: runHeartbeat, Indicator: brd.Indicator(), Log: log}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	go watchBus(ctx, b.NewConnection("monitor"), log)

	if runMetricsAddr != "" {
		srv := serveMetrics(runMetricsAddr, promReg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if _, ok := brd.Indicator().Get(); !ok {
		log.Info().Msg("board has no indicator")
	}

	con := &console{
		log:   log,
		sim:   sim,
		cmds:  cmds,
		reg:   reg,
		plan:  plan,
		audio: brd.AudioCodec,
		out:   cmd.OutOrStdout(),
	}
	return con.run(ctx, cmd.InOrStdin())
}

func serveMetrics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}

// watchBus logs board events.
func watchBus(ctx context.Context, conn *bus.Connection, log zerolog.Logger) {
	sub := conn.Subscribe(bus.T("board", "#"))
	defer conn.Disconnect()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			if m.Topic.String() == heartbeat.TopicTick.String() {
				continue
			}
			ev := log.Debug().Str("topic", m.Topic.String())
			switch p := m.Payload.(type) {
			case types.BoardState:
				ev.Str("level", string(p.Level)).Str("step", p.Step)
			case types.LampState:
				ev.Bool("power", p.Power)
			case types.ButtonClick:
				ev.Str("button", p.Name)
			}
			ev.Msg("event")
		}
	}
}
