package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fortressi/saga"
	"github.com/fortressi/saga/internal/checkout"
	"github.com/fortressi/saga/internal/config"
	"github.com/fortressi/saga/internal/logging"
	"github.com/fortressi/saga/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("checkout", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(viper.New(), fs)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.Service, stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	services := checkout.NewMemoryServices(logger, cfg.StockLevels())
	registry := saga.NewStepRegistry()
	if err := checkout.Register(registry, services, cfg.Order); err != nil {
		logger.Error().Err(err).Msg("failed to register steps")
		return 1
	}

	names := make([]saga.StepName, len(cfg.Steps))
	for i, s := range cfg.Steps {
		names[i] = saga.StepName(s)
	}
	steps, err := registry.Build(names...)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build steps")
		return 1
	}

	promRegistry := prometheus.NewRegistry()
	recorder, err := metrics.New(promRegistry, cfg.Service)
	if err != nil {
		logger.Error().Err(err).Msg("failed to register metrics")
		return 1
	}

	orchestrator, err := saga.NewOrchestrator(steps,
		saga.WithName(cfg.Service),
		saga.WithLogger(logger),
		saga.WithHooks(recorder.Hooks()),
		saga.WithFaultInjector(faultsFor(cfg.Faults)),
	)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create orchestrator")
		return 1
	}

	if cfg.Plan {
		dot, err := orchestrator.Plan().ExportToDot()
		if err != nil {
			logger.Error().Err(err).Msg("failed to export plan")
			return 1
		}
		fmt.Fprintln(stdout, dot)
		return 0
	}

	logger.Info().Stringer("order", cfg.Order).Msg("starting checkout")
	outcome, execErr := orchestrator.Execute(ctx)

	code := 0
	if execErr != nil {
		fmt.Fprintf(stdout, "Checkout failed: %v\n", execErr)
		code = 1
	} else {
		fmt.Fprintln(stdout, "Checkout completed successfully!")
	}
	if outcome != nil {
		printOutcome(stdout, outcome)
	}

	if cfg.Metrics {
		if err := dumpMetrics(stdout, promRegistry); err != nil {
			logger.Error().Err(err).Msg("failed to write metrics")
			return 1
		}
	}
	return code
}

func faultsFor(cfg config.Faults) saga.FaultInjector {
	if cfg.Rate > 0 {
		return saga.NewRandomFaults(cfg.Rate, cfg.Seed)
	}
	faults := &saga.Faults{}
	if cfg.FailStep != "" {
		faults.ExecuteSteps = append(faults.ExecuteSteps, saga.StepName(cfg.FailStep))
	}
	for _, s := range cfg.FailCompensation {
		faults.FailCompensationOf(saga.StepName(s))
	}
	return faults
}

func printOutcome(w io.Writer, outcome *saga.Outcome) {
	fmt.Fprintf(w, "Saga %s: %s in %s\n", outcome.SagaID, outcome.Status, outcome.Duration)
	for _, step := range outcome.Context.Steps() {
		for _, key := range outcome.Context.Keys(step) {
			value, _ := outcome.Context.Get(step, key)
			fmt.Fprintf(w, "  %s.%s = %v\n", step, key, value)
		}
	}
	if compensated := outcome.CompensationOrder(); len(compensated) > 0 {
		fmt.Fprintf(w, "  compensated: %v\n", compensated)
	}
}

func dumpMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
