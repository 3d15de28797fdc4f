// Command evapotranspiration evaluates the Priestley-Taylor chain for one record and prints the result.
// With no flags it evaluates the built-in demo record.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/evapotranspiration-service/internal/config"
	"github.com/kjstillabower/evapotranspiration-service/internal/models"
	"github.com/kjstillabower/evapotranspiration-service/internal/observability"
	"github.com/kjstillabower/evapotranspiration-service/internal/service"
	"github.com/kjstillabower/evapotranspiration-service/internal/validation"
)

type options struct {
	configPath string
	strict     bool
	breakdown  bool
	values     map[string]*float64
}

// flagName maps a record field to its flag, e.g. air_temperature -> air-temperature.
func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

func newRootCmd(stdout, stderr io.Writer, logger *zap.Logger) *cobra.Command {
	opts := &options{values: make(map[string]*float64, len(models.FieldNames))}
	cmd := &cobra.Command{
		Use:           "evapotranspiration",
		Short:         "evaluate Priestley-Taylor evapotranspiration for one record",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts, stdout, logger)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	demo := models.InputFromRecord(models.DemoRecord())
	for _, field := range models.FieldNames {
		def, _ := demo.Get(field)
		opts.values[field] = cmd.Flags().Float64(flagName(field), def, "override "+field+" of the demo record")
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML config whose demo and validation sections replace the built-in ones")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "reject physically implausible inputs (e.g. albedo outside [0,1])")
	cmd.Flags().BoolVar(&opts.breakdown, "breakdown", false, "print every intermediate term")
	return cmd
}

func run(cmd *cobra.Command, opts *options, stdout io.Writer, logger *zap.Logger) error {
	base := models.DemoRecord()
	var rules validation.Rules
	if opts.configPath != "" {
		cfg, err := config.LoadFile(opts.configPath)
		if err != nil {
			return err
		}
		base = cfg.Demo
		rules = cfg.Validation
		logger.Debug("config loaded", zap.String("path", opts.configPath))
	}
	if opts.strict {
		rules.PhysicalRanges = true
	}

	var overrides models.Input
	for _, field := range models.FieldNames {
		if cmd.Flags().Changed(flagName(field)) {
			overrides.Set(field, *opts.values[field])
		}
	}
	in := models.InputFromRecord(base).Merge(overrides)

	ctx := observability.WithLogger(context.Background(), logger)
	result, err := service.NewCalculatorService(nil, 0, rules).Calculate(ctx, in)
	if err != nil {
		return err
	}

	if !opts.breakdown {
		fmt.Fprintln(stdout, result.Evapotranspiration)
		return nil
	}
	fmt.Fprintf(stdout, "net_short_wave_radiation %v\n", result.NetShortWaveRadiation)
	fmt.Fprintf(stdout, "incoming_long_wave_radiation %v\n", result.IncomingLongWaveRadiation)
	fmt.Fprintf(stdout, "net_radiation %v\n", result.NetRadiation)
	fmt.Fprintf(stdout, "soil_heat_flux %v\n", result.SoilHeatFlux)
	fmt.Fprintf(stdout, "slope_of_saturated_vapor_pressure %v\n", result.SlopeOfSaturatedVaporPressure)
	fmt.Fprintf(stdout, "psychrometric_constant %v\n", result.PsychrometricConstant)
	fmt.Fprintf(stdout, "evapotranspiration %v\n", result.Evapotranspiration)
	return nil
}

// execute runs the command with args and returns the process exit code. Errors are logged to
// stderr; stdout carries only results.
func execute(args []string, stdout, stderr io.Writer) int {
	logger := observability.NewLoggerTo(stderr, os.Getenv("LOG_LEVEL"), "warn")
	defer func() { _ = observability.FlushTelemetry(context.Background(), logger) }()

	cmd := newRootCmd(stdout, stderr, logger)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		logger.Error("evapotranspiration failed", zap.Error(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
