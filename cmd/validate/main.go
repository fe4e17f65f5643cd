package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-validation/internal/validation"
	"github.com/rxtech-lab/argo-validation/internal/version"
)

// runAction loads the config, prices and signals, runs the validation
// pipeline and prints the rendered report.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configData, err := os.ReadFile(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	prices, err := LoadPriceCSV(cmd.String("data"))
	if err != nil {
		return err
	}

	signals, err := LoadSignalCSV(cmd.String("signals"))
	if err != nil {
		return err
	}

	engine := validation.NewEngine()
	if err := engine.Initialize(string(configData)); err != nil {
		return fmt.Errorf("failed to initialize validation engine: %w", err)
	}

	report, err := engine.Run(ctx, prices, signalFuncFromSeries(signals))
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Print(validation.RenderReport(report))

	if output := cmd.String("output"); output != "" {
		if err := validation.WriteReport(output, report); err != nil {
			return err
		}

		log.Printf("Report written to %s", output)
	}

	return nil
}

// schemaAction prints the JSON schema of the validation configuration.
func schemaAction(_ context.Context, _ *cli.Command) error {
	engine := validation.NewEngine()

	schema, err := engine.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "validate",
		Usage:   "Run trading-strategy validation: backtest, walk-forward, Monte Carlo",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the validation pipeline on a price and signal file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML validation config",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the price CSV (timestamp,open,high,low,close,volume)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "signals",
						Aliases:  []string{"s"},
						Usage:    "Path to the signal CSV (timestamp,action,strength)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Optional path to write the full YAML report to",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the validation config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
