package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"priorfit/adapters/excel"
	"priorfit/adapters/report"
	"priorfit/app"
	"priorfit/domain/prior"
	"priorfit/internal/config"
	"priorfit/internal/container"
	"priorfit/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "priorfit",
		Short:         "Calibrate prior distributions to put a target probability mass in an interval",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newCalibrateCmd(),
		newBatchCmd(),
		newFamiliesCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func newCalibrateCmd() *cobra.Command {
	var lower, upper, mass float64
	var initGuess, fixed string
	var asJSON, reuse bool

	cmd := &cobra.Command{
		Use:   "calibrate [family]",
		Short: "Find parameters of one family for an interval and mass",
		Long: `Find parameters of a distribution family so that the requested probability
mass lies between --lower and --upper.

Parameters listed in --init are optimized starting from the given values;
parameters in --fixed are held constant. Together they must cover every
parameter of the family, with one or two left free.

Example: priorfit calibrate Normal --lower 0 --upper 10 --mass 0.95 --init mu=5,sigma=3
Example: priorfit calibrate StudentT --lower -5 --upper 5 --init mu=0,sigma=1 --fixed nu=5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			free, err := excel.ParseParams(initGuess)
			if err != nil {
				return fmt.Errorf("--init: %w", err)
			}
			pinned, err := excel.ParseParams(fixed)
			if err != nil {
				return fmt.Errorf("--fixed: %w", err)
			}

			req := app.CalibrationRequest{
				Family:      args[0],
				Lower:       lower,
				Upper:       upper,
				InitGuess:   free,
				FixedParams: pinned,
				Reuse:       reuse,
			}
			if cmd.Flags().Changed("mass") {
				req.Mass = &mass
			}
			return runCalibrate(cmd.Context(), req, asJSON)
		},
	}

	cmd.Flags().Float64Var(&lower, "lower", 0, "Lower bound of the interval")
	cmd.Flags().Float64Var(&upper, "upper", 1, "Upper bound of the interval")
	cmd.Flags().Float64Var(&mass, "mass", prior.DefaultMass, "Probability mass to put in the interval (default from PRIOR_DEFAULT_MASS)")
	cmd.Flags().StringVar(&initGuess, "init", "", "Free parameters and starting values, e.g. mu=5,sigma=3")
	cmd.Flags().StringVar(&fixed, "fixed", "", "Parameters held constant, e.g. nu=5")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the calibration record as JSON")
	cmd.Flags().BoolVar(&reuse, "reuse", false, "Answer from history when an identical request already succeeded")
	_ = cmd.MarkFlagRequired("init")

	return cmd
}

func runCalibrate(ctx context.Context, req app.CalibrationRequest, asJSON bool) error {
	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	record, calErr := c.Calibrations.Calibrate(ctx, req)
	if asJSON && record != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record); err != nil {
			return err
		}
		return calErr
	}
	if calErr != nil {
		return calErr
	}

	printRecord(record)
	return nil
}

func printRecord(rec *models.CalibrationRecord) {
	fmt.Printf("%s on [%g, %g], target mass %.4g\n", rec.Family, rec.Lower, rec.Upper, rec.TargetMass)
	for _, p := range rec.Params {
		fmt.Printf("  %-8s %.6g\n", p.Name, p.Value)
	}
	if rec.AchievedMass != nil {
		fmt.Printf("achieved mass %.6f (%s jacobian, %d iterations)\n", *rec.AchievedMass, rec.Jacobian, rec.Iterations)
	}
	if rec.Cached {
		fmt.Printf("from history: calibration %s\n", rec.ID)
	}
	for _, d := range rec.Diagnostics {
		if d.Severity == prior.SeverityWarning {
			fmt.Fprintf(os.Stderr, "warning: %s\n", d.Message)
		}
	}
}

func newBatchCmd() *cobra.Command {
	var out, reportPath string

	cmd := &cobra.Command{
		Use:   "batch [requests.xlsx|requests.csv]",
		Short: "Calibrate every row of a workbook or CSV file",
		Long: `Calibrate every row of a request sheet. The sheet needs the columns
family, lower, upper and init_guess; mass and fixed_params are optional.
Parameter cells use the form "mu=5, sigma=3". A failing row never stops the batch.

Example: priorfit batch priors.xlsx --out results.xlsx --report report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), args[0], out, reportPath)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write results to this .xlsx workbook")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a report; .html renders HTML, anything else Markdown")

	return cmd
}

func runBatch(ctx context.Context, input, out, reportPath string) error {
	requests, err := excel.ReadRequests(input)
	if err != nil {
		return err
	}

	c, err := newContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Shutdown(ctx)

	result := c.Batches.Run(ctx, requests)
	fmt.Printf("batch %s: %d rows, %d succeeded (%d with warnings), %d failed\n",
		result.ID, len(result.Items), result.Succeeded, result.Warned, result.Failed)
	for _, item := range result.Items {
		if item.Err != nil {
			fmt.Fprintf(os.Stderr, "  row %d (%s): %v\n", item.Row, item.Request.Family, item.Err)
		}
	}

	if out != "" {
		if err := excel.WriteResultsFile(out, result); err != nil {
			return err
		}
	}

	if reportPath != "" {
		var content []byte
		if strings.EqualFold(filepath.Ext(reportPath), ".html") {
			content, err = report.HTML(result)
		} else {
			content, err = report.Markdown(result)
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportPath, content, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}

func newFamiliesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "families",
		Short: "List supported distribution families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			for _, info := range c.Registry.Describe() {
				jacobian := "numerical"
				if info.Analytic {
					jacobian = "analytic"
				}
				params := make([]string, len(info.Params))
				for i, spec := range info.Params {
					params[i] = spec.Name
				}
				line := fmt.Sprintf("%-12s %-22s %s", info.Name, strings.Join(params, ", "), jacobian)
				if len(info.Aliases) > 0 {
					line += "  (aka " + strings.Join(info.Aliases, ", ") + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the calibration history schema in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return fmt.Errorf("DATABASE_URL is required")
			}
			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			if err := c.Connect(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}
