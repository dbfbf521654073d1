package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/plate_validator_go/internal/config"
	"github.com/user/plate_validator_go/internal/logging"
	"github.com/user/plate_validator_go/internal/validation"
)

var version = "1.0.0"

// errValidationFailed makes the process exit non-zero without printing twice.
var errValidationFailed = errors.New("validation failed")

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errValidationFailed) {
			fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "plate_validator",
		Short:         "Deployment acceptance checks for plate readers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || os.Getenv("NO_COLOR") != "" {
				color.NoColor = true
			}
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Configuration file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	return config.Load(path)
}

func newValidateCmd() *cobra.Command {
	var (
		req     validation.Request
		pdf     string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compare a measured run against its reference",
		Long: "Compare the WellResults spreadsheets of a measured folder with a reference folder,\n" +
			"analyze the hardware log and write the result tables under the measured folder.\n\n" +
			"Examples:\n" +
			"  plate_validator validate --measured run1 --reference ref --plate-type SC --compare-reference\n" +
			"  plate_validator validate --measured run1 --reference ref --plate-type GP --compare-reference --pdf",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := NewApp(cfg, logger, cmd.OutOrStdout())
			res, v, err := app.Validate(ctx, req, pdf)
			if err != nil {
				logger.Error("validation aborted", zap.Error(err))
				return err
			}
			app.printSummary(res, v)
			if !v.Passed {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.MeasuredDir, "measured", "m", "", "Folder of the run under validation")
	cmd.Flags().StringVarP(&req.ReferenceDir, "reference", "r", "", "Folder of the reference run")
	cmd.Flags().StringVarP(&req.PlateType, "plate-type", "p", "SC", "Plate type: SC (thin film) or GP (microdot)")
	cmd.Flags().BoolVar(&req.Options.CompareToReference, "compare-reference", false, "Run the regression against the reference")
	cmd.Flags().BoolVar(&req.Options.CompareEnzymaticToReference, "compare-enzymatic", false, "Compare the enzymatic routine against the reference")
	cmd.Flags().StringVar(&pdf, "pdf", "", "Write a PDF report to FILE (no value: results folder)")
	cmd.Flags().Lookup("pdf").NoOptDefVal = defaultPDF
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("measured")
	_ = cmd.MarkFlagRequired("reference")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
