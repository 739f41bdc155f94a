package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"umbra-hq/umbra/pkg/cli"
	"umbra-hq/umbra/pkg/config"
)

var validateFlags struct {
	format         string
	printEffective bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check a configuration file without starting the proxy.

The validate command loads the file exactly the way run does, including
defaults and UMBRA_* environment overrides, and reports every field error in
one pass rather than stopping at the first.

Examples:
  # Validate the default config file
  umbra validate

  # Validate a specific file
  umbra validate --config /etc/umbra/config.yaml

  # Machine-readable report
  umbra validate --format json

  # Print the effective configuration after defaults and overrides
  umbra validate --print`,
	RunE: validateConfigFile,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json")
	validateCmd.Flags().BoolVar(&validateFlags.printEffective, "print", false, "print the effective configuration as YAML")
}

// validationReport is the result of checking one configuration file.
type validationReport struct {
	Path   string   `json:"path" yaml:"path"`
	Valid  bool     `json:"valid" yaml:"valid"`
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func validateConfigFile(cmd *cobra.Command, args []string) error {
	report := validationReport{Path: cfgFile}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	switch {
	case err == nil:
		report.Valid = true
	case isValidationError(err):
		var verr config.ValidationError
		errors.As(err, &verr)
		for _, fieldErr := range verr.Errors {
			report.Errors = append(report.Errors, fieldErr.Error())
		}
	default:
		// Unreadable or unparseable file; nothing field-level to report.
		return cli.NewConfigError(cfgFile, err)
	}

	if err := printReport(report); err != nil {
		return cli.NewCommandError("validate", err)
	}

	if !report.Valid {
		return cli.NewCommandError("validate", fmt.Errorf("%d field errors", len(report.Errors)))
	}

	if validateFlags.printEffective {
		fmt.Println()
		if err := cli.NewFormatter(cli.FormatYAML).FormatTo(os.Stdout, cfg); err != nil {
			return cli.NewCommandError("validate", err)
		}
	}

	return nil
}

func isValidationError(err error) bool {
	var verr config.ValidationError
	return errors.As(err, &verr)
}

func printReport(report validationReport) error {
	if validateFlags.format == string(cli.FormatJSON) {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, report)
	}

	if report.Valid {
		fmt.Printf("✓ %s is valid\n", report.Path)
		return nil
	}

	fmt.Printf("✗ %s failed validation:\n", report.Path)
	for _, msg := range report.Errors {
		fmt.Printf("  - %s\n", msg)
	}
	return nil
}
