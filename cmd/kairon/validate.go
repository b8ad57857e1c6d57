package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chriskevini/kairon/lint"
)

var validateCmd = &cobra.Command{
	Use:   "validate [workflow.json]",
	Short: "Validate workflow documents",
	Long: "Validate one workflow document, or every document in the workflow directory when no path is given.\n\n" +
		"Exit codes:\n" +
		"  0 - all checks passed\n" +
		"  1 - errors found\n" +
		"  2 - warnings found and --strict requested",
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Treat warnings as failing for the exit code")
	validateCmd.Flags().Bool("fix", false, "Remove dead nodes and rewrite affected files")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	strict, _ := cmd.Flags().GetBool("strict")
	fix, _ := cmd.Flags().GetBool("fix")

	opts := lint.Options{
		WorkflowDir: viper.GetString("workflow_dir"),
		Fix:         fix,
	}

	runner, err := lint.NewRunner(opts)
	if err != nil {
		return fmt.Errorf("building workflow registry: %w", err)
	}

	reporter := &lint.Reporter{
		Out:   os.Stdout,
		Quiet: viper.GetBool("quiet"),
		Color: os.Getenv("NO_COLOR") == "",
	}

	var summary lint.Summary
	if len(args) == 1 {
		result, s := runner.RunFile(args[0])
		summary = s
		reporter.Report(result)
	} else {
		results, s := runner.Run()
		summary = s
		reporter.ReportAll(results, summary)
	}

	if code := summary.ExitCode(strict); code != 0 {
		os.Exit(code)
	}
	return nil
}
