package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "kairon",
	Short: "Kairon workflow tooling",
	Long:  "Kairon statically validates workflow documents before they reach the automation runtime: dead-code detection, reference checks, and ctx-convention linting.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("workflow-dir", "n8n-workflows", "Workflow project directory")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only show errors")

	_ = viper.BindPFlag("workflow_dir", rootCmd.PersistentFlags().Lookup("workflow-dir"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	viper.SetEnvPrefix("KAIRON")
	viper.AutomaticEnv()
}
