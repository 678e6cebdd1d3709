package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "formflow",
	Short: "Multi-section form validation and navigation",
	Long: `formflow opens a record's multi-section form against a remote
validation backend. Sections are navigated interactively; leaving a section
runs its validation in the background, and a full-form master validation can
be triggered at any point. Error indicators follow the master result once one
exists.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("base-url", "", "validation service base URL")
	flags.String("auth-token", "", "bearer token for the validation service")
	flags.String("form", "", "form API name")
	flags.String("record", "", "record id")
	flags.String("parent-object", "", "parent object API name")
	flags.String("language", "", "language passed to hosted flows")
	flags.Bool("live", true, "run live section checks during navigation")
	flags.Bool("panel", false, "use the inline validation panel")
	flags.String("state-file", "", "persist session state to this file (in-memory when empty)")
	flags.Bool("verbose", false, "debug logging")

	must(viper.BindPFlags(flags))
}

func initConfig() {
	viper.SetConfigName("formflow")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetEnvPrefix("FORMFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Missing config files are fine; flags and env cover everything.
	_ = viper.ReadInConfig()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
