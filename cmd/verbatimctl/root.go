package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JaimeStill/verbatim/internal/catalog"
	"github.com/JaimeStill/verbatim/internal/client"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "verbatimctl",
	Short: "Control comment analysis runs on a verbatim server",
	Long: `verbatimctl starts, stops, resets, and monitors analysis runs.

A scope is a unit id, optionally narrowed with --survey.

Examples:
  verbatimctl start <unit-id>
  verbatimctl progress <unit-id> --survey <survey-id> --watch
  verbatimctl jobs list --status failed`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./verbatimctl.yaml or ~/.verbatim/verbatimctl.yaml)")
	flags.String("server", "http://localhost:8080/api", "API base URL")
	flags.StringP("output", "o", client.FormatYAML, "output format: yaml or json")
	flags.Duration("timeout", 30*time.Second, "request timeout")

	viper.BindPFlag("server", flags.Lookup("server"))
	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("timeout", flags.Lookup("timeout"))

	rootCmd.AddCommand(startCmd, stopCmd, resetCmd, progressCmd, summaryCmd, jobsCmd)
}

func initConfig() error {
	viper.SetEnvPrefix("VERBATIMCTL")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("verbatimctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.verbatim")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	switch viper.GetString("output") {
	case client.FormatYAML, client.FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", viper.GetString("output"))
	}
}

func newClient() *client.Client {
	return client.New(viper.GetString("server"), viper.GetDuration("timeout"))
}

func output(cmd *cobra.Command, data any) error {
	return client.Write(cmd.OutOrStdout(), viper.GetString("output"), data)
}

// scopeFlags adds --survey to a command that takes a unit id argument.
func scopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("survey", "", "narrow the scope to one survey")
}

func scopeFromArgs(cmd *cobra.Command, args []string) (catalog.Scope, error) {
	unitID, err := uuid.Parse(args[0])
	if err != nil {
		return catalog.Scope{}, fmt.Errorf("invalid unit id %q: %w", args[0], err)
	}

	scope := catalog.Scope{UnitID: unitID}

	raw, _ := cmd.Flags().GetString("survey")
	if raw != "" {
		surveyID, err := uuid.Parse(raw)
		if err != nil {
			return catalog.Scope{}, fmt.Errorf("invalid survey id %q: %w", raw, err)
		}
		scope.SurveyID = &surveyID
	}

	return scope, nil
}
