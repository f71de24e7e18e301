// Package cmd provides the ogcard command-line interface.
//
// Configuration is read once per invocation with the following precedence:
//  1. Command-line flags (--log-level, --output, ...)
//  2. OGCARD_<SECTION>_<OPTION> environment variables
//  3. The configuration file: --config, else OGCARD_CONFIG_FILE, else
//     .ogcard.yml in the current directory
//  4. Built-in defaults
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/ogcard/internal/config"
)

var cfgFile string

// configErr holds a failure to read an explicitly requested config file.
var configErr error

var rootCmd = &cobra.Command{
	Use:   "ogcard",
	Short: "Generate Open Graph images at build time",
	Long: `ogcard renders Open Graph preview images for a site and each of its
posts from templates, fonts and frontmatter, and writes them out as static files.

Quick Start:
  ogcard validate                 Check the configuration and encoder options
  ogcard build                    Write every image to the output directory
  ogcard serve                    Preview images with live reload
  ogcard render post hello -o x   Render a single image`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configErr
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .ogcard.yml, can also use OGCARD_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	AddFlagValidation(rootCmd, "log-level", func(level string) error {
		return ValidateChoice(level, []string{"debug", "info", "warn", "warning", "error", "fatal"})
	})
}

// initConfig points viper at the configuration file and enables
// OGCARD_* overrides. A missing default file is not an error; a missing
// explicit one is.
func initConfig() {
	configErr = nil

	explicit := cfgFile
	if explicit == "" {
		explicit = os.Getenv("OGCARD_CONFIG_FILE")
	}

	if explicit != "" {
		viper.SetConfigFile(explicit)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ogcard")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && explicit == "" {
			return
		}
		configErr = fmt.Errorf("failed to read config file: %w", err)
	}
}
