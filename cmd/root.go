// Package cmd provides the command-line interface for hbsbuild with
// configuration management supporting multiple configuration sources.
//
// Configuration precedence, highest first:
//  1. Command-line flags (--entry, --output-dir, ...)
//  2. HBSBUILD_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (HBSBUILD_BUILD_ENTRY, ...)
//  4. Configuration file (.hbsbuild.yml)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hbsbuild",
	Short: "Incremental Handlebars template builder",
	Long: `hbsbuild renders Handlebars entry templates into HTML, tracking the
template, partial, helper and data files each build consumes so that
watch-mode rebuilds are skipped when nothing relevant changed.

Quick Start:
  hbsbuild build                  Render all entry templates once
  hbsbuild watch                  Rebuild on file changes
  hbsbuild config                 Print the effective configuration
  hbsbuild version                Show version information`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .hbsbuild.yml, can also use HBSBUILD_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig wires the configuration sources. A missing config file is
// not an error; defaults and flags still apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("HBSBUILD_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hbsbuild")
	}

	viper.SetEnvPrefix("HBSBUILD")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
