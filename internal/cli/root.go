package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paideia-dao/paideia-site/internal/config"
)

const programName = "paideia-site"

var (
	cfgFile   string
	logLevel  string
	logFormat string
	listen    string
	outputDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "Server and tooling for the Paideia marketing site.",
	Long: `paideia-site serves the Paideia landing and education pages.

Content (articles, FAQ) and the PAI token price are fetched from the upstream
APIs, kept in a stale-while-revalidate cache and rendered server-side. The
same pipeline backs the one-shot commands that print content to the terminal
or export the pages as static files.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCommand exposes the command tree to tests.
func RootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /etc/paideia-site/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(serveCmd, priceCmd, articlesCmd, faqCmd, exportCmd, versionCmd)
}

// InitConfigWithError loads the config file when one is given, applies the
// environment overrides and then the command line flags.
func InitConfigWithError() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if cfgFile != "" {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		return config.Config{}, err
	}

	builder := &cfg
	if logLevel != "" || logFormat != "" {
		level, format := cfg.LogLevel(), cfg.LogFormat()
		if logLevel != "" {
			level = logLevel
		}
		if logFormat != "" {
			format = logFormat
		}
		builder = builder.WithLogging(level, format)
	}
	if listen != "" {
		builder = builder.WithListenAddr(listen)
	}
	if outputDir != "" {
		builder = builder.WithOutputDir(outputDir)
	}
	return builder.Build()
}

func ResetFlags() {
	cfgFile = ""
	logLevel = ""
	logFormat = ""
	listen = ""
	outputDir = ""
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetListenForTest(addr string) {
	listen = addr
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}
