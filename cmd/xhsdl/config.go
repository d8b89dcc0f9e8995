package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xhsdl/pkg/config"
	"xhsdl/pkg/i18n"
	"xhsdl/pkg/ui"
)

const defaultConfigPath = ".xhsdl.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xhsdl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (XHSDL_*)
  - .env files
  - Configuration file (YAML or TOML)
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default options",
	Long: `Create a configuration file holding every option at its default value.

The file is created as '.xhsdl.yaml' in the current directory unless a
different path is given with --config. A path ending in .toml writes TOML.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration after merging all sources.

The cookie is masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load and validate the configuration.

This command checks:
  - File syntax and unknown options
  - Value types and ranges
  - Name format tokens
  - Proxy and language values
  - Whether the download folder can be created`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func newTerminal(cmd *cobra.Command, language string) *ui.Terminal {
	term := ui.New(cmd.OutOrStdout(), i18n.New(language), quiet)
	if noColor {
		term.SetColour(false)
	}
	return term
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}
	term := newTerminal(cmd, "")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	term.PrintSuccess("Configuration file created: " + configPath)
	term.PrintInfo("Next", "edit the file, then run 'xhsdl config validate'")
	return nil
}

// maskCookie keeps the first and last four characters
func maskCookie(cookie string) string {
	switch {
	case cookie == "":
		return ""
	case len(cookie) > 8:
		return cookie[:4] + "..." + cookie[len(cookie)-4:]
	default:
		return "***"
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, baseFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := *cfg
	display.Cookie = maskCookie(display.Cookie)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	term := newTerminal(cmd, cfg.Language)
	term.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, baseFlags())
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	term := newTerminal(cmd, cfg.Language)

	if err := os.MkdirAll(cfg.Root(), 0755); err != nil {
		return fmt.Errorf("cannot create download folder: %w", err)
	}

	var warnings []string
	if cfg.Cookie == "" && cfg.ReadCookie == "" {
		warnings = append(warnings, "no cookie configured, some posts may only be visible when logged in")
	}
	if !cfg.ImageDownload && !cfg.VideoDownload && !cfg.LiveDownload {
		warnings = append(warnings, "every download kind is disabled")
	}
	for _, w := range warnings {
		term.PrintWarning(w)
	}

	term.PrintSuccess("Configuration is valid")
	term.PrintInfo("Download folder", cfg.Root())
	term.PrintInfo("Name format", cfg.NameFormat)
	term.PrintInfo("Image format", cfg.ImageFormat)
	term.PrintInfo("Max retries", fmt.Sprintf("%d", cfg.MaxRetry))
	term.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
