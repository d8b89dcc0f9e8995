package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"xhsdl/pkg/config"
	"xhsdl/pkg/extractor"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
	"xhsdl/pkg/ui"
)

var (
	// Extract command flags
	noDownload  bool
	indexes     []int
	concurrency int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <url|text>...",
	Short: "Download the media of one or more posts",
	Long: `Resolve every post link found in the arguments and download its media.

Arguments may be post URLs, xhslink.com short links or any text that
contains them. Every configuration option can also be given as a flag;
flags override environment variables and the configuration file.`,
	Example: `  # Download a post
  xhsdl extract https://www.xiaohongshu.com/explore/67fc8571000000000b02ed97

  # Only fetch metadata
  xhsdl extract --no-download https://xhslink.com/a/AbCdEf

  # Download the first and third image as JPEG using Firefox cookies
  xhsdl extract --index 1,3 --image-format jpeg --read-cookie firefox <url>`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&noDownload, "no-download", false, "only fetch post metadata")
	extractCmd.Flags().IntSliceVar(&indexes, "index", nil, "1-based media ordinals to download (default: all)")
	extractCmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel downloads per post (default 4)")
	addOptionFlags(extractCmd)
}

// addOptionFlags registers one flag per configuration option
func addOptionFlags(cmd *cobra.Command) {
	for _, name := range config.OptionNames() {
		flag := optionFlag(name)
		usage := fmt.Sprintf("override the %s option", name)
		switch config.OptionKind(name) {
		case "int":
			cmd.Flags().Int(flag, 0, usage)
		case "bool":
			cmd.Flags().Bool(flag, false, usage)
		default:
			cmd.Flags().String(flag, "", usage)
		}
	}
}

// collectOptionFlags returns the options set on the command line
func collectOptionFlags(cmd *cobra.Command) (map[string]interface{}, error) {
	flags := baseFlags()
	for _, name := range config.OptionNames() {
		flag := optionFlag(name)
		if !cmd.Flags().Changed(flag) {
			continue
		}
		var value interface{}
		var err error
		switch config.OptionKind(name) {
		case "int":
			value, err = cmd.Flags().GetInt(flag)
		case "bool":
			value, err = cmd.Flags().GetBool(flag)
		default:
			value, err = cmd.Flags().GetString(flag)
		}
		if err != nil {
			return nil, err
		}
		flags[name] = value
	}
	return flags, nil
}

func optionFlag(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

func runExtract(cmd *cobra.Command, args []string) error {
	flags, err := collectOptionFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []extractor.Option
	if concurrency > 0 {
		opts = append(opts, extractor.WithConcurrency(concurrency))
	}
	ex, err := extractor.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := ex.Close(); err != nil {
			log.WithError(err).Warn("Failed to close extractor")
		}
	}()

	term := ui.New(cmd.OutOrStdout(), ex.Printer(), quiet)
	if noColor {
		term.SetColour(false)
	}
	for _, w := range ex.Warnings() {
		term.PrintWarning(w)
	}

	var results []*models.Result
	for _, arg := range args {
		for _, res := range ex.ExtractAll(ctx, arg, !noDownload, indexes) {
			term.PrintResult(res)
			results = append(results, res)
		}
		if ctx.Err() != nil {
			break
		}
	}

	tally := term.PrintSummary(results)
	if tally.Failed > 0 {
		return errSomeFailed
	}
	return nil
}
