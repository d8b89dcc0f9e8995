package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"xhsdl/pkg/config"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/record"
	"xhsdl/pkg/xhs"
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage download records",
}

// deleteCmd represents the record delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id|url>...",
	Short: "Forget downloaded posts so they are downloaded again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecordDelete,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.AddCommand(deleteCmd)
}

// postID accepts a bare id or a full post link
func postID(arg string) string {
	if link, err := xhs.ParseLink(arg); err == nil && link.ID != "" {
		return link.ID
	}
	return arg
}

func runRecordDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, baseFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := record.Open(ctx, record.Options{
		Root:           cfg.Root(),
		DownloadRecord: true,
		RecordData:     cfg.RecordData,
	}, logger.GetLogger())
	if err != nil {
		return err
	}

	term := newTerminal(cmd, cfg.Language)
	for _, arg := range args {
		id := postID(arg)
		if err := store.Delete(ctx, id); err != nil {
			store.Close()
			return fmt.Errorf("failed to delete record %s: %w", id, err)
		}
		term.PrintSuccess("Deleted record " + id)
	}
	return store.Close()
}
