package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ogcard/internal/build"
	"github.com/conneroisu/ogcard/internal/server"
	"github.com/conneroisu/ogcard/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild images when content changes",
	Long: `Build every image once, then watch the content directory and rebuild
whenever a post is added, changed or removed.

Examples:
  ogcard watch                 # Watch content.dir
  ogcard watch -o public/og    # Write into another directory`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"output": "output.dir",
			"drafts": "content.include_drafts",
		})
	},
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("output", "o", "", "Output directory")
	watchCmd.Flags().Bool("drafts", false, "Include draft posts")
	watchCmd.Flags().Duration("debounce", 300*time.Millisecond, "Delay before rebuilding after a change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}

	handler := server.NewImageHandler(a.generator, a.registry, a.logger)
	exporter := build.NewExporter(a.cfg, handler, a.registry, a.logger)

	rebuild := func(ctx context.Context) {
		report, err := exporter.Export(ctx)
		if report != nil {
			printBuildReport(cmd, report)
		}
		if err != nil && ctx.Err() == nil {
			a.logger.Error(ctx, err, "build failed")
		}
	}
	rebuild(ctx)

	delay, _ := cmd.Flags().GetDuration("debounce")
	fw, err := watcher.NewFileWatcher(delay, a.logger)
	if err != nil {
		return err
	}
	defer fw.Stop()

	fw.AddFilter(watcher.ExtensionFilter(a.cfg.Content.Extensions...))
	fw.AddFilter(watcher.NoHiddenFilter)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		for _, event := range events {
			if !a.scanner.IsContentFile(event.Path) {
				continue
			}
			if err := a.scanner.ScanFile(event.Path); err != nil {
				a.logger.Warn(ctx, err, "skipping post", "path", event.Path)
			}
		}
		a.logger.Info(ctx, "content changed, rebuilding", "changes", len(events))
		rebuild(ctx)
		return nil
	})

	if err := fw.AddRecursive(a.cfg.ResolvePath(a.cfg.Content.Dir)); err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	a.logger.Info(ctx, "watching for changes", "dir", a.cfg.Content.Dir)
	<-ctx.Done()
	return nil
}
