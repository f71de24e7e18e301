package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ogcard/internal/build"
	"github.com/conneroisu/ogcard/internal/server"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Write every image to the output directory",
	Long: `Render the site image and one image per published post by calling the
image route once per artifact, and write the results plus a manifest.

Every artifact is attempted; the command fails if any of them failed.

Examples:
  ogcard build                      # Build into output.dir
  ogcard build -o public/og         # Build into another directory
  ogcard build --format jpeg        # Override the image format
  ogcard build --clean --workers 4  # Start from an empty directory`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"output":  "output.dir",
			"format":  "image.format",
			"clean":   "output.clean",
			"workers": "build.workers",
			"drafts":  "content.include_drafts",
		})
	},
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("output", "o", "", "Output directory")
	buildCmd.Flags().String("format", "", "Image format (webp, jpeg, avif, png)")
	buildCmd.Flags().Bool("clean", false, "Remove the output directory first")
	buildCmd.Flags().Int("workers", 0, "Parallel workers (0 uses one per CPU)")
	buildCmd.Flags().Bool("drafts", false, "Include draft posts")

	AddFlagValidation(buildCmd, "format", ValidateImageFormat)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}

	handler := server.NewImageHandler(a.generator, a.registry, a.logger)
	exporter := build.NewExporter(a.cfg, handler, a.registry, a.logger)

	report, err := exporter.Export(ctx)
	if report != nil {
		printBuildReport(cmd, report)
	}
	return err
}

func printBuildReport(cmd *cobra.Command, report *build.Report) {
	out := cmd.OutOrStdout()
	stats := report.Stats

	fmt.Fprintf(out, "Built %d of %d images into %s (%s, %s)\n",
		stats.Succeeded, stats.Total, report.OutputDir,
		formatBytes(stats.Bytes), report.Duration.Round(time.Millisecond))
	for _, path := range report.Removed {
		fmt.Fprintf(out, "  removed %s\n", path)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed  %s: %s\n", failure.Artifact, failure.Message)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
