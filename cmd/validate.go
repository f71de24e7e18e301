package cmd

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/raster"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, fonts and encoder options",
	Long: `Load the configuration and fonts and encode a one-pixel image with the
configured format, so that a bad option fails here instead of during a build.

Examples:
  ogcard validate
  ogcard validate --config site/.ogcard.yml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "configuration ok")

	fs, err := fonts.Load(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "fonts ok (%d faces, default %s)\n", fs.Len(), fs.DefaultFamily())

	if err := raster.Validate(cfg.Image); err != nil {
		return err
	}
	if _, err := raster.Encode(image.NewNRGBA(image.Rect(0, 0, 1, 1)), cfg.Image); err != nil {
		return err
	}
	fmt.Fprintf(out, "encoder ok (%s)\n", cfg.Image.Format)
	return nil
}
