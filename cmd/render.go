package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/renderer"
	"github.com/conneroisu/ogcard/internal/templates"
)

var (
	renderOutput string
	renderSVG    bool
)

var renderCmd = &cobra.Command{
	Use:   "render site | render post <id>",
	Short: "Render a single image",
	Long: `Render one image and write it to a file or standard output.

Examples:
  ogcard render site -o site.webp    # Site image to a file
  ogcard render post hello-world     # Post image to stdout
  ogcard render post hello --svg     # Vector output for debugging`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("expected a variant: %s", templates.Variants())
		}
		switch args[0] {
		case templates.VariantSite:
			return cobra.ExactArgs(1)(cmd, args)
		case templates.VariantPost:
			if len(args) != 2 {
				return fmt.Errorf("render post requires exactly one post id")
			}
			return nil
		default:
			return errors.ErrUnknownVariant(args[0])
		}
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"format": "image.format"})
	},
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file (default stdout)")
	renderCmd.Flags().BoolVar(&renderSVG, "svg", false, "Write SVG instead of the raster format")
	renderCmd.Flags().String("format", "", "Image format (webp, jpeg, avif, png)")

	AddFlagValidation(renderCmd, "format", ValidateImageFormat)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}

	variant := args[0]
	params := renderer.SiteParams(a.cfg)
	if variant == templates.VariantPost {
		post, ok := a.registry.Get(args[1])
		if !ok {
			return errors.ErrPostNotFound(args[1])
		}
		params = renderer.PostParams(a.cfg, post)
	}

	var buf bytes.Buffer
	if renderSVG {
		if err := a.generator.RenderSVG(ctx, variant, params, &buf); err != nil {
			return err
		}
	} else {
		img, err := a.generator.Generate(ctx, variant, params)
		if err != nil {
			return err
		}
		buf.Write(img.Data)
	}

	return writeOutput(cmd.OutOrStdout(), renderOutput, buf.Bytes())
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewIOError(errors.ErrCodeWriteFailed, "failed to write output", err).WithFile(path)
	}
	return nil
}
