package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/ogcard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Preview images with live reload",
	Long: `Start a preview server that renders images on request, lists every card
with its Open Graph tags, and reloads the page when content changes.

Examples:
  ogcard serve                 # Serve on server.host:server.port
  ogcard serve -p 3000         # Serve on another port
  ogcard serve --drafts        # Include draft posts`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{
			"port":   "server.port",
			"host":   "server.host",
			"drafts": "content.include_drafts",
		})
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("drafts", false, "Include draft posts")

	AddFlagValidation(serveCmd, "port", ValidatePort)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}

	return server.New(a.generator, a.scanner, a.logger).Start(ctx)
}
