package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ogcard/internal/server"
	"github.com/conneroisu/ogcard/internal/templates"
	"github.com/conneroisu/ogcard/internal/types"
)

var (
	listFormat string
	listDrafts bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the images a build would produce",
	Long: `List the site image and every post image with its route.

Examples:
  ogcard list                  # Table
  ogcard list --format json    # JSON
  ogcard list --drafts         # Include draft posts`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json, yaml)")
	listCmd.Flags().BoolVar(&listDrafts, "drafts", false, "Include draft posts")

	AddFlagValidation(listCmd, "format", func(format string) error {
		return ValidateChoice(format, outputFormats)
	})
}

// ListEntry is one row of the listing.
type ListEntry struct {
	ID      string `json:"id" yaml:"id"`
	Variant string `json:"variant" yaml:"variant"`
	Title   string `json:"title" yaml:"title"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
	Draft   bool   `json:"draft,omitempty" yaml:"draft,omitempty"`
	Route   string `json:"route" yaml:"route"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}

	ext := a.cfg.Image.Extension()
	entries := []ListEntry{{
		ID:      "site",
		Variant: templates.VariantSite,
		Title:   a.cfg.Site.Title,
		Route:   server.SitePath(ext),
	}}

	posts := a.registry.Published()
	if listDrafts || a.cfg.Content.IncludeDrafts {
		posts = a.registry.All()
	}
	for _, post := range posts {
		entries = append(entries, postEntry(post, ext))
	}

	return writeList(cmd.OutOrStdout(), listFormat, entries)
}

func postEntry(post *types.Post, ext string) ListEntry {
	entry := ListEntry{
		ID:      post.ID,
		Variant: templates.VariantPost,
		Title:   post.Title,
		Draft:   post.Draft,
		Route:   server.PostPath(post.ID, ext),
		File:    post.FilePath,
	}
	if !post.Date.IsZero() {
		entry.Date = post.Date.Format("2006-01-02")
	}
	return entry
}

func writeList(w io.Writer, format string, entries []ListEntry) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entries)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tVARIANT\tDATE\tROUTE\tTITLE")
		for _, e := range entries {
			id := e.ID
			if e.Draft {
				id += " (draft)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", id, e.Variant, e.Date, e.Route, e.Title)
		}
		return tw.Flush()
	}
}
