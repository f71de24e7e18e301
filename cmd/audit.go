package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ogcard/internal/audit"
	"github.com/conneroisu/ogcard/internal/validation"
)

var (
	auditSiteURL string
	auditFormat  string
)

var auditCmd = &cobra.Command{
	Use:   "audit <site-dir>",
	Short: "Check a built site for missing or broken Open Graph images",
	Long: `Scan every HTML page of a built site for og:image and twitter:image
tags and check that same-origin images exist in the output.

Exits non-zero when any page has an error-level issue.

Examples:
  ogcard audit public
  ogcard audit public --site-url https://example.com --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditSiteURL, "site-url", "", "Site URL (default site.url)")
	auditCmd.Flags().StringVarP(&auditFormat, "format", "f", "table", "Output format (table, json, yaml)")

	AddFlagValidation(auditCmd, "format", func(format string) error {
		return ValidateChoice(format, outputFormats)
	})
}

func runAudit(cmd *cobra.Command, args []string) error {
	if err := ValidateDirExists(args[0]); err != nil {
		return err
	}

	siteURL := auditSiteURL
	if siteURL == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		siteURL = cfg.Site.URL
	}

	if err := validation.ValidateSiteURL(siteURL); err != nil {
		return fmt.Errorf("invalid --site-url: %w", err)
	}

	report, err := audit.Run(args[0], siteURL)
	if err != nil {
		return err
	}

	if err := writeAudit(cmd.OutOrStdout(), auditFormat, report); err != nil {
		return err
	}
	if n := report.Errors(); n > 0 {
		return fmt.Errorf("audit found %d errors", n)
	}
	return nil
}

func writeAudit(w io.Writer, format string, report *audit.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	default:
		if len(report.Issues) == 0 {
			_, err := fmt.Fprintf(w, "%d pages checked, no issues\n", len(report.Pages))
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tPAGE\tKIND\tURL")
		for _, issue := range report.Issues {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Severity, issue.Page, issue.Kind, issue.URL)
		}
		fmt.Fprintf(tw, "\n%d pages checked, %d issues\n", len(report.Pages), len(report.Issues))
		return tw.Flush()
	}
}
