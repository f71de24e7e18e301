// Package validation checks user-supplied values that end up in URLs, file
// paths and rendered text.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateSiteURL checks a site's canonical URL: http or https, a host, and
// no query, fragment or embedded whitespace.
func ValidateSiteURL(rawURL string) error {
	if strings.ContainsAny(rawURL, " \t\r\n") {
		return fmt.Errorf("URL contains whitespace")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q (only http/https allowed)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("URL must not have a query or fragment")
	}

	return nil
}
