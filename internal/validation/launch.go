package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ValidateLaunchURL checks a URL taken from a server response before it is
// handed to an external program. Only absolute http(s) URLs with a host pass;
// anything else could be read by the opener as a local path or a flag.
func ValidateLaunchURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("no URL to open")
	}
	if strings.HasPrefix(raw, "-") {
		return fmt.Errorf("refusing to open %q", raw)
	}
	if strings.IndexFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return fmt.Errorf("URL contains whitespace or control characters")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		if u.Scheme == "" {
			return fmt.Errorf("refusing to open relative URL %q", raw)
		}
		return fmt.Errorf("refusing to open %s URL", u.Scheme)
	}
	if u.Host == "" || u.Opaque != "" {
		return fmt.Errorf("URL must have a hostname")
	}
	if u.User != nil {
		return fmt.Errorf("URL must not contain credentials")
	}
	return nil
}
