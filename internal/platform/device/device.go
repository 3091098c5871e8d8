// Package device turns a User-Agent header into a display name stored on sessions.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const maxNameLength = 64

// Name returns "Browser on OS" (for example "Chrome on macOS"). Mobile
// agents report the platform instead of the OS.
func Name(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	where := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		where = ua.Platform()
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if where == "" {
		where = "Unknown OS"
	}

	name := strings.TrimSpace(browser + " on " + where)
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}
	return name
}
