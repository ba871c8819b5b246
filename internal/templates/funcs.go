package templates

import (
	"html/template"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var funcs = template.FuncMap{
	"join":      strings.Join,
	"linkLabel": linkLabel,
	"year":      year,
}

// linkLabel shortens a URL to its registrable domain for compact display,
// keeping the path for well-known profile hosts.
func linkLabel(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return ""
	}
	if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Hostname() == "" {
		return raw
	}
	host := parsed.Hostname()
	label := strings.TrimPrefix(host, "www.")
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		label = strings.TrimPrefix(etld, "www.")
	}
	switch label {
	case "github.com", "linkedin.com", "gitlab.com":
		if p := strings.Trim(parsed.Path, "/"); p != "" {
			return label + "/" + p
		}
	}
	return label
}

// year compacts an ISO-like date to its year.
func year(date string) string {
	date = strings.TrimSpace(date)
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}
