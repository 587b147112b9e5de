package company

import (
	"regexp"
	"strings"
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugEdges   = regexp.MustCompile(`^-+|-+$`)
)

// Slugify normalizes a company name into a URL-safe token.
// "Test Company" -> "test-company".
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugEdges.ReplaceAllString(slug, "")
	if slug == "" {
		slug = "company"
	}
	return slug
}
