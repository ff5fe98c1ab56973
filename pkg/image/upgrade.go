package image

import (
	"regexp"
	"strings"
)

// upgradeRule rewrites one thumbnail-URL pattern to its probable full-size
// equivalent. Rules are applied in order; literal rules use plain string
// replacement, regex rules a compiled expression.
type upgradeRule struct {
	literal     string
	re          *regexp.Regexp
	replacement string
}

// upgradeRules converts common thumbnail patterns to full-size equivalents.
// Best-effort heuristic: a valid full-size URL matching one of these tokens
// gets mangled, which is an accepted risk.
var upgradeRules = []upgradeRule{
	{literal: "-thumbnail", replacement: ""},
	{literal: "-thumb", replacement: ""},
	{literal: "-small", replacement: ""},
	{literal: "-medium", replacement: "-large"},
	{literal: "-150x150", replacement: ""},
	{literal: "-300x300", replacement: ""},
	{literal: "_thumbnail", replacement: ""},
	{literal: "_thumb", replacement: ""},
	{literal: "_small", replacement: ""},
	{literal: "_medium", replacement: "_large"},
	{literal: "/thumbnail/", replacement: "/full/"},
	{literal: "/thumb/", replacement: "/full/"},
	{literal: "/small/", replacement: "/large/"},
	{literal: "/thumbs/", replacement: "/images/"},
	{re: regexp.MustCompile(`resize=`), replacement: "original="},
	{re: regexp.MustCompile(`[?&]w=\d+`), replacement: ""},
	{re: regexp.MustCompile(`[?&]h=\d+`), replacement: ""},
	{re: regexp.MustCompile(`size=\w+`), replacement: "size=original"},
}

// doubleSlashRe collapses duplicate slashes outside the scheme separator
var doubleSlashRe = regexp.MustCompile(`([^:]/)/+`)

// Upgrade rewrites a thumbnail-pattern URL to a probable full-size
// equivalent. The query string is dropped entirely, then the ordered rule
// table is applied and duplicate slashes are collapsed. Idempotent: applying
// it to its own output yields the same string.
func Upgrade(u string) string {
	if u == "" {
		return u
	}

	// size hints usually live in the query string, drop it wholesale
	if idx := strings.Index(u, "?"); idx >= 0 {
		u = u[:idx]
	}

	for _, rule := range upgradeRules {
		if rule.re != nil {
			u = rule.re.ReplaceAllString(u, rule.replacement)
			continue
		}
		u = strings.ReplaceAll(u, rule.literal, rule.replacement)
	}

	return doubleSlashRe.ReplaceAllString(u, "$1")
}
