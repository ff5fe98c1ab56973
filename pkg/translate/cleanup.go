package translate

import (
	"regexp"
	"strings"
)

// Models occasionally append English commentary after the Turkish summary
// despite the prompt. These rules chop trailing English sentences and
// clauses while leaving genuine Turkish text, crypto terms, and proper
// nouns alone.
var leakRules = []*regexp.Regexp{
	// complete English sentences following a Turkish one
	regexp.MustCompile(`\. [A-Z][a-z]+ (is|are|was|were|has|have|will|would|could|should|can|may|might|had|been|being)[^.]*\.`),
	regexp.MustCompile(`\. The [^.]*\.`),
	regexp.MustCompile(`\. This [^.]*\.`),
	regexp.MustCompile(`\. It [^.]*\.`),
	regexp.MustCompile(`\. According to [^.]*\.`),
	regexp.MustCompile(`\. In [^.]*\.`),
	regexp.MustCompile(`\. On [^.]*\.`),
	regexp.MustCompile(`\. At [^.]*\.`),
	regexp.MustCompile(`\. For [^.]*\.`),
	regexp.MustCompile(`\. With [^.]*\.`),
	regexp.MustCompile(`\. From [^.]*\.`),
	regexp.MustCompile(`\. By [^.]*\.`),
	regexp.MustCompile(`\. As [^.]*\.`),
	regexp.MustCompile(`\. However[^.]*\.`),
	regexp.MustCompile(`\. Additionally[^.]*\.`),
	regexp.MustCompile(`\. Furthermore[^.]*\.`),
	regexp.MustCompile(`\. Meanwhile[^.]*\.`),
	regexp.MustCompile(`\. Moreover[^.]*\.`),
}

// dangling English clauses at the very end, no closing period
var tailRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+(is|are|was|were|has|have|had|been|being)\s+[a-z][^.]*$`),
	regexp.MustCompile(`(?i)\s+(the|this|that|these|those|it|he|she|they)\s+[a-z][^.]*$`),
	regexp.MustCompile(`\s+[A-Z][a-z]+\s*$`),
}

var multiDotRe = regexp.MustCompile(`\.+`)

// CleanSummary strips English leakage from an LLM summary. Text that is
// already fully Turkish passes through unchanged.
func CleanSummary(s string) string {
	cleaned := strings.TrimSpace(s)
	for _, re := range leakRules {
		cleaned = re.ReplaceAllString(cleaned, ".")
	}
	for _, re := range tailRules {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = multiDotRe.ReplaceAllString(cleaned, ".")
	return strings.TrimSpace(cleaned)
}
