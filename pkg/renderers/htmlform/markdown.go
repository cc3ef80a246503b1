package htmlform

import (
	"strings"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/microcosm-cc/bluemonday"
)

var (
	hintPolicyOnce sync.Once
	hintPolicy     *bluemonday.Policy
)

// renderDescription converts a markdown description into sanitized HTML.
// Endpoint descriptors routinely carry links, emphasis and inline code;
// anything beyond user-generated-content basics is stripped.
func renderDescription(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	rendered := markdown.ToHTML([]byte(trimmed), nil, nil)
	cleaned := strings.TrimSpace(string(hintSanitizer().SanitizeBytes(rendered)))
	return cleaned
}

func hintSanitizer() *bluemonday.Policy {
	hintPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		hintPolicy = policy
	})
	return hintPolicy
}
