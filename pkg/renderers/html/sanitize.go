package html

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	alertPolicyOnce sync.Once
	alertPolicy     *bluemonday.Policy
)

// alertLines splits the blocking alert into one line per message. Lines are
// stripped of markup and HTML-escaped, so templates print them with |safe.
func alertLines(alerts []string) []string {
	var out []string
	policy := alertSanitizer()
	for _, alert := range alerts {
		for _, line := range strings.Split(alert, "\n") {
			cleaned := strings.TrimSpace(policy.Sanitize(strings.TrimSpace(line)))
			if cleaned == "" {
				continue
			}
			out = append(out, cleaned)
		}
	}
	return out
}

func alertSanitizer() *bluemonday.Policy {
	alertPolicyOnce.Do(func() {
		alertPolicy = bluemonday.StrictPolicy()
	})
	return alertPolicy
}
