// Package ingress lists Ingress hosts and matches queried names against them.
package ingress

import (
	"regexp"
)

// Rule is one host rule of an Ingress.
type Rule struct {
	Ingress   string
	Namespace string

	// Host is nil when the rule carries no host.
	Host *string
}

var wildcard = regexp.MustCompile(`^\*\.([^*]+)$`)

// Match returns the candidates covered by rules, in encounter order of
// rules then candidates. A name is appended once per matching rule.
func Match(candidates []string, rules []Rule) []string {
	var confirmed []string

	for _, rule := range rules {
		if rule.Host == nil {
			continue
		}

		host := *rule.Host

		if contains(candidates, host) {
			confirmed = append(confirmed, host)
			continue
		}

		re := hostPattern(host)
		if re == nil {
			continue
		}

		for _, name := range candidates {
			if re.MatchString(name) {
				confirmed = append(confirmed, name)
			}
		}
	}

	return confirmed
}

// hostPattern returns the matcher for a "*.suffix" host, nil for literal hosts.
func hostPattern(host string) *regexp.Regexp {
	m := wildcard.FindStringSubmatch(host)
	if m == nil {
		return nil
	}

	return regexp.MustCompile(`[^*]+\.` + regexp.QuoteMeta(m[1]))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
