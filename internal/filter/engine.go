// Package filter implements listing selection: the freshness window, the
// entry cap and the name rule engine.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"mercari_watch/internal/model"
)

// Match checks whether a listing name passes the given set of rules.
// If no rules are provided, the name always passes.
// Include rules use OR logic (at least one must match).
// Exclude rules use AND logic (none must match).
func Match(name string, rules []model.Rule) bool {
	if len(rules) == 0 {
		return true
	}

	text := strings.ToLower(name)
	hasIncludes := false
	anyIncludeMatched := false

	for _, r := range rules {
		switch r.Kind {
		case model.RuleInclude, model.RuleIncludeRe:
			hasIncludes = true
			if matchesRule(text, r) {
				anyIncludeMatched = true
			}
		case model.RuleExclude, model.RuleExcludeRe:
			if matchesRule(text, r) {
				return false
			}
		}
	}

	if hasIncludes && !anyIncludeMatched {
		return false
	}
	return true
}

// Apply returns the listings whose names pass rules, preserving order.
func Apply(listings []model.Listing, rules []model.Rule) []model.Listing {
	if len(rules) == 0 {
		return listings
	}
	var out []model.Listing
	for _, l := range listings {
		if Match(l.Name, rules) {
			out = append(out, l)
		}
	}
	return out
}

func matchesRule(text string, r model.Rule) bool {
	switch r.Kind {
	case model.RuleInclude, model.RuleExclude:
		return strings.Contains(text, strings.ToLower(r.Value))
	case model.RuleIncludeRe, model.RuleExcludeRe:
		re, err := regexp.Compile("(?i)" + r.Value)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return nil
}
