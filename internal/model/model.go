// Package model defines the domain types used across the application.
package model

import "time"

// Listing is a single marketplace search result.
type Listing struct {
	ID            string
	Name          string
	Price         int64
	CreatedAt     time.Time
	ThumbnailURLs []string
}

// Cycle is the working state of one poll iteration.
type Cycle struct {
	Interval    time.Duration
	WindowStart time.Time
	Candidates  []Listing
	NewItems    []Listing
}

// IDs returns the identifiers of the given listings in order.
func IDs(listings []Listing) []string {
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	return ids
}

// RuleKind defines the type of a listing name rule.
type RuleKind string

// Supported rule kinds.
const (
	RuleInclude   RuleKind = "include"
	RuleExclude   RuleKind = "exclude"
	RuleIncludeRe RuleKind = "include_re"
	RuleExcludeRe RuleKind = "exclude_re"
)

// Rule is a single include/exclude rule matched against listing names.
type Rule struct {
	Kind  RuleKind
	Value string
}
