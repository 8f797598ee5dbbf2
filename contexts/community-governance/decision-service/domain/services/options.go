package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const MinDecisionOptions = 2

// NormalizeOption is the comparison form of an option label.
func NormalizeOption(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// SanitizeOptions trims labels and drops empty entries, keeping order.
func SanitizeOptions(raw []string) []string {
	options := make([]string, 0, len(raw))
	for _, item := range raw {
		value := NormalizeOption(item)
		if value == "" {
			continue
		}
		options = append(options, value)
	}
	return options
}

// DuplicateOption returns the first label that repeats an earlier one.
func DuplicateOption(options []string) (string, bool) {
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		key := NormalizeOption(option)
		if _, ok := seen[key]; ok {
			return option, true
		}
		seen[key] = struct{}{}
	}
	return "", false
}

// MatchOption resolves a ballot selection to the stored option label.
func MatchOption(options []string, selected string) (string, bool) {
	target := NormalizeOption(selected)
	if target == "" {
		return "", false
	}
	for _, option := range options {
		if NormalizeOption(option) == target {
			return option, true
		}
	}
	return "", false
}
