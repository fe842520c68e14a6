package model

import (
	"fmt"
	"strings"
)

// TagMode selects the set operation applied to a record's tags.
type TagMode string

const (
	TagModeReset  TagMode = "RESET"
	TagModeMerge  TagMode = "MERGE"
	TagModeDelete TagMode = "DELETE"
)

// ParseTagMode parses a mode name case-insensitively.
func ParseTagMode(s string) (TagMode, error) {
	switch m := TagMode(strings.ToUpper(s)); m {
	case TagModeReset, TagModeMerge, TagModeDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown tag mode %q", ErrInvalidInput, s)
	}
}

// Apply computes the tag set that results from applying requested to current.
func (m TagMode) Apply(current, requested []string) ([]string, error) {
	switch m {
	case TagModeReset:
		return ResetTags(requested), nil
	case TagModeMerge:
		return MergeTags(current, requested), nil
	case TagModeDelete:
		return DeleteTags(current, requested), nil
	default:
		return nil, fmt.Errorf("%w: unknown tag mode %q", ErrInvalidInput, string(m))
	}
}

// ResetTags returns a copy of requested with duplicates dropped.
func ResetTags(requested []string) []string {
	return MergeTags(nil, requested)
}

// MergeTags returns the union of current and requested.
// Current tags keep their order and new tags follow in request order.
func MergeTags(current, requested []string) []string {
	out := make([]string, 0, len(current)+len(requested))
	seen := make(map[string]struct{}, len(current)+len(requested))
	for _, list := range [][]string{current, requested} {
		for _, tag := range list {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// DeleteTags returns current without any tag listed in requested.
func DeleteTags(current, requested []string) []string {
	drop := make(map[string]struct{}, len(requested))
	for _, tag := range requested {
		drop[tag] = struct{}{}
	}
	out := make([]string, 0, len(current))
	for _, tag := range current {
		if _, ok := drop[tag]; !ok {
			out = append(out, tag)
		}
	}
	return out
}

// ValidateTags rejects a missing list, blank entries and duplicates.
// An empty, non-nil list is valid.
func ValidateTags(tags []string) error {
	if tags == nil {
		return fmt.Errorf("%w: tags are required", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(tags))
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: tag %d is blank", ErrInvalidInput, i)
		}
		if _, ok := seen[tag]; ok {
			return fmt.Errorf("%w: duplicate tag %q", ErrInvalidInput, tag)
		}
		seen[tag] = struct{}{}
	}
	return nil
}
