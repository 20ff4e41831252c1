package domain

import (
	"slices"
	"strings"
	"time"
)

// NormalizeTags trims whitespace and a leading '#', lowercases, and drops empty
// and duplicate tags while keeping the first-seen order.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" || slices.Contains(normalized, tag) {
			continue
		}
		normalized = append(normalized, tag)
	}
	return normalized
}

// HasTag reports whether the freet carries tag, ignoring case and a leading '#'.
func (f *Freet) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	return slices.ContainsFunc(f.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// FilterByTag returns the freets carrying tag. An empty tag returns the input unchanged.
func FilterByTag(freets []*Freet, tag string) []*Freet {
	if strings.TrimSpace(tag) == "" {
		return freets
	}
	var filtered []*Freet
	for _, freet := range freets {
		if freet.HasTag(tag) {
			filtered = append(filtered, freet)
		}
	}
	return filtered
}

// OnThisDay returns the freets created on now's calendar day in an earlier year.
// Dates are compared in now's location. Freets from February 29 are shown on
// February 28 in years without a leap day.
func OnThisDay(freets []*Freet, now time.Time) []*Freet {
	month, day := now.Month(), now.Day()
	var memories []*Freet
	for _, freet := range freets {
		created := freet.DateCreated.In(now.Location())
		if created.Year() >= now.Year() {
			continue
		}
		createdMonth, createdDay := created.Month(), created.Day()
		if createdMonth == time.February && createdDay == 29 && !isLeapYear(now.Year()) {
			createdDay = 28
		}
		if createdMonth == month && createdDay == day {
			memories = append(memories, freet)
		}
	}
	return memories
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
