// Package chore holds the naming rules for freeform chores.
//
// A freeform chore is logged ad hoc with a duration instead of being picked
// from the catalog. Its stored name carries a unique suffix so that repeated
// entries with the same label do not collide with the per-group name
// constraint; the suffix is stripped whenever the name is shown.
package chore

import (
	"strings"

	"github.com/google/uuid"
)

// Delimiter separates the user-facing label from the generated suffix.
const Delimiter = "__"

// FreeformName returns the stored name for a freeform chore labeled name.
func FreeformName(name string) string {
	return strings.TrimSpace(name) + Delimiter + uuid.NewString()
}

// DisplayName returns the name to show for a chore. Freeform names lose
// everything from the first delimiter onward.
func DisplayName(name string, freeform bool) string {
	if !freeform {
		return name
	}
	label, _, _ := strings.Cut(name, Delimiter)
	return label
}
