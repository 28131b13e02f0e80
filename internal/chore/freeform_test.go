package chore

import (
	"strings"
	"testing"
)

func TestFreeformNameRoundTrip(t *testing.T) {
	stored := FreeformName("  Deep clean fridge ")
	if !strings.HasPrefix(stored, "Deep clean fridge"+Delimiter) {
		t.Fatalf("stored = %q, want prefix %q", stored, "Deep clean fridge"+Delimiter)
	}
	if got := DisplayName(stored, true); got != "Deep clean fridge" {
		t.Errorf("DisplayName = %q, want %q", got, "Deep clean fridge")
	}
}

func TestFreeformNameUnique(t *testing.T) {
	a := FreeformName("Mop")
	b := FreeformName("Mop")
	if a == b {
		t.Errorf("expected distinct names, both %q", a)
	}
}

func TestDisplayNameCatalogChoreUntouched(t *testing.T) {
	name := "snake__case chore"
	if got := DisplayName(name, false); got != name {
		t.Errorf("DisplayName = %q, want %q", got, name)
	}
}

func TestDisplayNameWithoutDelimiter(t *testing.T) {
	if got := DisplayName("Laundry", true); got != "Laundry" {
		t.Errorf("DisplayName = %q, want %q", got, "Laundry")
	}
}
