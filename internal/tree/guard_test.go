package tree

import (
	"slices"
	"testing"

	"categorytree/internal/models"
)

func TestDescendants(t *testing.T) {
	tests := []struct {
		name string
		of   int
		want []int
	}{
		{name: "root with grandchild", of: 1, want: []int{3, 4, 5}},
		{name: "inner node", of: 3, want: []int{5}},
		{name: "leaf", of: 5, want: nil},
		{name: "unknown id", of: 404, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Descendants(tt.of, catalog())
			var got []int
			for k := range set {
				got = append(got, k)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Descendants(%d) = %v, want %v", tt.of, got, tt.want)
			}
		})
	}
}

func TestDescendantsTerminatesOnCycles(t *testing.T) {
	// Corrupt input: 1 -> 2 -> 3 -> 1.
	flat := []models.Category[int]{
		node(1, id(3), 0, "a"),
		node(2, id(1), 0, "b"),
		node(3, id(2), 0, "c"),
	}
	got := Descendants(1, flat)
	if len(got) != 2 {
		t.Errorf("cycle closure: got %d ids, want 2", len(got))
	}
}

func TestCanMoveInto(t *testing.T) {
	tests := []struct {
		name            string
		subject, target int
		want            bool
	}{
		{name: "onto itself", subject: 1, target: 1, want: false},
		{name: "into own child", subject: 1, target: 3, want: false},
		{name: "into own grandchild", subject: 1, target: 5, want: false},
		{name: "into sibling", subject: 3, target: 4, want: true},
		{name: "into other root", subject: 3, target: 2, want: true},
		{name: "child into its parent", subject: 5, target: 3, want: true},
		{name: "leaf into ancestor's sibling", subject: 5, target: 7, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMoveInto(tt.subject, tt.target, catalog()); got != tt.want {
				t.Errorf("CanMoveInto(%d, %d) = %v, want %v", tt.subject, tt.target, got, tt.want)
			}
		})
	}
}

// TestCanMoveIntoRejectsEveryDescendant checks the guard against the full
// closure for every node of the catalog.
func TestCanMoveIntoRejectsEveryDescendant(t *testing.T) {
	flat := catalog()
	for _, subject := range flat {
		if CanMoveInto(subject.ID, subject.ID, flat) {
			t.Errorf("node %d may not move onto itself", subject.ID)
		}
		for target := range Descendants(subject.ID, flat) {
			if CanMoveInto(subject.ID, target, flat) {
				t.Errorf("node %d may not move into descendant %d", subject.ID, target)
			}
		}
	}
}
