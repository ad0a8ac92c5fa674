// Package selection implements the category tree selection state machine.
//
// A State is treated as immutable once returned: every command builds fresh
// copies of the tree map and anchor set before writing, so earlier states
// stay valid for undo or diffing. Commands that change nothing return the
// same *State, which lets callers detect changes by pointer comparison.
package selection

import (
	"sort"

	"bricklink/taxonomy/internal/domain"
)

type State struct {
	Tree            domain.CategoryTreeMap
	HighlightedPath []string
	// Selected holds the anchor ids. Descendants of an anchor are checked
	// and disabled in Tree but are not anchors themselves.
	Selected map[string]struct{}
}

// NewState starts a selection session over tree with nothing selected or highlighted.
func NewState(tree domain.CategoryTreeMap) *State {
	return &State{
		Tree:            tree.Clone(),
		HighlightedPath: []string{},
		Selected:        map[string]struct{}{},
	}
}

func (s *State) IsSelected(id string) bool {
	_, ok := s.Selected[id]
	return ok
}

// SelectedIDs returns the anchor ids in sorted order.
func (s *State) SelectedIDs() []string {
	ids := make([]string, 0, len(s.Selected))
	for id := range s.Selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneSet(set map[string]struct{}) map[string]struct{} {
	dup := make(map[string]struct{}, len(set)+1)
	for id := range set {
		dup[id] = struct{}{}
	}
	return dup
}
