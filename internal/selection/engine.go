package selection

import (
	"slices"

	"bricklink/taxonomy/internal/domain"

	log "github.com/sirupsen/logrus"
)

// ReplaceTree installs a fresh tree as-is. Anchors and the highlighted path
// are carried over untouched, even when they name ids the new tree lacks.
func (s *State) ReplaceTree(tree domain.CategoryTreeMap) *State {
	return &State{
		Tree:            tree.Clone(),
		HighlightedPath: s.HighlightedPath,
		Selected:        s.Selected,
	}
}

// Check makes id (or its parent, when id completes its sibling group) an
// anchor and cascades checked+disabled onto every descendant of the anchor.
func (s *State) Check(id string) *State {
	if s.IsSelected(id) {
		return s
	}

	node, ok := s.Tree[id]
	if !ok || id == domain.RootID {
		log.Debugf("Check of unknown category %q ignored", id)
		return s
	}
	if anchor, found := s.selectedAncestor(node); found {
		log.Debugf("Check of %q ignored, already covered by %q", id, anchor)
		return s
	}

	selectID := s.promotionTarget(id, node)

	selected := cloneSet(s.Selected)
	selected[selectID] = struct{}{}

	tree := s.Tree.Clone()
	anchor := tree[selectID]
	anchor.Checked = true
	tree[selectID] = anchor

	walkDescendants(tree, selectID, func(childID string, n *domain.CategoryNode) {
		delete(selected, childID)
		n.Checked = true
		n.Disabled = true
	})

	return &State{
		Tree:            tree,
		HighlightedPath: s.HighlightedPath,
		Selected:        selected,
	}
}

// Uncheck drops the anchor id and releases its whole subtree.
func (s *State) Uncheck(id string) *State {
	if !s.IsSelected(id) {
		return s
	}

	selected := cloneSet(s.Selected)
	delete(selected, id)

	tree := s.Tree.Clone()
	if node, ok := tree[id]; ok {
		node.Checked = false
		tree[id] = node
	}

	walkDescendants(tree, id, func(_ string, n *domain.CategoryNode) {
		n.Checked = false
		n.Disabled = false
	})

	return &State{
		Tree:            tree,
		HighlightedPath: s.HighlightedPath,
		Selected:        selected,
	}
}

// Highlight moves the highlighted path to the chain from the top level down
// to id. The root sentinel is never part of the path.
func (s *State) Highlight(id string) *State {
	tree := s.Tree.Clone()

	for _, prev := range s.HighlightedPath {
		if node, ok := tree[prev]; ok {
			node.Highlighted = false
			tree[prev] = node
		}
	}

	path := make([]string, 0, len(s.HighlightedPath)+1)
	cur := id
	// Bounded by tree size so a cyclic parent chain cannot spin forever.
	for steps := 0; cur != "" && cur != domain.RootID && steps < len(tree); steps++ {
		node, ok := tree[cur]
		if !ok {
			break
		}
		node.Highlighted = true
		tree[cur] = node
		path = append(path, cur)
		cur = node.ParentID
	}
	slices.Reverse(path)

	if len(path) == 0 {
		log.Debugf("Highlight of unknown category %q cleared the path", id)
	}

	return &State{
		Tree:            tree,
		HighlightedPath: path,
		Selected:        s.Selected,
	}
}

// promotionTarget returns the parent of node when every sibling is already an
// anchor. Only-children and top-level nodes always keep their own id.
func (s *State) promotionTarget(id string, node domain.CategoryNode) string {
	if !node.HasParent() {
		return id
	}
	parent, ok := s.Tree[node.ParentID]
	if !ok {
		return id
	}

	siblings := 0
	for _, childID := range parent.ChildrenIDs {
		if childID == id {
			continue
		}
		if !s.IsSelected(childID) {
			return id
		}
		siblings++
	}
	if siblings == 0 {
		return id
	}
	return node.ParentID
}

func (s *State) selectedAncestor(node domain.CategoryNode) (string, bool) {
	cur := node.ParentID
	for steps := 0; cur != "" && cur != domain.RootID && steps < len(s.Tree); steps++ {
		if s.IsSelected(cur) {
			return cur, true
		}
		parent, ok := s.Tree[cur]
		if !ok {
			break
		}
		cur = parent.ParentID
	}
	return "", false
}

// walkDescendants visits every node below id depth-first and stores the
// node back into tree after fn has modified it.
func walkDescendants(tree domain.CategoryTreeMap, id string, fn func(string, *domain.CategoryNode)) {
	root, ok := tree[id]
	if !ok {
		return
	}

	seen := map[string]struct{}{id: {}}
	stack := slices.Clone(root.ChildrenIDs)
	slices.Reverse(stack)

	for len(stack) > 0 {
		childID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, dup := seen[childID]; dup {
			continue
		}
		seen[childID] = struct{}{}

		child, ok := tree[childID]
		if !ok {
			continue
		}
		fn(childID, &child)
		tree[childID] = child

		for i := len(child.ChildrenIDs) - 1; i >= 0; i-- {
			stack = append(stack, child.ChildrenIDs[i])
		}
	}
}
