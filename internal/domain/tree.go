package domain

import "strings"

// RootID identifies the implicit catalog root. It may appear in a tree map
// as the holder of the top-level ordering but is never a selectable node.
const RootID = "root"

// CategoryNode is one node of a category taxonomy. Nodes are stored by value
// in a CategoryTreeMap; ChildrenIDs is shared between copies and must never
// be written after the tree is built.
type CategoryNode struct {
	ID          string   `json:"id"`
	ParentID    string   `json:"parent_id,omitempty"`
	ChildrenIDs []string `json:"children_ids,omitempty"`
	IsLeaf      bool     `json:"is_leaf"`
	Checked     bool     `json:"checked"`
	Disabled    bool     `json:"disabled"`
	Highlighted bool     `json:"highlighted"`

	Name  string `json:"name,omitempty"`
	Count int    `json:"count,omitempty"`
}

// HasParent reports whether the node hangs below a real category rather
// than directly under the root sentinel.
func (n CategoryNode) HasParent() bool {
	return n.ParentID != "" && n.ParentID != RootID
}

type CategoryTreeMap map[string]CategoryNode

// Clone returns a shallow copy: node values are copied, children slices are shared.
func (m CategoryTreeMap) Clone() CategoryTreeMap {
	if m == nil {
		return nil
	}
	dup := make(CategoryTreeMap, len(m))
	for id, node := range m {
		dup[id] = node
	}
	return dup
}

// TopLevelIDs returns the children of the root sentinel, or nil when the map
// carries no root node.
func (m CategoryTreeMap) TopLevelIDs() []string {
	if root, ok := m[RootID]; ok {
		return root.ChildrenIDs
	}
	return nil
}

// BuildTree assembles a tree from flat category records whose ids are dotted
// paths. Children keep input order. A record whose direct parent is missing
// is attached to its closest present ancestor, or to the root.
func BuildTree(infos []CategoryInfo) CategoryTreeMap {
	tree := make(CategoryTreeMap, len(infos)+1)
	order := make([]string, 0, len(infos))

	for _, info := range infos {
		id := strings.TrimSpace(info.CategoryID)
		if id == "" || id == RootID {
			continue
		}
		if _, exists := tree[id]; exists {
			continue
		}
		tree[id] = CategoryNode{
			ID:    id,
			Name:  info.Name,
			Count: info.Count,
		}
		order = append(order, id)
	}

	children := make(map[string][]string, len(order)+1)
	for _, id := range order {
		parentID := closestAncestor(tree, id)
		node := tree[id]
		node.ParentID = parentID
		tree[id] = node
		children[parentID] = append(children[parentID], id)
	}

	for _, id := range order {
		node := tree[id]
		node.ChildrenIDs = children[id]
		node.IsLeaf = len(node.ChildrenIDs) == 0
		tree[id] = node
	}

	tree[RootID] = CategoryNode{
		ID:          RootID,
		ChildrenIDs: children[RootID],
		IsLeaf:      len(children[RootID]) == 0,
	}

	return tree
}

func closestAncestor(tree CategoryTreeMap, id string) string {
	for {
		idx := strings.LastIndex(id, ".")
		if idx < 0 {
			return RootID
		}
		id = id[:idx]
		if _, ok := tree[id]; ok {
			return id
		}
	}
}
