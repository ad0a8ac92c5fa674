package domain

// SubcategoryInfo represents a single subcategory in the catalog breadcrumb
type SubcategoryInfo struct {
	Name string `json:"name"` // Display name like "Books", "Informational Book", "Train"
	URL  string `json:"url"`  // Full URL to the subcategory page
	ID   string `json:"id"`   // Category ID extracted from URL (e.g., "B", "332", "332.124")
}

// SubcategoryHierarchy represents the full breadcrumb path for an item
type SubcategoryHierarchy struct {
	FullPath      string            `json:"full_path"`     // Complete path as string "Books: Informational Book: Train: 4.5V"
	Subcategories []SubcategoryInfo `json:"subcategories"` // Individual subcategory details
}

// DeepestCategoryID returns the id of the most specific tree category in the
// breadcrumb. The leading catalog type entry ("B", "P", ...) is not a tree
// node and is skipped.
func (h SubcategoryHierarchy) DeepestCategoryID() (string, bool) {
	for i := len(h.Subcategories) - 1; i >= 0; i-- {
		id := h.Subcategories[i].ID
		if id == "" {
			continue
		}
		if _, err := ParseCategoryType(id); err == nil {
			continue
		}
		return id, true
	}
	return "", false
}
