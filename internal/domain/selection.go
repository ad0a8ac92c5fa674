package domain

import "time"

// Selection is the reportable outcome of a selection session: the anchor
// categories the user settled on for one catalog type.
type Selection struct {
	SessionID       string       `json:"session_id"`
	CategoryType    CategoryType `json:"category_type"`
	SelectedIDs     []string     `json:"selected_ids"`
	HighlightedPath []string     `json:"highlighted_path"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
