package domain

// CategoryInfo is one category link scraped from a catalog tree page.
type CategoryInfo struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Count      int    `json:"count"`
	CategoryID string `json:"category_id"` // dotted path, e.g. "332.124.316"
	ItemType   string `json:"item_type"`
}
