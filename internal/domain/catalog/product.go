package catalog

// Product is the detail view of a catalog record.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image"`
	Price       float64  `json:"price"`
	Color       string   `json:"color,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	URL         string   `json:"url"`
}

// ProductFromHit builds a Product, substituting placeholders for missing fields.
func ProductFromHit(h Hit) Product {
	cats := h.Strings("subcategories")
	if len(cats) == 0 {
		cats = h.Strings("categories")
	}
	return Product{
		ID:          h.ObjectID(),
		Name:        h.Title(),
		Description: h.String("description"),
		Image:       h.Image(),
		Price:       h.Float("price"),
		Color:       h.String("color"),
		Brand:       h.String("brand"),
		Categories:  cats,
		URL:         h.URL(),
	}
}
