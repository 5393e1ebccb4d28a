package domain

import "strings"

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Color       string `json:"color"`
}

var catalog = []Product{
	{
		ID:          "1",
		Name:        "Edufelt",
		Description: "Comprehensive school management software with student tracking, grade management, and parent communication tools.",
		Category:    "Education",
		Color:       "#10b981",
	},
	{
		ID:          "2",
		Name:        "Fetem",
		Description: "Complete event management solution for planning, booking, and executing successful events.",
		Category:    "Events",
		Color:       "#ec4555",
	},
	{
		ID:          "3",
		Name:        "Adfelt",
		Description: "Advertising solutions helping businesses reach their target audience and achieve measurable growth.",
		Category:    "Advertising",
		Color:       "#1f2937",
	},
	{
		ID:          "4",
		Name:        "General Services",
		Description: "Comprehensive business solutions offering support in operations, management, and growth strategy",
		Category:    "Growth",
		Color:       "#0066AA",
	},
}

func Products() []Product {
	return append([]Product(nil), catalog...)
}

func FindProduct(id string) (Product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// SearchProducts matches the query against name, category and description,
// case-insensitively. An empty query returns the whole catalog.
func SearchProducts(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Products()
	}
	var out []Product
	for _, p := range catalog {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q) ||
			strings.Contains(strings.ToLower(p.Description), q) {
			out = append(out, p)
		}
	}
	return out
}
