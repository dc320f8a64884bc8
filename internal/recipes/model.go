// Package recipes persists recipe records and implements the record-store
// collaborator the form layer submits to: transactional writes, post-commit
// cleanup of orphaned images, and list-query invalidation.
package recipes

import (
	"time"

	"recipebox/internal/form"
)

// Recipe is one persisted recipe row. Ingredients and instructions are
// stored as JSON documents, matching the hosted backend's columns.
type Recipe struct {
	ID           string
	UserID       string
	Title        string
	Description  string
	MainImage    string
	CategoryID   *int64
	Ingredients  []form.Ingredient
	Instructions []form.Instruction
	Views        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the feed/profile list projection of a recipe.
type Summary struct {
	ID            string
	UserID        string
	Title         string
	MainImage     string
	CategoryID    *int64
	AverageRating *float64
}

// ImageURLs returns every non-empty image URL the recipe references, main
// image first. Used by delete-cascade cleanup.
func (r *Recipe) ImageURLs() []string {
	var urls []string
	if r.MainImage != "" {
		urls = append(urls, r.MainImage)
	}
	for _, ins := range r.Instructions {
		if ins.ImageURL != "" {
			urls = append(urls, ins.ImageURL)
		}
	}
	return urls
}
