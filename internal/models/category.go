package models

import (
	"strings"

	"gorm.io/gorm"
)

// UncategorizedName is shown for spending with no category.
const UncategorizedName = "Uncategorized"

// Category groups transactions and budgets. Names are unique regardless of
// case; NameKey holds the folded form the unique index is built on.
type Category struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	NameKey string `gorm:"not null;uniqueIndex" json:"-"`
}

// CategoryNameKey folds a category name for uniqueness checks.
func CategoryNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BeforeSave keeps NameKey in sync with Name.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.NameKey = CategoryNameKey(c.Name)
	return nil
}
