package model

import (
	"time"

	"github.com/ikkim/atelier-catalog/pkg/util"
	"gorm.io/gorm"
)

const CategoryNameMaxLength = 32

// Category is a node of the catalog tree. PathSlug is the node's own URL
// segment; the full path ("dresses/summer-dresses/floral-dresses") is the
// root-to-self join of PathSlugs and is derived from the ancestor chain on
// read, so renaming a node rewrites only that node's row.
type Category struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Name      string     `gorm:"size:32;not null;uniqueIndex" json:"name"`
	ParentID  *uint      `gorm:"index" json:"parent_id"`
	PathSlug  string     `gorm:"size:64;not null;uniqueIndex" json:"path_slug"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Children  []Category `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"children,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

func (c *Category) Validate() error {
	return requireName("name", c.Name, CategoryNameMaxLength)
}

// BeforeSave recomputes PathSlug on every write.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.PathSlug = util.Slugify(c.Name)
	if c.PathSlug == "" {
		return NewValidationError("name", ErrFieldRequired, "name %q has no URL-safe characters", c.Name)
	}
	return nil
}
