package model

import (
	"regexp"

	"gorm.io/gorm"
)

const AttributeNameMaxLength = 15

var hexCodePattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Color is used for filtering only; several products may share one.
type Color struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Name    string `gorm:"size:15;not null;uniqueIndex" json:"name"`
	HexCode string `gorm:"size:7;not null;uniqueIndex" json:"hex_code"`
}

func (Color) TableName() string {
	return "colors"
}

func (c *Color) Validate() error {
	if err := requireName("name", c.Name, AttributeNameMaxLength); err != nil {
		return err
	}
	if !hexCodePattern.MatchString(c.HexCode) {
		return NewValidationError("hex_code", ErrInvalidHexCode,
			"the provided hex_code (%s) is invalid", c.HexCode)
	}
	return nil
}

func (c *Color) BeforeSave(tx *gorm.DB) error {
	return c.Validate()
}

// SizeGroup groups sizes on the filter sidebar ("numerical", "literal").
type SizeGroup struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:15;not null;uniqueIndex" json:"name"`
	Sizes []Size `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"sizes,omitempty"`
}

func (SizeGroup) TableName() string {
	return "size_groups"
}

func (g *SizeGroup) BeforeSave(tx *gorm.DB) error {
	return requireName("name", g.Name, AttributeNameMaxLength)
}

// Size rows are ordered by (group, creation order).
type Size struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Name    string `gorm:"size:15;not null;uniqueIndex" json:"name"`
	GroupID uint   `gorm:"not null;index" json:"group_id"`
}

func (Size) TableName() string {
	return "sizes"
}

func (s *Size) BeforeSave(tx *gorm.DB) error {
	return requireName("name", s.Name, AttributeNameMaxLength)
}

// SizeOrder is the default ORDER BY for sizes.
const SizeOrder = "group_id ASC, id ASC"
