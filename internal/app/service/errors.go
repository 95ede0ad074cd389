package service

import (
	"errors"
	"time"

	"github.com/ikkim/atelier-catalog/internal/app/repository"
)

// Lookups report the repository sentinels unchanged so callers can match
// on either package.
var (
	ErrCategoryNotFound      = repository.ErrCategoryNotFound
	ErrProductNotFound       = repository.ErrProductNotFound
	ErrParentProductNotFound = repository.ErrParentProductNotFound
	ErrColorNotFound         = repository.ErrColorNotFound
	ErrSizeNotFound          = repository.ErrSizeNotFound
	ErrSizeGroupNotFound     = repository.ErrSizeGroupNotFound
)

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrDuplicateName  = errors.New("name already in use")
	ErrDuplicateStyle = errors.New("style already exists for this parent product")
	ErrDuplicateSlug  = errors.New("slug already in use")
	ErrCategoryCycle  = errors.New("category cannot be moved under itself")
)

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}
