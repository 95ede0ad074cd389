package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/atelier-catalog/internal/app/model"
	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/pkg/logger"
	"github.com/ikkim/atelier-catalog/pkg/util"
)

type CategoryInput struct {
	Name     string
	ParentID *uint
}

// ResolvedCategory is the outcome of looking up a category URL path.
type ResolvedCategory struct {
	// Selected is the node named by the last path segment.
	Selected *model.Category
	// BreadcrumbRoot is the node named by the first path segment.
	BreadcrumbRoot *model.Category
}

type CategoryService interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id uint, input CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id uint) error
	GetRoots(ctx context.Context) ([]model.Category, error)
	ResolvePath(ctx context.Context, path string) (*ResolvedCategory, error)
	FullPath(ctx context.Context, category *model.Category) (string, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

// checkUnique rejects a name, or a name that slugifies to an existing
// slug, already used by a category other than selfID.
func (s *categoryService) checkUnique(ctx context.Context, name string, selfID uint) error {
	taken, err := s.categoryRepo.NameExists(ctx, name, selfID)
	if err != nil {
		return err
	}
	if taken {
		return model.NewValidationError("name", ErrDuplicateName, "a category named %q already exists", name)
	}

	slug := util.Slugify(name)
	existing, err := s.categoryRepo.FindByPathSlug(ctx, slug)
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return model.NewValidationError("name", ErrDuplicateSlug, "category %q already uses the slug %q", existing.Name, slug)
	}
	return nil
}

func (s *categoryService) checkParent(ctx context.Context, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	_, err := s.categoryRepo.FindByID(ctx, *parentID)
	return err
}

func (s *categoryService) CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category := &model.Category{Name: strings.TrimSpace(input.Name), ParentID: input.ParentID}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, category.Name, 0); err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, category.ParentID); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"path_slug":   category.PathSlug,
		"parent_id":   category.ParentID,
	})
	return category, nil
}

// UpdateCategory renames and/or moves a category. A nil ParentID makes it
// a root. Moving a node under itself or one of its descendants fails with
// ErrCategoryCycle.
func (s *categoryService) UpdateCategory(ctx context.Context, id uint, input CategoryInput) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(input.Name)
	category.ParentID = input.ParentID
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, category.Name, id); err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		if err := s.checkParent(ctx, input.ParentID); err != nil {
			return nil, err
		}
		subtree, err := s.categoryRepo.Descendants(ctx, id, true)
		if err != nil {
			return nil, err
		}
		for _, c := range subtree {
			if c.ID == *input.ParentID {
				return nil, model.NewValidationError("parent_id", ErrCategoryCycle,
					"category %d cannot be moved under %d", id, *input.ParentID)
			}
		}
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	logger.Info("Category updated", map[string]interface{}{
		"category_id": category.ID,
		"path_slug":   category.PathSlug,
		"parent_id":   category.ParentID,
	})
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Category deleted", map[string]interface{}{
		"category_id": id,
	})
	return nil
}

func (s *categoryService) GetRoots(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindRoots(ctx)
}

// ResolvePath looks up a slash separated category path such as
// "dresses/summer-dresses". Only the first and last segments are read.
func (s *categoryService) ResolvePath(ctx context.Context, path string) (*ResolvedCategory, error) {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return nil, ErrCategoryNotFound
	}

	selected, err := s.categoryRepo.FindByPathSlug(ctx, segments[len(segments)-1])
	if err != nil {
		return nil, err
	}
	root := selected
	if len(segments) > 1 {
		if root, err = s.categoryRepo.FindByPathSlug(ctx, segments[0]); err != nil {
			return nil, err
		}
	}
	return &ResolvedCategory{Selected: selected, BreadcrumbRoot: root}, nil
}

// FullPath joins the slugs from the root down to category.
func (s *categoryService) FullPath(ctx context.Context, category *model.Category) (string, error) {
	chain, err := s.categoryRepo.Ancestors(ctx, category.ID, true)
	if err != nil {
		return "", err
	}
	slugs := make([]string, len(chain))
	for i, c := range chain {
		slugs[i] = c.PathSlug
	}
	return strings.Join(slugs, "/"), nil
}
