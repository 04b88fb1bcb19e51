package storage

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"quill-server-go/internal/platform/errors"
)

// ContentRepository persists posts and categories.
type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// NewPostParams carries the fields required to create a post.
type NewPostParams struct {
	Title       string
	Body        string
	AuthorID    uint
	Meta        datatypes.JSON
	CategoryIDs []uint
}

// UpdatePostParams carries the mutable fields of a post. Nil pointers mean
// "leave unchanged".
type UpdatePostParams struct {
	Title       *string
	Body        *string
	Meta        datatypes.JSON
	CategoryIDs []uint
}

// CreatePost inserts a post and links its categories in one transaction.
func (r *ContentRepository) CreatePost(ctx context.Context, params NewPostParams) (*Post, error) {
	post := &Post{
		Title:    params.Title,
		Body:     params.Body,
		AuthorID: params.AuthorID,
		Meta:     params.Meta,
	}

	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if len(params.CategoryIDs) > 0 {
			var categories []Category
			if err := tx.Find(&categories, params.CategoryIDs).Error; err != nil {
				return err
			}
			if len(categories) != len(params.CategoryIDs) {
				return errors.New(errors.KindStorage, "content.create_post", "unknown category id")
			}
			post.Categories = categories
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetPost(ctx, post.ID)
}

// GetPost loads a post with its author and categories; (nil, nil) when gone.
func (r *ContentRepository) GetPost(ctx context.Context, id uint) (*Post, error) {
	var post Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Categories").
		First(&post, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "content.get_post", "failed to load post", err)
	}
	return &post, nil
}

// ListPosts returns a page of posts, newest first, with the total count.
func (r *ContentRepository) ListPosts(ctx context.Context, offset, limit int) ([]Post, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&Post{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(errors.KindStorage, "content.list_posts", "failed to count posts", err)
	}

	var posts []Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Categories").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, errors.Wrap(errors.KindStorage, "content.list_posts", "failed to list posts", err)
	}
	return posts, total, nil
}

// UpdatePost applies the given changes. The caller is responsible for
// authorisation; returns (nil, nil) when the post does not exist.
func (r *ContentRepository) UpdatePost(ctx context.Context, id uint, params UpdatePostParams) (*Post, error) {
	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var post Post
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if params.Title != nil {
			updates["title"] = *params.Title
		}
		if params.Body != nil {
			updates["body"] = *params.Body
		}
		if params.Meta != nil {
			updates["meta"] = params.Meta
		}
		if len(updates) > 0 {
			if err := tx.Model(&post).Updates(updates).Error; err != nil {
				return err
			}
		}

		if params.CategoryIDs != nil {
			var categories []Category
			if len(params.CategoryIDs) > 0 {
				if err := tx.Find(&categories, params.CategoryIDs).Error; err != nil {
					return err
				}
				if len(categories) != len(params.CategoryIDs) {
					return errors.New(errors.KindStorage, "content.update_post", "unknown category id")
				}
			}
			if err := tx.Model(&post).Association("Categories").Replace(categories); err != nil {
				return err
			}
		}
		return nil
	})
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetPost(ctx, id)
}

// DeletePost removes a post and its category links; reports whether a post
// was actually deleted.
func (r *ContentRepository) DeletePost(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var post Post
		if err := tx.First(&post, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if err := tx.Model(&post).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&post).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// NewCategoryParams carries the fields required to create a category.
type NewCategoryParams struct {
	Name        string
	Slug        string
	Description string
}

// CreateCategory inserts a category, deriving the slug from the name when
// none is supplied.
func (r *ContentRepository) CreateCategory(ctx context.Context, params NewCategoryParams) (*Category, error) {
	slug := params.Slug
	if slug == "" {
		slug = Slugify(params.Name)
	}
	category := &Category{
		Name:        params.Name,
		Slug:        slug,
		Description: params.Description,
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "content.create_category", "failed to create category", err)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name.
func (r *ContentRepository) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "content.list_categories", "failed to list categories", err)
	}
	return categories, nil
}

// DeleteCategory removes a category and detaches its posts.
func (r *ContentRepository) DeleteCategory(ctx context.Context, id uint) (bool, error) {
	deleted := false
	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var category Category
		if err := tx.First(&category, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if err := tx.Model(&category).Association("Posts").Clear(); err != nil {
			return err
		}
		if err := tx.Delete(&category).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// Slugify lowercases a name and replaces runs of non-alphanumerics with a
// single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
