package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

// postRow is the relational shape of a post. Column names follow gorm's
// default snake_case naming; list and nested values are jsonb.
type postRow struct {
	ID            string              `gorm:"primaryKey;type:text"`
	Title         string              `gorm:"not null"`
	CoverImage    string
	Rating        float64
	Review        string
	Status        models.Status       `gorm:"type:text"`
	Tags          []string            `gorm:"serializer:json;type:jsonb"`
	FavoriteQuote string
	WhereToWatch  []models.Platform   `gorm:"serializer:json;type:jsonb"`
	KoreanCrush   *models.KoreanCrush `gorm:"serializer:json;type:jsonb"`
	Song          *models.Song        `gorm:"serializer:json;type:jsonb"`
	CreatedAt     time.Time           `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime:false"`
}

// TableName overrides the table name used by postRow
func (postRow) TableName() string {
	return "posts"
}

func newPostRow(p *models.Post) postRow {
	return postRow{
		ID:            p.ID,
		Title:         p.Title,
		CoverImage:    p.CoverImage,
		Rating:        p.Rating,
		Review:        p.Review,
		Status:        p.Status,
		Tags:          p.Tags,
		FavoriteQuote: p.FavoriteQuote,
		WhereToWatch:  p.WhereToWatch,
		KoreanCrush:   p.KoreanCrush,
		Song:          p.Song,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r postRow) toModel() models.Post {
	return models.Post{
		ID: r.ID,
		Draft: models.Draft{
			Title:         r.Title,
			CoverImage:    r.CoverImage,
			Rating:        r.Rating,
			Review:        r.Review,
			Status:        r.Status,
			Tags:          r.Tags,
			FavoriteQuote: r.FavoriteQuote,
			WhereToWatch:  r.WhereToWatch,
			KoreanCrush:   r.KoreanCrush,
			Song:          r.Song,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// PostgresPostStore implements PostStore for PostgreSQL
type PostgresPostStore struct {
	db *gorm.DB
}

// NewPostgresPostStore creates a new PostgresPostStore
func NewPostgresPostStore(db *gorm.DB) *PostgresPostStore {
	return &PostgresPostStore{db: db}
}

// Insert creates a post row
func (s *PostgresPostStore) Insert(ctx context.Context, post *models.Post) error {
	row := newPostRow(post)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return apperrors.StoreFault(err, "failed to insert post")
	}
	return nil
}

// FindByID retrieves a post by ID from PostgreSQL
func (s *PostgresPostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	var row postRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.StoreFault(err, "failed to find post")
	}
	post := row.toModel()
	return &post, nil
}

// FindAll retrieves every post row
func (s *PostgresPostStore) FindAll(ctx context.Context) ([]models.Post, error) {
	var rows []postRow
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.StoreFault(err, "failed to list posts")
	}
	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toModel())
	}
	return posts, nil
}

// Replace updates every column of an existing row except created_at
func (s *PostgresPostStore) Replace(ctx context.Context, post *models.Post) error {
	row := newPostRow(post)
	result := s.db.WithContext(ctx).Model(&row).Select("*").Omit("id", "created_at").Updates(&row)
	if result.Error != nil {
		return apperrors.StoreFault(result.Error, "failed to update post")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

// Delete removes a post row
func (s *PostgresPostStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&postRow{})
	if result.Error != nil {
		return apperrors.StoreFault(result.Error, "failed to delete post")
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("post not found")
	}
	return nil
}

func (s *PostgresPostStore) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&postRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperrors.StoreFault(err, "failed to count posts")
	}
	return count > 0, nil
}
