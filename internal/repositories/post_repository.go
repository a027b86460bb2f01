package repositories

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
	"github.com/anonto42/kdiary/backend/validators"
)

//go:generate go run go.uber.org/mock/mockgen -source=post_repository.go -destination=mocks/mock.go

// PostRepository defines the interface for post data operations
type PostRepository interface {
	ListAll(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetLatest(ctx context.Context) (*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, draft models.Draft) (string, error)
	Update(ctx context.Context, id string, update models.PostUpdate) error
	Delete(ctx context.Context, id string) error
}

// PostStore is the persistence backend behind PostRepository. Implementations
// report a missing record with apperrors.NotFound and leave ordering,
// validation and timestamps to the repository.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindAll(ctx context.Context) ([]models.Post, error)
	Replace(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// Option configures a post repository
type Option func(*postRepository)

// WithClock overrides the time source used for ids and timestamps
func WithClock(now func() time.Time) Option {
	return func(r *postRepository) {
		r.now = now
	}
}

type postRepository struct {
	store     PostStore
	validator *validators.CustomValidator
	now       func() time.Time
}

// NewPostRepository creates a PostRepository over the given store
func NewPostRepository(store PostStore, opts ...Option) PostRepository {
	r := &postRepository{
		store:     store,
		validator: validators.NewValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListAll returns every post, newest first
func (r *postRepository) ListAll(ctx context.Context) ([]models.Post, error) {
	posts, err := r.store.FindAll(ctx)
	if err != nil {
		return nil, classify(err, "failed to list posts")
	}
	if posts == nil {
		posts = []models.Post{}
	}
	for i := range posts {
		fillDefaults(&posts[i])
	}
	slices.SortFunc(posts, func(a, b models.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return posts, nil
}

// GetByID retrieves a post by ID
func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "failed to get post")
	}
	fillDefaults(post)
	return post, nil
}

// GetLatest returns the most recently created post
func (r *postRepository) GetLatest(ctx context.Context) (*models.Post, error) {
	posts, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperrors.NotFound("no posts yet")
	}
	return &posts[0], nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, id)
	if err != nil {
		return false, classify(err, "failed to check post")
	}
	return ok, nil
}

// Create validates the draft, assigns an id and both timestamps and persists it
func (r *postRepository) Create(ctx context.Context, draft models.Draft) (string, error) {
	draft = draft.Clone()
	draft.Normalize()
	if err := r.validator.Validate(draft); err != nil {
		return "", err
	}

	now := r.timestamp()
	id, err := r.uniqueID(ctx, fmt.Sprintf("%s-%d", Slugify(draft.Title), now.UnixMilli()))
	if err != nil {
		return "", err
	}

	post := &models.Post{ID: id, Draft: draft, CreatedAt: now, UpdatedAt: now}
	if err := r.store.Insert(ctx, post); err != nil {
		return "", classify(err, "failed to create post")
	}
	return id, nil
}

// Update merges the present fields of update into the stored post
func (r *postRepository) Update(ctx context.Context, id string, update models.PostUpdate) error {
	existing, err := r.store.FindByID(ctx, id)
	if err != nil {
		return classify(err, "failed to get post")
	}

	draft := existing.Draft.Clone()
	update.Apply(&draft)
	draft.Normalize()
	if err := r.validator.Validate(draft); err != nil {
		return err
	}

	updated := &models.Post{
		ID:        existing.ID,
		Draft:     draft,
		CreatedAt: existing.CreatedAt,
		UpdatedAt: r.timestamp(),
	}
	if err := r.store.Replace(ctx, updated); err != nil {
		return classify(err, "failed to update post")
	}
	return nil
}

// Delete removes a post permanently
func (r *postRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return classify(err, "failed to delete post")
	}
	return nil
}

func (r *postRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// uniqueID appends -2, -3, ... to base until the id is free
func (r *postRepository) uniqueID(ctx context.Context, base string) (string, error) {
	id := base
	for i := 2; ; i++ {
		taken, err := r.store.Exists(ctx, id)
		if err != nil {
			return "", classify(err, "failed to check post id")
		}
		if !taken {
			return id, nil
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title, folds accents and joins the remaining
// alphanumeric runs with dashes.
func Slugify(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	slug := nonAlnum.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "post"
	}
	return slug
}

func fillDefaults(p *models.Post) {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.WhereToWatch == nil {
		p.WhereToWatch = []models.Platform{}
	}
	if p.Status == "" {
		p.Status = models.StatusWatching
	}
}

// classify leaves already classified errors untouched and treats everything
// else as a store fault.
func classify(err error, message string) error {
	if apperrors.Classified(err) {
		return err
	}
	return apperrors.StoreFault(err, message)
}
