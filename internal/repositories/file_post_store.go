package repositories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

const (
	frontMatterFence = "---"
	postExt          = ".md"
	timestampLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// ids are slugs: lowercase alphanumeric runs joined by single dashes
var postIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// frontMatter is the YAML header of a post file. The review is the markdown
// body below it and the id is the file name.
type frontMatter struct {
	Title         string              `yaml:"title"`
	CoverImage    string              `yaml:"coverImage"`
	Rating        float64             `yaml:"rating"`
	Status        models.Status       `yaml:"status"`
	Tags          []string            `yaml:"tags"`
	FavoriteQuote string              `yaml:"favoriteQuote,omitempty"`
	CreatedAt     string              `yaml:"createdAt"`
	UpdatedAt     string              `yaml:"updatedAt"`
	WhereToWatch  []models.Platform   `yaml:"whereToWatch,omitempty"`
	KoreanCrush   *models.KoreanCrush `yaml:"koreanCrush,omitempty"`
	Song          *models.Song        `yaml:"song,omitempty"`
}

// FilePostStore keeps one markdown file per post in a directory
type FilePostStore struct {
	dir string
}

// NewFilePostStore creates the content directory if needed
func NewFilePostStore(dir string) (*FilePostStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content dir: %w", err)
	}
	return &FilePostStore{dir: dir}, nil
}

func (s *FilePostStore) path(id string) (string, bool) {
	if !postIDPattern.MatchString(id) {
		return "", false
	}
	return filepath.Join(s.dir, id+postExt), true
}

// Insert writes a new post file
func (s *FilePostStore) Insert(ctx context.Context, post *models.Post) error {
	path, ok := s.path(post.ID)
	if !ok {
		return apperrors.Validation("id", "is not a valid slug")
	}
	if _, err := os.Stat(path); err == nil {
		return apperrors.StoreFault(fs.ErrExist, "post "+post.ID+" already exists")
	}
	return s.write(path, post)
}

// FindByID reads and parses a post file
func (s *FilePostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	path, ok := s.path(id)
	if !ok {
		return nil, apperrors.NotFound("post not found")
	}
	return s.read(id, path)
}

// FindAll parses every post file in the directory
func (s *FilePostStore) FindAll(ctx context.Context) ([]models.Post, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.StoreFault(err, "failed to read content dir")
	}

	posts := make([]models.Post, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, postExt) || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, postExt)
		post, err := s.read(id, filepath.Join(s.dir, name))
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, nil
}

// Replace overwrites an existing post file
func (s *FilePostStore) Replace(ctx context.Context, post *models.Post) error {
	path, ok := s.path(post.ID)
	if !ok {
		return apperrors.NotFound("post not found")
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NotFound("post not found")
		}
		return apperrors.StoreFault(err, "failed to stat post")
	}
	return s.write(path, post)
}

// Delete removes a post file
func (s *FilePostStore) Delete(ctx context.Context, id string) error {
	path, ok := s.path(id)
	if !ok {
		return apperrors.NotFound("post not found")
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NotFound("post not found")
		}
		return apperrors.StoreFault(err, "failed to delete post")
	}
	return nil
}

func (s *FilePostStore) Exists(ctx context.Context, id string) (bool, error) {
	path, ok := s.path(id)
	if !ok {
		return false, nil
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, apperrors.StoreFault(err, "failed to stat post")
	}
}

func (s *FilePostStore) read(id, path string) (*models.Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound("post not found")
		}
		return nil, apperrors.StoreFault(err, "failed to read post")
	}
	post, err := DecodePostFile(data)
	if err != nil {
		return nil, apperrors.StoreFault(err, "failed to parse post "+id)
	}
	post.ID = id
	return post, nil
}

// write replaces path atomically through a temp file in the same directory
func (s *FilePostStore) write(path string, post *models.Post) error {
	data, err := EncodePostFile(post)
	if err != nil {
		return apperrors.StoreFault(err, "failed to encode post")
	}

	tmp, err := os.CreateTemp(s.dir, "."+post.ID+"-*.tmp")
	if err != nil {
		return apperrors.StoreFault(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.StoreFault(err, "failed to write post")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.StoreFault(err, "failed to sync post")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.StoreFault(err, "failed to close post")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.StoreFault(err, "failed to save post")
	}
	return nil
}

// EncodePostFile renders a post as YAML front matter followed by the review
func EncodePostFile(post *models.Post) ([]byte, error) {
	fm := frontMatter{
		Title:         post.Title,
		CoverImage:    post.CoverImage,
		Rating:        post.Rating,
		Status:        post.Status,
		Tags:          post.Tags,
		FavoriteQuote: post.FavoriteQuote,
		CreatedAt:     post.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     post.UpdatedAt.UTC().Format(timestampLayout),
		WhereToWatch:  post.WhereToWatch,
		KoreanCrush:   post.KoreanCrush,
		Song:          post.Song,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterFence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(frontMatterFence + "\n\n")
	buf.WriteString(post.Review)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// DecodePostFile parses the output of EncodePostFile. The id is left empty.
// Only the fences may end in CRLF; the review keeps its bytes as written.
func DecodePostFile(data []byte) (*models.Post, error) {
	text := string(data)
	line, rest, openEOL := cutLine(text)
	if line != frontMatterFence || openEOL == "" {
		return nil, errors.New("missing front matter")
	}

	var header, body, eol string
	for offset := 0; ; {
		line, next, lineEOL := cutLine(rest[offset:])
		if line == frontMatterFence && lineEOL != "" {
			header = rest[:offset]
			body = next
			eol = lineEOL
			break
		}
		if lineEOL == "" {
			return nil, errors.New("unterminated front matter")
		}
		offset = len(rest) - len(next)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}

	createdAt, err := parseTimestamp(fm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid createdAt: %w", err)
	}
	updatedAt, err := parseTimestamp(fm.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updatedAt: %w", err)
	}

	body = strings.TrimPrefix(body, eol)
	body = strings.TrimSuffix(body, eol)

	return &models.Post{
		Draft: models.Draft{
			Title:         fm.Title,
			CoverImage:    fm.CoverImage,
			Rating:        fm.Rating,
			Review:        body,
			Status:        fm.Status,
			Tags:          fm.Tags,
			FavoriteQuote: fm.FavoriteQuote,
			WhereToWatch:  fm.WhereToWatch,
			KoreanCrush:   fm.KoreanCrush,
			Song:          fm.Song,
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// cutLine splits off the first line of s. eol is "\n", "\r\n" or "" when s
// has no line break.
func cutLine(s string) (line, rest, eol string) {
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return s, "", ""
	}
	line, rest, eol = s[:i], s[i+1:], "\n"
	if strings.HasSuffix(line, "\r") {
		line, eol = line[:len(line)-1], "\r\n"
	}
	return line, rest, eol
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
