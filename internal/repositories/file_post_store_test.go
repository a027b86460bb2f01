package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/kdiary/backend/internal/models"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

func samplePost(id string) *models.Post {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 123000000, time.UTC)
	d := sampleDraft()
	d.Tags = []string{"Romántico", "Comedia"}
	return &models.Post{ID: id, Draft: d, CreatedAt: ts, UpdatedAt: ts}
}

func TestFileStoreWritesFrontMatter(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePostStore(dir)
	require.NoError(t, err)

	post := samplePost("crash-landing-on-you-1709294400123")
	require.NoError(t, store.Insert(context.Background(), post))

	raw, err := os.ReadFile(filepath.Join(dir, post.ID+".md"))
	require.NoError(t, err)
	content := string(raw)

	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "title: Crash Landing on You\n")
	assert.Regexp(t, `(?m)^tags:\n\s+- Romántico\n\s+- Comedia$`, content)
	assert.Regexp(t, `(?m)^whereToWatch:\n\s+- platform: Netflix\n\s+icon: netflix$`, content)
	assert.Contains(t, content, "2024-03-01T12:00:00.123Z")
	assert.True(t, strings.HasSuffix(content, "\n---\n\ngreat\n"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFilePostStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	post := samplePost("crash-landing-on-you-1")
	post.Review = "# Heading\n\nSecond paragraph with: colon\n"
	require.NoError(t, store.Insert(ctx, post))

	got, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Draft, got.Draft)
	assert.True(t, post.CreatedAt.Equal(got.CreatedAt))

	err = store.Insert(ctx, post)
	assert.True(t, apperrors.IsStoreFault(err))
}

func TestFileStoreKeepsReviewLineEndings(t *testing.T) {
	store, err := NewFilePostStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	reviews := map[string]string{
		"crlf":          "line one\r\nline two",
		"trailing cr":   "x\r",
		"leading crlf":  "\r\nstarts blank",
		"mixed":         "a\r\nb\nc\r\n",
		"fence in body": "before\r\n---\r\nafter",
	}

	i := 0
	for name, review := range reviews {
		i++
		t.Run(name, func(t *testing.T) {
			post := samplePost(fmt.Sprintf("review-%d", i))
			post.Review = review
			require.NoError(t, store.Insert(ctx, post))

			got, err := store.FindByID(ctx, post.ID)
			require.NoError(t, err)
			assert.Equal(t, review, got.Review)
		})
	}
}

func TestDecodeCRLFPost(t *testing.T) {
	raw := "---\r\ntitle: x\r\ncreatedAt: \"2024-03-01T12:00:00.000Z\"\r\nupdatedAt: \"2024-03-01T12:00:00.000Z\"\r\n---\r\n\r\na\r\nb\r\n"

	post, err := DecodePostFile([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "x", post.Title)
	assert.Equal(t, "a\r\nb", post.Review)
}

func TestFileStoreReplaceAndDelete(t *testing.T) {
	store, err := NewFilePostStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	post := samplePost("abc-1")
	err = store.Replace(ctx, post)
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, store.Insert(ctx, post))
	post.Rating = 3.5
	require.NoError(t, store.Replace(ctx, post))

	got, err := store.FindByID(ctx, "abc-1")
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Rating)

	require.NoError(t, store.Delete(ctx, "abc-1"))
	assert.True(t, apperrors.IsNotFound(store.Delete(ctx, "abc-1")))
}

func TestFileStoreRejectsMalformedIDs(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePostStore(filepath.Join(dir, "posts"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.md"), []byte("---\ntitle: x\n---\n"), 0o644))
	ctx := context.Background()

	for _, id := range []string{"../secret", "", "Upper-Case", "a b", "a/../b", "-leading", "double--dash"} {
		t.Run(id, func(t *testing.T) {
			_, err := store.FindByID(ctx, id)
			assert.True(t, apperrors.IsNotFound(err))

			ok, err := store.Exists(ctx, id)
			require.NoError(t, err)
			assert.False(t, ok)

			assert.True(t, apperrors.IsNotFound(store.Delete(ctx, id)))
		})
	}

	_, err = os.Stat(filepath.Join(dir, "secret.md"))
	assert.NoError(t, err)
}

func TestFileStoreUnparseableFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePostStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.md"), []byte("no front matter here"), 0o644))
	ctx := context.Background()

	_, err = store.FindByID(ctx, "broken")
	assert.True(t, apperrors.IsStoreFault(err))

	_, err = store.FindAll(ctx)
	assert.True(t, apperrors.IsStoreFault(err))
}

func TestFileStoreSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePostStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, samplePost("one-1")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".one-1-123.tmp"), []byte("partial"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts.md"), 0o755))

	posts, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "one-1", posts[0].ID)
}

func TestDecodeHandWrittenPost(t *testing.T) {
	raw := `---
title: "Crash Landing on You"
coverImage: "https://upload.wikimedia.org/cloy.jpg"
rating: 5
status: "Finalizado"
tags: ["Romántico", "Comedia"]

createdAt: "2024-03-01T12:00:00.000Z"
updatedAt: "2024-03-02T08:30:00.000Z"
whereToWatch:
  - platform: "Netflix"
    icon: "netflix"
koreanCrush:
  name: "Hyun Bin"

---

Loved it.
`
	post, err := DecodePostFile([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Crash Landing on You", post.Title)
	assert.Equal(t, 5.0, post.Rating)
	assert.Equal(t, models.StatusFinished, post.Status)
	assert.Equal(t, []string{"Romántico", "Comedia"}, post.Tags)
	assert.Equal(t, []models.Platform{{Platform: "Netflix", Icon: "netflix"}}, post.WhereToWatch)
	assert.Equal(t, &models.KoreanCrush{Name: "Hyun Bin"}, post.KoreanCrush)
	assert.Nil(t, post.Song)
	assert.Equal(t, "Loved it.", post.Review)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC), post.UpdatedAt)
}

func TestDecodePostFileErrors(t *testing.T) {
	tests := map[string]string{
		"missing fence":     "title: x\n",
		"unterminated":      "---\ntitle: x\n",
		"bad yaml":          "---\ntitle: [x\n---\n\nbody\n",
		"bad timestamp":     "---\ntitle: x\ncreatedAt: yesterday\nupdatedAt: yesterday\n---\n\nbody\n",
		"missing createdAt": "---\ntitle: x\n---\n\nbody\n",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePostFile([]byte(raw))
			assert.Error(t, err)
		})
	}
}
