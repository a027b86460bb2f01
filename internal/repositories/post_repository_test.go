package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anonto42/kdiary/backend/internal/models"
	mock_repositories "github.com/anonto42/kdiary/backend/internal/repositories/mocks"
	apperrors "github.com/anonto42/kdiary/backend/pkg/errors"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRepository(t *testing.T) (PostRepository, *manualClock) {
	t.Helper()
	store, err := NewFilePostStore(t.TempDir())
	require.NoError(t, err)
	clock := &manualClock{now: time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)}
	return NewPostRepository(store, WithClock(clock.Now)), clock
}

func sampleDraft() models.Draft {
	return models.Draft{
		Title:      "Crash Landing on You",
		CoverImage: "https://upload.wikimedia.org/cloy.jpg",
		Rating:     5,
		Review:     "great",
		Status:     models.StatusFinished,
		Tags:       []string{"Romántico"},
		WhereToWatch: []models.Platform{
			{Platform: "Netflix", Icon: models.IconNetflix},
		},
		KoreanCrush: &models.KoreanCrush{Name: "Hyun Bin"},
		Song:        &models.Song{Title: "Flower", Artist: "Yoon Mirae", YoutubeURL: "https://www.youtube.com/watch?v=abc"},
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "crash-landing-on-you-"))

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	want := sampleDraft()
	want.Normalize()
	assert.Equal(t, id, post.ID)
	assert.Equal(t, want, post.Draft)

	stamp := clock.now.UTC().Truncate(time.Millisecond)
	assert.True(t, stamp.Equal(post.CreatedAt))
	assert.True(t, stamp.Equal(post.UpdatedAt))

	ok, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateDefaultsAndNormalizes(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, models.Draft{Title: "Dramaholic", Review: "x", Tags: []string{"A", "A"}})
	require.NoError(t, err)

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, post.Tags)
	assert.Equal(t, models.StatusWatching, post.Status)
	assert.Equal(t, []models.Platform{}, post.WhereToWatch)
	assert.Nil(t, post.KoreanCrush)
	assert.Nil(t, post.Song)
}

func TestCreateRejectsInvalidDraft(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	d := sampleDraft()
	d.Rating = 6

	_, err := repo.Create(ctx, d)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "rating", apperrors.FieldOf(err))

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreateSameTitleSameMillisecond(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)
	second, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, first+"-2", second)
}

func TestDeleteThenGet(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.GetByID(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))

	err = repo.Delete(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))

	ok, err := repo.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateOnlyRating(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)
	before, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	rating := 4.5
	require.NoError(t, repo.Update(ctx, id, models.PostUpdate{Rating: &rating}))

	after, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	want := before.Draft.Clone()
	want.Rating = 4.5
	assert.Equal(t, want, after.Draft)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateReplacesNestedValues(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)

	err = repo.Update(ctx, id, models.PostUpdate{
		WhereToWatch: []models.Platform{{Platform: "Viki", Icon: models.IconViki}},
		KoreanCrush:  &models.KoreanCrush{Name: "Son Ye-jin"},
	})
	require.NoError(t, err)

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []models.Platform{{Platform: "Viki", Icon: models.IconViki}}, post.WhereToWatch)
	assert.Equal(t, &models.KoreanCrush{Name: "Son Ye-jin"}, post.KoreanCrush)
	assert.Equal(t, "Flower", post.Song.Title)
}

func TestUpdateClearsNestedValuesWithBlankNames(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)

	// nil leaves the value alone; a blank name or title clears it
	require.NoError(t, repo.Update(ctx, id, models.PostUpdate{}))
	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, post.KoreanCrush)
	require.NotNil(t, post.Song)

	err = repo.Update(ctx, id, models.PostUpdate{
		KoreanCrush: &models.KoreanCrush{Name: "  "},
		Song:        &models.Song{Title: ""},
		Tags:        []string{},
	})
	require.NoError(t, err)

	post, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, post.KoreanCrush)
	assert.Nil(t, post.Song)
	assert.Equal(t, []string{}, post.Tags)
}

func TestCreateKeepsCRLFReview(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for _, review := range []string{"line one\r\nline two", "x\r"} {
		draft := sampleDraft()
		draft.Review = review

		id, err := repo.Create(ctx, draft)
		require.NoError(t, err)

		post, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, review, post.Review)
	}
}

func TestUpdateErrors(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	rating := 4.0
	err := repo.Update(ctx, "missing-1", models.PostUpdate{Rating: &rating})
	assert.True(t, apperrors.IsNotFound(err))

	id, err := repo.Create(ctx, sampleDraft())
	require.NoError(t, err)

	bad := models.Status("Watching")
	err = repo.Update(ctx, id, models.PostUpdate{Status: &bad})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "status", apperrors.FieldOf(err))

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, post.Status)
}

func TestListAllOrdering(t *testing.T) {
	repo, clock := newTestRepository(t)
	ctx := context.Background()

	titles := []string{"Alpha", "Bravo", "Charlie"}
	offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
	start := clock.now

	for i, title := range titles {
		clock.now = start.Add(offsets[i])
		d := sampleDraft()
		d.Title = title
		_, err := repo.Create(ctx, d)
		require.NoError(t, err)
	}

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "Bravo", posts[0].Title)
	assert.Equal(t, "Charlie", posts[1].Title)
	assert.Equal(t, "Alpha", posts[2].Title)

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, posts[0].ID, latest.ID)
}

func TestListAllTieBreaksByID(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	for _, title := range []string{"Zeta", "Beta"} {
		d := sampleDraft()
		d.Title = title
		_, err := repo.Create(ctx, d)
		require.NoError(t, err)
	}

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "Beta", posts[0].Title)
	assert.Equal(t, "Zeta", posts[1].Title)
}

func TestEmptyStore(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	_, err = repo.GetLatest(ctx)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStoreErrorsAreClassified(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_repositories.NewMockPostStore(ctrl)
	repo := NewPostRepository(store)
	ctx := context.Background()

	store.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("disk on fire"))
	_, err := repo.ListAll(ctx)
	assert.True(t, apperrors.IsStoreFault(err))

	store.EXPECT().FindByID(gomock.Any(), "gone").Return(nil, apperrors.NotFound("post not found"))
	_, err = repo.GetByID(ctx, "gone")
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, apperrors.IsStoreFault(err))

	store.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
	_, err = repo.Create(ctx, sampleDraft())
	assert.True(t, apperrors.IsStoreFault(err))
}

func TestCreateSkipsTakenIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_repositories.NewMockPostStore(ctrl)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := NewPostRepository(store, WithClock(func() time.Time { return now }))

	base := "crash-landing-on-you-1709251200000"
	gomock.InOrder(
		store.EXPECT().Exists(gomock.Any(), base).Return(true, nil),
		store.EXPECT().Exists(gomock.Any(), base+"-2").Return(true, nil),
		store.EXPECT().Exists(gomock.Any(), base+"-3").Return(false, nil),
	)
	store.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *models.Post) error {
		assert.Equal(t, base+"-3", p.ID)
		assert.True(t, now.Equal(p.CreatedAt))
		return nil
	})

	id, err := repo.Create(context.Background(), sampleDraft())
	require.NoError(t, err)
	assert.Equal(t, base+"-3", id)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Crash Landing on You", want: "crash-landing-on-you"},
		{in: "  Amor   Fugaz ¡Otra vez! ", want: "amor-fugaz-otra-vez"},
		{in: "Él y Ella", want: "el-y-ella"},
		{in: "Reply 1988", want: "reply-1988"},
		{in: "사랑의 불시착", want: "post"},
		{in: "", want: "post"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
