package models

import (
	"strings"
	"time"
)

// Status is the viewing state of a drama.
type Status string

const (
	StatusWatching Status = "Viendo"
	StatusFinished Status = "Finalizado"
	StatusDropped  Status = "Abandonado"
)

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusWatching, StatusFinished, StatusDropped:
		return true
	}
	return false
}

// Icon keys accepted in whereToWatch entries.
const (
	IconNetflix    = "netflix"
	IconPrimeVideo = "primevideo"
	IconViki       = "viki"
	IconYouTube    = "youtube"
)

// Platform is a place where the drama can be watched.
type Platform struct {
	Platform string `json:"platform" bson:"platform" yaml:"platform" validate:"required"`
	Icon     string `json:"icon" bson:"icon" yaml:"icon" validate:"required,oneof=netflix primevideo viki youtube"`
}

// KoreanCrush is the actor the author fell for.
type KoreanCrush struct {
	Name  string `json:"name" bson:"name" yaml:"name" validate:"required"`
	Image string `json:"image,omitempty" bson:"image,omitempty" yaml:"image,omitempty" validate:"omitempty,url"`
}

// Song is the soundtrack pick of the drama.
type Song struct {
	Title      string `json:"title" bson:"title" yaml:"title" validate:"required"`
	Artist     string `json:"artist" bson:"artist" yaml:"artist"`
	YoutubeURL string `json:"youtubeUrl" bson:"youtubeUrl" yaml:"youtubeUrl" validate:"omitempty,url"`
}

// Draft is a post as submitted by the author, before the repository assigns
// an id and timestamps.
type Draft struct {
	Title         string       `json:"title" bson:"title" validate:"required"`
	CoverImage    string       `json:"coverImage" bson:"coverImage" validate:"omitempty,url"`
	Rating        float64      `json:"rating" bson:"rating" validate:"gte=0,lte=5,halfstep"`
	Review        string       `json:"review" bson:"review" validate:"required"`
	Status        Status       `json:"status" bson:"status" validate:"required,oneof=Viendo Finalizado Abandonado"`
	Tags          []string     `json:"tags" bson:"tags" validate:"unique,dive,required"`
	FavoriteQuote string       `json:"favoriteQuote,omitempty" bson:"favoriteQuote,omitempty"`
	WhereToWatch  []Platform   `json:"whereToWatch" bson:"whereToWatch" validate:"unique=Icon,dive"`
	KoreanCrush   *KoreanCrush `json:"koreanCrush,omitempty" bson:"koreanCrush,omitempty"`
	Song          *Song        `json:"song,omitempty" bson:"song,omitempty"`
}

// Post is one diary entry.
type Post struct {
	ID        string `json:"id" bson:"_id"`
	Draft     `bson:",inline"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PostUpdate carries the fields of a partial update. Nil means "leave as is".
// Nested values replace the stored ones wholesale.
type PostUpdate struct {
	Title         *string      `json:"title"`
	CoverImage    *string      `json:"coverImage"`
	Rating        *float64     `json:"rating"`
	Review        *string      `json:"review"`
	Status        *Status      `json:"status"`
	Tags          []string     `json:"tags"`
	FavoriteQuote *string      `json:"favoriteQuote"`
	WhereToWatch  []Platform   `json:"whereToWatch"`
	KoreanCrush   *KoreanCrush `json:"koreanCrush"`
	Song          *Song        `json:"song"`
}

// Normalize trims text fields, fills the default status, removes blank and
// duplicate tags and drops empty nested values.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.CoverImage = strings.TrimSpace(d.CoverImage)
	d.FavoriteQuote = strings.TrimSpace(d.FavoriteQuote)
	if strings.TrimSpace(d.Review) == "" {
		d.Review = ""
	}
	if d.Status == "" {
		d.Status = StatusWatching
	}

	d.Tags = UniqueTags(d.Tags)

	if d.WhereToWatch == nil {
		d.WhereToWatch = []Platform{}
	}
	for i := range d.WhereToWatch {
		d.WhereToWatch[i].Platform = strings.TrimSpace(d.WhereToWatch[i].Platform)
		d.WhereToWatch[i].Icon = strings.ToLower(strings.TrimSpace(d.WhereToWatch[i].Icon))
	}

	if d.KoreanCrush != nil {
		d.KoreanCrush.Name = strings.TrimSpace(d.KoreanCrush.Name)
		d.KoreanCrush.Image = strings.TrimSpace(d.KoreanCrush.Image)
		if d.KoreanCrush.Name == "" {
			d.KoreanCrush = nil
		}
	}
	if d.Song != nil {
		d.Song.Title = strings.TrimSpace(d.Song.Title)
		d.Song.Artist = strings.TrimSpace(d.Song.Artist)
		d.Song.YoutubeURL = strings.TrimSpace(d.Song.YoutubeURL)
		if d.Song.Title == "" {
			d.Song = nil
		}
	}
}

// UniqueTags trims tags and keeps the first occurrence of each.
func UniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Apply merges the present fields of u into d.
func (u PostUpdate) Apply(d *Draft) {
	if u.Title != nil {
		d.Title = *u.Title
	}
	if u.CoverImage != nil {
		d.CoverImage = *u.CoverImage
	}
	if u.Rating != nil {
		d.Rating = *u.Rating
	}
	if u.Review != nil {
		d.Review = *u.Review
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
	if u.Tags != nil {
		d.Tags = append(make([]string, 0, len(u.Tags)), u.Tags...)
	}
	if u.FavoriteQuote != nil {
		d.FavoriteQuote = *u.FavoriteQuote
	}
	if u.WhereToWatch != nil {
		d.WhereToWatch = append(make([]Platform, 0, len(u.WhereToWatch)), u.WhereToWatch...)
	}
	if u.KoreanCrush != nil {
		crush := *u.KoreanCrush
		d.KoreanCrush = &crush
	}
	if u.Song != nil {
		song := *u.Song
		d.Song = &song
	}
}

// Clone returns a deep copy so callers can mutate nested values freely.
func (d Draft) Clone() Draft {
	out := d
	if d.Tags != nil {
		out.Tags = append(make([]string, 0, len(d.Tags)), d.Tags...)
	}
	if d.WhereToWatch != nil {
		out.WhereToWatch = append(make([]Platform, 0, len(d.WhereToWatch)), d.WhereToWatch...)
	}
	if d.KoreanCrush != nil {
		crush := *d.KoreanCrush
		out.KoreanCrush = &crush
	}
	if d.Song != nil {
		song := *d.Song
		out.Song = &song
	}
	return out
}

// NewPostDraft returns the defaults of the admin "new post" form.
func NewPostDraft() Draft {
	return Draft{
		Rating:       5,
		Status:       StatusWatching,
		Tags:         []string{"Romántico"},
		WhereToWatch: []Platform{{Platform: "Netflix", Icon: IconNetflix}},
	}
}

// AdminRow is one line of the admin dashboard.
type AdminRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
