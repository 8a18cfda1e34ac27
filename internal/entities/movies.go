package entities

import (
	"encoding/json"
)

// LocalUserID is the user scope used when no authenticated user is present.
// Relations created under it are merged into the account on login.
const LocalUserID = "local"

// Movie is locally cached metadata for a remote movie. Rows are upserted
// whenever a favorite/watchlist relation references them and are only
// removed by orphan cleanup.
type Movie struct {
	ID           int64   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title        string  `gorm:"size:512" json:"title"`
	Overview     string  `gorm:"type:text" json:"overview,omitempty"`
	PosterPath   string  `gorm:"size:256" json:"poster_path,omitempty"`
	BackdropPath string  `gorm:"size:256" json:"backdrop_path,omitempty"`
	ReleaseDate  string  `gorm:"size:10" json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	GenreIDs     string  `gorm:"type:text" json:"-"` // JSON-encoded []int
	UpdatedAt    int64   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Movie) TableName() string {
	return "movies"
}

// Genres decodes the serialized genre id list. A corrupt or non-array
// payload resolves to an empty list rather than an error.
func (m *Movie) Genres() []int {
	if m.GenreIDs == "" {
		return []int{}
	}
	var ids []int
	if err := json.Unmarshal([]byte(m.GenreIDs), &ids); err != nil || ids == nil {
		return []int{}
	}
	return ids
}

// SetGenres serializes the genre id list for storage.
func (m *Movie) SetGenres(ids []int) {
	if ids == nil {
		ids = []int{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		m.GenreIDs = "[]"
		return
	}
	m.GenreIDs = string(data)
}

// Favorite links a user to a movie. At most one row per (movie, user).
type Favorite struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MovieID   int64  `gorm:"uniqueIndex:idx_favorites_movie_user" json:"movie_id"`
	UserID    string `gorm:"uniqueIndex:idx_favorites_movie_user;size:64;default:'local'" json:"user_id"`
	Synced    bool   `gorm:"default:false" json:"synced"`
	Movie     Movie  `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// WatchlistItem links a user to a movie on their watchlist.
type WatchlistItem struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MovieID   int64  `gorm:"uniqueIndex:idx_watchlist_movie_user" json:"movie_id"`
	UserID    string `gorm:"uniqueIndex:idx_watchlist_movie_user;size:64;default:'local'" json:"user_id"`
	Synced    bool   `gorm:"default:false" json:"synced"`
	Movie     Movie  `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WatchlistItem) TableName() string {
	return "watchlist"
}
