// internal/domain/treasure/entity.go
package treasure

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// Treasure - ドメインエンティティ
//
// 同じ Treasure は必ず 2 か所に存在する:
// - owner partition : Users/{uid}/Treasures/{id}
// - global partition: AllTreasures/{id}
// スカラー項目は両者で常に一致していること（不一致は整合性バグ）。
type Treasure struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userID"`
	Category     string    `json:"category"`
	CreatedTime  time.Time `json:"createdTime"`
	IsPublic     bool      `json:"isPublic"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	LocationName string    `json:"locationName"`
	Contents     []Content `json:"contents"`
}

// ContentType is the media kind of a content item.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentLink  ContentType = "link"
	ContentAudio ContentType = "audio"
	ContentMap   ContentType = "map"
)

// IsValid reports whether t is one of the known content types.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentText, ContentImage, ContentVideo, ContentLink, ContentAudio, ContentMap:
		return true
	}
	return false
}

// IsMedia reports whether the payload of t is an uploaded media URL.
func (t ContentType) IsMedia() bool {
	return t == ContentImage || t == ContentVideo || t == ContentAudio
}

// Content is one ordered item of a Treasure.
// Index は表示順を決めるだけで連番である必要はない。
type Content struct {
	ID      string      `json:"id"`
	Type    ContentType `json:"type"`
	Content string      `json:"content"`
	Index   int         `json:"index"`
}

// Summary is the map-annotation projection of a Treasure (no contents).
type Summary struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UserID    string  `json:"userID"`
}

// Bounds is a rectangular lat/lng viewport.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Errors
var (
	ErrInvalidID           = errors.New("treasure: invalid id")
	ErrInvalidUserID       = errors.New("treasure: invalid userID")
	ErrInvalidCategory     = errors.New("treasure: invalid category")
	ErrInvalidCoordinate   = errors.New("treasure: invalid coordinate")
	ErrInvalidLocationName = errors.New("treasure: invalid locationName")
	ErrInvalidContentType  = errors.New("treasure: invalid content type")
	ErrInvalidContent      = errors.New("treasure: invalid content")
	ErrInvalidBounds       = errors.New("treasure: invalid bounds")
)

// Policy
var (
	MaxCategoryLength     = 100
	MaxLocationNameLength = 300
	MaxContentLength      = 20000
	MaxContentsPerSave    = 50
)

// ValidateCoordinate checks latitude/longitude ranges.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return ErrInvalidCoordinate
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// ValidateCategory checks a category label.
func ValidateCategory(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxCategoryLength {
		return ErrInvalidCategory
	}
	return nil
}

// ValidateContent checks one content item (ID is assigned later by the repository).
func ValidateContent(c Content) error {
	if !c.Type.IsValid() {
		return ErrInvalidContentType
	}
	if strings.TrimSpace(c.Content) == "" || len(c.Content) > MaxContentLength {
		return ErrInvalidContent
	}
	return nil
}

// Validate checks the scalar fields of t.
func (t Treasure) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.UserID) == "" {
		return ErrInvalidUserID
	}
	if err := ValidateCategory(t.Category); err != nil {
		return err
	}
	if err := ValidateCoordinate(t.Latitude, t.Longitude); err != nil {
		return err
	}
	if len([]rune(t.LocationName)) > MaxLocationNameLength {
		return ErrInvalidLocationName
	}
	for _, c := range t.Contents {
		if err := ValidateContent(c); err != nil {
			return err
		}
	}
	return nil
}

// Summary projects t for map annotations.
func (t Treasure) Summary() Summary {
	return Summary{ID: t.ID, Latitude: t.Latitude, Longitude: t.Longitude, UserID: t.UserID}
}

// SameScalars reports whether a and b agree on every scalar field.
// Contents are not compared.
func SameScalars(a, b Treasure) bool {
	return a.ID == b.ID &&
		a.UserID == b.UserID &&
		a.Category == b.Category &&
		a.CreatedTime.Equal(b.CreatedTime) &&
		a.IsPublic == b.IsPublic &&
		a.Latitude == b.Latitude &&
		a.Longitude == b.Longitude &&
		a.LocationName == b.LocationName
}

// SortContents orders contents by Index, then ID for equal indexes.
func SortContents(cs []Content) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Index != cs[j].Index {
			return cs[i].Index < cs[j].Index
		}
		return cs[i].ID < cs[j].ID
	})
}

// MaxIndex returns the largest Index in cs, or -1 when cs is empty.
func MaxIndex(cs []Content) int {
	m := -1
	for _, c := range cs {
		if c.Index > m {
			m = c.Index
		}
	}
	return m
}

// Validate checks that b describes a non-empty viewport inside the coordinate ranges.
// 日付変更線をまたぐ viewport (MinLng > MaxLng) は扱わない。
func (b Bounds) Validate() error {
	if err := ValidateCoordinate(b.MinLat, b.MinLng); err != nil {
		return ErrInvalidBounds
	}
	if err := ValidateCoordinate(b.MaxLat, b.MaxLng); err != nil {
		return ErrInvalidBounds
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return ErrInvalidBounds
	}
	return nil
}

// Contains reports whether (lat, lng) lies inside b (edges inclusive).
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
