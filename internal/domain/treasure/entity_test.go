package treasure

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTreasure() Treasure {
	return Treasure{
		ID:          "t1",
		UserID:      "u1",
		Category:    "花見",
		CreatedTime: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		IsPublic:    true,
		Latitude:    35.68,
		Longitude:   139.76,
		Contents: []Content{
			{ID: "c1", Type: ContentText, Content: "桜がきれい", Index: 0},
		},
	}
}

func TestValidateCoordinate(t *testing.T) {
	assert.NoError(t, ValidateCoordinate(0, 0))
	assert.NoError(t, ValidateCoordinate(-90, -180))
	assert.NoError(t, ValidateCoordinate(90, 180))

	assert.ErrorIs(t, ValidateCoordinate(90.01, 0), ErrInvalidCoordinate)
	assert.ErrorIs(t, ValidateCoordinate(0, -180.5), ErrInvalidCoordinate)
	assert.ErrorIs(t, ValidateCoordinate(math.NaN(), 0), ErrInvalidCoordinate)
}

func TestTreasure_Validate(t *testing.T) {
	require.NoError(t, validTreasure().Validate())

	cases := map[string]struct {
		mut  func(*Treasure)
		want error
	}{
		"empty id":        {func(t *Treasure) { t.ID = "" }, ErrInvalidID},
		"empty owner":     {func(t *Treasure) { t.UserID = " " }, ErrInvalidUserID},
		"empty category":  {func(t *Treasure) { t.Category = "" }, ErrInvalidCategory},
		"long category":   {func(t *Treasure) { t.Category = strings.Repeat("x", MaxCategoryLength+1) }, ErrInvalidCategory},
		"bad latitude":    {func(t *Treasure) { t.Latitude = 91 }, ErrInvalidCoordinate},
		"long location":   {func(t *Treasure) { t.LocationName = strings.Repeat("x", MaxLocationNameLength+1) }, ErrInvalidLocationName},
		"bad type":        {func(t *Treasure) { t.Contents[0].Type = "gif" }, ErrInvalidContentType},
		"empty content":   {func(t *Treasure) { t.Contents[0].Content = "  " }, ErrInvalidContent},
		"content too big": {func(t *Treasure) { t.Contents[0].Content = strings.Repeat("x", MaxContentLength+1) }, ErrInvalidContent},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			tr := validTreasure()
			c.mut(&tr)
			assert.ErrorIs(t, tr.Validate(), c.want)
		})
	}
}

func TestContentType(t *testing.T) {
	for _, ct := range []ContentType{ContentText, ContentImage, ContentVideo, ContentLink, ContentAudio, ContentMap} {
		assert.True(t, ct.IsValid(), ct)
	}
	assert.False(t, ContentType("sticker").IsValid())

	assert.True(t, ContentImage.IsMedia())
	assert.True(t, ContentVideo.IsMedia())
	assert.True(t, ContentAudio.IsMedia())
	assert.False(t, ContentLink.IsMedia())
	assert.False(t, ContentText.IsMedia())
}

func TestSortContents_ByIndexThenID(t *testing.T) {
	cs := []Content{
		{ID: "b", Index: 5},
		{ID: "z", Index: 1},
		{ID: "a", Index: 5},
		{ID: "m", Index: -2},
	}
	SortContents(cs)

	var ids []string
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"m", "z", "a", "b"}, ids)
	assert.Equal(t, 5, MaxIndex(cs))
	assert.Equal(t, -1, MaxIndex(nil))
}

func TestSameScalars(t *testing.T) {
	a := validTreasure()
	b := validTreasure()
	b.Contents = nil
	b.CreatedTime = a.CreatedTime.In(time.FixedZone("JST", 9*60*60))
	assert.True(t, SameScalars(a, b))

	b.IsPublic = false
	assert.False(t, SameScalars(a, b))
}

func TestBounds(t *testing.T) {
	b := Bounds{MinLat: 35, MaxLat: 36, MinLng: 139, MaxLng: 140}
	require.NoError(t, b.Validate())

	assert.True(t, b.Contains(35, 139))
	assert.True(t, b.Contains(36, 140))
	assert.True(t, b.Contains(35.5, 139.5))
	assert.False(t, b.Contains(34.99, 139.5))
	assert.False(t, b.Contains(35.5, 140.01))

	assert.ErrorIs(t, Bounds{MinLat: 36, MaxLat: 35, MinLng: 0, MaxLng: 1}.Validate(), ErrInvalidBounds)
	assert.ErrorIs(t, Bounds{MinLat: 0, MaxLat: 91, MinLng: 0, MaxLng: 1}.Validate(), ErrInvalidBounds)
	// antimeridian-crossing viewport
	assert.ErrorIs(t, Bounds{MinLat: 0, MaxLat: 1, MinLng: 170, MaxLng: -170}.Validate(), ErrInvalidBounds)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "Users/u1", UserPath("u1"))
	assert.Equal(t, "Users/u1/Treasures", OwnerCollection("u1"))
	assert.Equal(t, "Users/u1/Treasures/t1", OwnerPath("u1", "t1"))
	assert.Equal(t, "AllTreasures/t1", GlobalPath("t1"))
	assert.Equal(t, "AllTreasures/t1/Contents", ContentsOf(GlobalPath("t1")))
	assert.Equal(t, "AllTreasures/t1/Contents/c1", ContentPath(GlobalPath("t1"), "c1"))
	assert.Equal(t, []string{"Users/u1/Treasures/t1", "AllTreasures/t1"}, Partitions("u1", "t1"))
}
