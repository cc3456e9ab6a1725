package treasure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
)

func TestDecode_RoundTripsToFields(t *testing.T) {
	in := validTreasure()
	doc := docstore.Document{Path: GlobalPath(in.ID), ID: in.ID, Data: ToFields(in)}

	got, err := Decode(doc)
	require.NoError(t, err)
	assert.True(t, SameScalars(in, got))
	assert.Empty(t, got.Contents)
}

func TestDecode_AcceptsIntegerCoordinates(t *testing.T) {
	data := ToFields(validTreasure())
	data[FieldLatitude] = int64(35)
	data[FieldLongitude] = int64(139)

	got, err := Decode(docstore.Document{Path: "AllTreasures/t1", ID: "t1", Data: data})
	require.NoError(t, err)
	assert.Equal(t, 35.0, got.Latitude)
	assert.Equal(t, 139.0, got.Longitude)
}

func TestDecode_LocationNameOptional(t *testing.T) {
	data := ToFields(validTreasure())
	delete(data, FieldLocationName)

	got, err := Decode(docstore.Document{Path: "AllTreasures/t1", ID: "t1", Data: data})
	require.NoError(t, err)
	assert.Equal(t, "", got.LocationName)
}

func TestDecode_SchemaMismatch(t *testing.T) {
	cases := map[string]func(map[string]any){
		"missing latitude":   func(m map[string]any) { delete(m, FieldLatitude) },
		"string latitude":    func(m map[string]any) { m[FieldLatitude] = "35.6" },
		"missing category":   func(m map[string]any) { delete(m, FieldCategory) },
		"numeric isPublic":   func(m map[string]any) { m[FieldIsPublic] = int64(1) },
		"string createdTime": func(m map[string]any) { m[FieldCreatedTime] = "2024-04-01" },
		"missing userID":     func(m map[string]any) { delete(m, FieldUserID) },
		"numeric location":   func(m map[string]any) { m[FieldLocationName] = int64(3) },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			data := ToFields(validTreasure())
			mut(data)
			_, err := Decode(docstore.Document{Path: "AllTreasures/t1", ID: "t1", Data: data})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrSchemaMismatch)
		})
	}
}

func TestDecodeContent(t *testing.T) {
	c := Content{ID: "c1", Type: ContentImage, Content: "https://example.com/a.jpg", Index: 3}
	doc := docstore.Document{Path: "AllTreasures/t1/Contents/c1", ID: "c1", Data: ContentToFields(c)}

	got, err := DecodeContent(doc)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// index stored as a float by another client
	doc.Data[FieldIndex] = float64(4)
	got, err = DecodeContent(doc)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Index)

	doc.Data[FieldIndex] = 4.5
	_, err = DecodeContent(doc)
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	doc.Data[FieldIndex] = int64(1)
	doc.Data[FieldType] = "sticker"
	_, err = DecodeContent(doc)
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestDecodeSummary(t *testing.T) {
	data := map[string]any{
		FieldLatitude:  35.1,
		FieldLongitude: 139.2,
		FieldUserID:    "u9",
		// the rest may be malformed; a summary does not read it
		FieldCreatedTime: "garbage",
	}
	s, err := DecodeSummary(docstore.Document{Path: "AllTreasures/t9", ID: "t9", Data: data})
	require.NoError(t, err)
	assert.Equal(t, Summary{ID: "t9", Latitude: 35.1, Longitude: 139.2, UserID: "u9"}, s)

	_, err = DecodeSummary(docstore.Document{Path: "AllTreasures/t9", ID: "t9", Data: map[string]any{FieldLatitude: 1.0}})
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestToFields_CreatedTimeIsUTC(t *testing.T) {
	tr := validTreasure()
	tr.CreatedTime = time.Date(2024, 4, 1, 18, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	got := ToFields(tr)[FieldCreatedTime].(time.Time)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(tr.CreatedTime))
}
