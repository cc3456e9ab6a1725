// internal/domain/treasure/codec.go
package treasure

import (
	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
)

// Store keys (Treasure)
const (
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
	FieldLocationName = "locationName"
	FieldCategory     = "category"
	FieldIsPublic     = "isPublic"
	FieldCreatedTime  = "createdTime"
	FieldUserID       = "userID"
)

// Store keys (Content)
const (
	FieldType    = "type"
	FieldContent = "content"
	FieldIndex   = "index"
)

// ToFields returns the scalar fields written to both partitions.
func ToFields(t Treasure) map[string]any {
	return map[string]any{
		FieldLatitude:     t.Latitude,
		FieldLongitude:    t.Longitude,
		FieldLocationName: t.LocationName,
		FieldCategory:     t.Category,
		FieldIsPublic:     t.IsPublic,
		FieldCreatedTime:  t.CreatedTime.UTC(),
		FieldUserID:       t.UserID,
	}
}

// ContentToFields returns the fields of one Contents sub-document.
func ContentToFields(c Content) map[string]any {
	return map[string]any{
		FieldType:    string(c.Type),
		FieldContent: c.Content,
		FieldIndex:   int64(c.Index),
	}
}

// Decode converts a treasure document into its scalar fields (no contents).
func Decode(doc docstore.Document) (Treasure, error) {
	r := docstore.NewReader(doc)

	var (
		t   = Treasure{ID: doc.ID}
		err error
	)
	if t.Latitude, err = r.Float(FieldLatitude); err != nil {
		return Treasure{}, err
	}
	if t.Longitude, err = r.Float(FieldLongitude); err != nil {
		return Treasure{}, err
	}
	if t.LocationName, err = r.OptString(FieldLocationName); err != nil {
		return Treasure{}, err
	}
	if t.Category, err = r.String(FieldCategory); err != nil {
		return Treasure{}, err
	}
	if t.IsPublic, err = r.Bool(FieldIsPublic); err != nil {
		return Treasure{}, err
	}
	if t.CreatedTime, err = r.Time(FieldCreatedTime); err != nil {
		return Treasure{}, err
	}
	if t.UserID, err = r.String(FieldUserID); err != nil {
		return Treasure{}, err
	}
	return t, nil
}

// DecodeContent converts one Contents sub-document.
func DecodeContent(doc docstore.Document) (Content, error) {
	r := docstore.NewReader(doc)

	typ, err := r.String(FieldType)
	if err != nil {
		return Content{}, err
	}
	ct := ContentType(typ)
	if !ct.IsValid() {
		return Content{}, common.SchemaError(doc.Path, FieldType, "has unknown value "+typ)
	}
	body, err := r.String(FieldContent)
	if err != nil {
		return Content{}, err
	}
	idx, err := r.Int(FieldIndex)
	if err != nil {
		return Content{}, err
	}
	return Content{ID: doc.ID, Type: ct, Content: body, Index: idx}, nil
}

// DecodeSummary reads only the map-annotation projection.
func DecodeSummary(doc docstore.Document) (Summary, error) {
	r := docstore.NewReader(doc)

	lat, err := r.Float(FieldLatitude)
	if err != nil {
		return Summary{}, err
	}
	lng, err := r.Float(FieldLongitude)
	if err != nil {
		return Summary{}, err
	}
	uid, err := r.String(FieldUserID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{ID: doc.ID, Latitude: lat, Longitude: lng, UserID: uid}, nil
}
