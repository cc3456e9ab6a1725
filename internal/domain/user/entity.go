// internal/domain/user/entity.go
package user

import (
	"errors"
	"strings"

	"hanami/internal/domain/docstore"
)

// User mirrors the Users/{uid} document.
// blockList と wasBlockedByList は逆向きのペアとして常にバッチで同時更新する。
type User struct {
	ID                     string   `json:"id"`
	UserName               string   `json:"userName,omitempty"`
	UserImage              string   `json:"userImage,omitempty"`
	UserBackgroundImage    string   `json:"userBackgroundImage,omitempty"`
	Categories             []string `json:"categories"`
	TreasureList           []string `json:"treasureList"`
	CollectionTreasureList []string `json:"collectionTreasureList"`
	BlockList              []string `json:"blockList"`
	WasBlockedByList       []string `json:"wasBlockedByList"`
}

// Store keys
const (
	FieldUserName               = "userName"
	FieldUserImage              = "userImage"
	FieldUserBackgroundImage    = "userBackgroundImage"
	FieldCategories             = "categories"
	FieldTreasureList           = "treasureList"
	FieldCollectionTreasureList = "collectionTreasureList"
	FieldBlockList              = "blockList"
	FieldWasBlockedByList       = "wasBlockedByList"
)

// Errors (single source)
var (
	ErrInvalidID       = errors.New("user: invalid id")
	ErrInvalidUserName = errors.New("user: invalid userName")
	ErrInvalidImageURL = errors.New("user: invalid image url")
	ErrSelfBlock       = errors.New("user: cannot block yourself")
)

// ValidateID checks a user ID.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return ErrInvalidID
	}
	return nil
}

// Decode converts a Users/{uid} document. Every field is optional,
// but a present field with the wrong type is a schema mismatch.
func Decode(doc docstore.Document) (User, error) {
	r := docstore.NewReader(doc)
	u := User{ID: doc.ID}

	var err error
	if u.UserName, err = r.OptString(FieldUserName); err != nil {
		return User{}, err
	}
	if u.UserImage, err = r.OptString(FieldUserImage); err != nil {
		return User{}, err
	}
	if u.UserBackgroundImage, err = r.OptString(FieldUserBackgroundImage); err != nil {
		return User{}, err
	}
	if u.Categories, err = r.StringList(FieldCategories); err != nil {
		return User{}, err
	}
	if u.TreasureList, err = r.StringList(FieldTreasureList); err != nil {
		return User{}, err
	}
	if u.CollectionTreasureList, err = r.StringList(FieldCollectionTreasureList); err != nil {
		return User{}, err
	}
	if u.BlockList, err = r.StringList(FieldBlockList); err != nil {
		return User{}, err
	}
	if u.WasBlockedByList, err = r.StringList(FieldWasBlockedByList); err != nil {
		return User{}, err
	}
	return u, nil
}

// Hidden returns the set of user IDs whose content u must not see:
// users u blocked plus users who blocked u.
func (u User) Hidden() map[string]struct{} {
	out := make(map[string]struct{}, len(u.BlockList)+len(u.WasBlockedByList))
	for _, id := range u.BlockList {
		out[id] = struct{}{}
	}
	for _, id := range u.WasBlockedByList {
		out[id] = struct{}{}
	}
	return out
}
