// internal/application/usecase/user_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

// UserUsecase orchestrates the display profile on Users/{uid}.
// 配列フィールド（categories / blockList 等）は他の usecase が扱う。
type UserUsecase struct {
	store docstore.Store
	opts  Options
}

func NewUserUsecase(store docstore.Store, opts Options) *UserUsecase {
	return &UserUsecase{store: store, opts: opts.normalized()}
}

// Queries

// GetByID returns the user record; a missing document reads as an empty profile.
func (u *UserUsecase) GetByID(ctx context.Context, id string) (userdom.User, error) {
	if u == nil || u.store == nil {
		return userdom.User{}, ErrTreasureStoreNotConfigured
	}
	id = strings.TrimSpace(id)
	if err := userdom.ValidateID(id); err != nil {
		return userdom.User{}, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	doc, err := u.store.Get(ctx, treasure.UserPath(id))
	if errors.Is(err, common.ErrNotFound) {
		return userdom.User{ID: id}, nil
	}
	if err != nil {
		return userdom.User{}, err
	}
	return userdom.Decode(doc)
}

// Commands

// UpdateProfile applies a partial profile update.
// merge 書き込みなので、ドキュメントが無ければ作成し、配列フィールドには触れない。
func (u *UserUsecase) UpdateProfile(ctx context.Context, id string, in userdom.UpdateProfileInput) (userdom.User, error) {
	if u == nil || u.store == nil {
		return userdom.User{}, ErrTreasureStoreNotConfigured
	}
	id = strings.TrimSpace(id)
	if err := userdom.ValidateID(id); err != nil {
		return userdom.User{}, err
	}
	if in.IsEmpty() {
		return u.GetByID(ctx, id)
	}
	fields, err := in.Fields()
	if err != nil {
		return userdom.User{}, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	if err := u.store.Merge(ctx, treasure.UserPath(id), fields); err != nil {
		return userdom.User{}, err
	}
	return u.GetByID(ctx, id)
}
