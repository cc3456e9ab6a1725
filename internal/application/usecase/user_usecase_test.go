package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/adapters/out/memstore"
	"hanami/internal/domain/docstore"
	userdom "hanami/internal/domain/user"
)

func strp(s string) *string { return &s }

func TestUserUsecase_Profile(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	uc := NewUserUsecase(s, testOptions())

	u, err := uc.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, userdom.User{ID: "u1"}, u)

	u, err = uc.UpdateProfile(ctx, "u1", userdom.UpdateProfileInput{
		UserName:  strp(" hanako "),
		UserImage: strp("https://example.com/me.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hanako", u.UserName)
	assert.Equal(t, "https://example.com/me.png", u.UserImage)

	// 配列フィールドを持つ既存ドキュメントは Update で部分更新される
	cuc := NewCategoryUsecase(NewTreasureUsecase(s, testOptions()), testOptions())
	require.NoError(t, cuc.AddCategory(ctx, "u1", "花見"))

	u, err = uc.UpdateProfile(ctx, "u1", userdom.UpdateProfileInput{UserName: strp("taro")})
	require.NoError(t, err)
	assert.Equal(t, "taro", u.UserName)
	assert.Equal(t, "https://example.com/me.png", u.UserImage)
	assert.Equal(t, []string{"花見"}, u.Categories)

	same, err := uc.UpdateProfile(ctx, "u1", userdom.UpdateProfileInput{})
	require.NoError(t, err)
	assert.Equal(t, u, same)

	_, err = uc.GetByID(ctx, "a/b")
	assert.ErrorIs(t, err, userdom.ErrInvalidID)
}

// racingUnionStore lands an ArrayUnion on the same document right before each Merge.
type racingUnionStore struct {
	docstore.Store
}

func (r *racingUnionStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	if err := r.Store.ArrayUnion(ctx, path, userdom.FieldCategories, "花見"); err != nil {
		return err
	}
	return r.Store.Merge(ctx, path, fields)
}

func TestUserUsecase_UpdateProfileKeepsConcurrentArrays(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	uc := NewUserUsecase(&racingUnionStore{Store: s}, testOptions())

	u, err := uc.UpdateProfile(ctx, "u1", userdom.UpdateProfileInput{UserName: strp("hanako")})
	require.NoError(t, err)
	assert.Equal(t, "hanako", u.UserName)
	assert.Equal(t, []string{"花見"}, u.Categories)
}
