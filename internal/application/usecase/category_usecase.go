// internal/application/usecase/category_usecase.go
package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"

	"hanami/internal/domain/common"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

var (
	ErrRenameNotVerified = errors.New("category: rename not reflected on every treasure")
	ErrSameCategoryName  = errors.New("category: old and new names are identical")
)

// CategoryUsecase keeps the category label consistent between
// Users/{uid}.categories and every treasure's category field (both partitions).
type CategoryUsecase struct {
	treasures *TreasureUsecase
	opts      Options
	log       zerolog.Logger
}

func NewCategoryUsecase(treasures *TreasureUsecase, opts Options) *CategoryUsecase {
	opts = opts.normalized()
	return &CategoryUsecase{
		treasures: treasures,
		opts:      opts,
		log:       opts.Logger.With().Str("component", "category").Logger(),
	}
}

func (u *CategoryUsecase) ready() error {
	if u == nil || u.treasures == nil || u.treasures.store == nil {
		return ErrTreasureStoreNotConfigured
	}
	return nil
}

// AddCategory は ArrayUnion なので冪等（同時実行でも 1 件に収束する）。
func (u *CategoryUsecase) AddCategory(ctx context.Context, userID, name string) error {
	if err := u.ready(); err != nil {
		return err
	}
	userID, name = strings.TrimSpace(userID), strings.TrimSpace(name)
	if err := userdom.ValidateID(userID); err != nil {
		return err
	}
	if err := treasure.ValidateCategory(name); err != nil {
		return err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()
	return u.treasures.store.ArrayUnion(ctx, treasure.UserPath(userID), userdom.FieldCategories, name)
}

// DeleteCategoryAndTreasures cascade-deletes every treasure in the category,
// then removes the name from categories.
// 1 件でも削除に失敗したらカテゴリ名は残したまま失敗を返す（削除済みは戻さない）。
func (u *CategoryUsecase) DeleteCategoryAndTreasures(ctx context.Context, userID, name string) error {
	if err := u.ready(); err != nil {
		return err
	}
	userID, name = strings.TrimSpace(userID), strings.TrimSpace(name)
	if err := userdom.ValidateID(userID); err != nil {
		return err
	}
	if err := treasure.ValidateCategory(name); err != nil {
		return err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	log := u.log.With().Str("op", "deleteCategory").Str("userID", userID).Str("category", name).Logger()

	ts, err := u.treasures.listOwned(ctx, userID, categoryFilter(name))
	if err != nil {
		return err
	}

	fo := newFanout(u.opts.FanoutLimit)
	for _, t := range ts {
		id := t.ID
		fo.Go(ctx, treasure.OwnerPath(userID, id), func(ctx context.Context) error {
			return u.treasures.deleteCascade(ctx, userID, id)
		})
	}
	if err := flattenPartial(fo.Wait("deleteCategory")); err != nil {
		log.Error().Err(err).Int("treasures", len(ts)).Msg("cascade delete failed")
		return err
	}

	if err := u.treasures.store.ArrayRemove(ctx, treasure.UserPath(userID), userdom.FieldCategories, name); err != nil {
		log.Error().Err(err).Msg("categories update failed")
		return &common.PartialWriteError{
			Op:     "deleteCategory",
			Failed: []common.FailedWrite{{Path: treasure.UserPath(userID), Err: err}},
		}
	}
	log.Info().Int("treasures", len(ts)).Msg("category deleted")
	return nil
}

// RenameCategory renames oldName to newName.
//
//	step 1: categories から oldName を除去 → newName を追加（2 回の独立した書き込み）
//	step 2: oldName の treasure すべてを両 partition で newName に更新
//	step 3: newName で読み直して反映を確認（best-effort）
func (u *CategoryUsecase) RenameCategory(ctx context.Context, userID, oldName, newName string) error {
	if err := u.ready(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	oldName, newName = strings.TrimSpace(oldName), strings.TrimSpace(newName)
	if err := userdom.ValidateID(userID); err != nil {
		return err
	}
	if err := treasure.ValidateCategory(oldName); err != nil {
		return err
	}
	if err := treasure.ValidateCategory(newName); err != nil {
		return err
	}
	if oldName == newName {
		return ErrSameCategoryName
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	store := u.treasures.store
	userPath := treasure.UserPath(userID)
	log := u.log.With().Str("op", "renameCategory").Str("userID", userID).
		Str("from", oldName).Str("to", newName).Logger()

	// step 1
	if err := store.ArrayRemove(ctx, userPath, userdom.FieldCategories, oldName); err != nil {
		return err
	}
	if err := store.ArrayUnion(ctx, userPath, userdom.FieldCategories, newName); err != nil {
		log.Error().Err(err).Msg("category add failed after remove")
		return &common.PartialWriteError{
			Op:     "renameCategory",
			Failed: []common.FailedWrite{{Path: userPath, Err: err}},
		}
	}

	// step 2
	ts, err := u.treasures.listOwned(ctx, userID, categoryFilter(oldName))
	if err != nil {
		return err
	}
	ups := categoryUpdate(newName)
	fo := newFanout(u.opts.FanoutLimit)
	for _, t := range ts {
		u.treasures.scheduleUpdate(ctx, fo, userID, t.ID, ups)
	}
	err = fo.Wait("renameCategory")
	if u.treasures.cache != nil {
		for _, t := range ts {
			u.treasures.cache.Remove(t.ID)
		}
	}
	if err != nil {
		log.Error().Err(err).Int("treasures", len(ts)).Msg("category fan-out failed")
		return err
	}

	// step 3
	if len(ts) == 0 {
		log.Info().Msg("category renamed")
		return nil
	}
	after, err := u.treasures.listOwned(ctx, userID, categoryFilter(newName))
	if err != nil {
		log.Warn().Err(err).Msg("rename verification read failed")
		return nil
	}
	seen := make(map[string]struct{}, len(after))
	for _, t := range after {
		seen[t.ID] = struct{}{}
	}
	var missing []string
	for _, t := range ts {
		if _, ok := seen[t.ID]; !ok {
			missing = append(missing, t.ID)
		}
	}
	if len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("rename not verified")
		return ErrRenameNotVerified
	}
	log.Info().Int("treasures", len(ts)).Msg("category renamed")
	return nil
}

// ListCategories returns the user's categories in stored order.
// Users/{uid} が無い場合は空。
func (u *CategoryUsecase) ListCategories(ctx context.Context, userID string) ([]string, error) {
	usr, err := u.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if usr.Categories == nil {
		return []string{}, nil
	}
	return usr.Categories, nil
}

// SearchCategories fuzzy-matches pattern against the user's categories,
// best match first. 空の pattern は ListCategories と同じ。
func (u *CategoryUsecase) SearchCategories(ctx context.Context, userID, pattern string) ([]string, error) {
	cats, err := u.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return cats, nil
	}

	matches := fuzzy.Find(pattern, cats)
	sort.Stable(matches)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out, nil
}

func (u *CategoryUsecase) loadUser(ctx context.Context, userID string) (userdom.User, error) {
	if err := u.ready(); err != nil {
		return userdom.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if err := userdom.ValidateID(userID); err != nil {
		return userdom.User{}, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	doc, err := u.treasures.store.Get(ctx, treasure.UserPath(userID))
	if errors.Is(err, common.ErrNotFound) {
		return userdom.User{ID: userID}, nil
	}
	if err != nil {
		return userdom.User{}, err
	}
	return userdom.Decode(doc)
}
