// internal/application/usecase/relationship_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

// Relationships is the pair of block lists stored on Users/{uid}.
type Relationships struct {
	UserID           string   `json:"userID"`
	BlockList        []string `json:"blockList"`
	WasBlockedByList []string `json:"wasBlockedByList"`
}

// RelationshipUsecase manages block lists and favorites.
//
// block/unblock は両ユーザーのドキュメントを 1 回の batch commit で更新する
// （このシステムで唯一のアトミックな複数ドキュメント書き込み）。
type RelationshipUsecase struct {
	store     docstore.Store
	treasures *TreasureUsecase
	opts      Options
	log       zerolog.Logger
}

func NewRelationshipUsecase(store docstore.Store, treasures *TreasureUsecase, opts Options) *RelationshipUsecase {
	opts = opts.normalized()
	return &RelationshipUsecase{
		store:     store,
		treasures: treasures,
		opts:      opts,
		log:       opts.Logger.With().Str("component", "relationship").Logger(),
	}
}

// -----------------------
// Block
// -----------------------

func (u *RelationshipUsecase) BlockUser(ctx context.Context, blockerID, blockedID string) error {
	return u.commitBlock(ctx, "blockUser", docstore.WriteArrayUnion, blockerID, blockedID)
}

func (u *RelationshipUsecase) RemoveBlock(ctx context.Context, blockerID, blockedID string) error {
	return u.commitBlock(ctx, "removeBlock", docstore.WriteArrayRemove, blockerID, blockedID)
}

func (u *RelationshipUsecase) commitBlock(ctx context.Context, op string, kind docstore.WriteKind, blockerID, blockedID string) error {
	if u == nil || u.store == nil {
		return ErrTreasureStoreNotConfigured
	}
	blockerID, blockedID = strings.TrimSpace(blockerID), strings.TrimSpace(blockedID)
	if err := userdom.ValidateID(blockerID); err != nil {
		return err
	}
	if err := userdom.ValidateID(blockedID); err != nil {
		return err
	}
	if blockerID == blockedID {
		return userdom.ErrSelfBlock
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	ops := []docstore.WriteOp{
		{Kind: kind, Path: treasure.UserPath(blockerID), Field: userdom.FieldBlockList, Values: []any{blockedID}},
		{Kind: kind, Path: treasure.UserPath(blockedID), Field: userdom.FieldWasBlockedByList, Values: []any{blockerID}},
	}
	if err := u.store.Commit(ctx, ops); err != nil {
		u.log.Error().Err(err).Str("op", op).Str("blocker", blockerID).Str("blocked", blockedID).Msg("batch commit failed")
		return err
	}
	u.log.Info().Str("op", op).Str("blocker", blockerID).Str("blocked", blockedID).Msg("relationship updated")
	return nil
}

// GetRelationships returns both block lists (empty when Users/{uid} is absent).
func (u *RelationshipUsecase) GetRelationships(ctx context.Context, userID string) (Relationships, error) {
	usr, err := u.loadUser(ctx, userID)
	if err != nil {
		return Relationships{}, err
	}
	return Relationships{
		UserID:           usr.ID,
		BlockList:        nonNil(usr.BlockList),
		WasBlockedByList: nonNil(usr.WasBlockedByList),
	}, nil
}

// -----------------------
// Favorites
// -----------------------

func (u *RelationshipUsecase) AddTreasureToFavorites(ctx context.Context, userID, treasureID string) error {
	return u.updateFavorites(ctx, userID, treasureID, true)
}

func (u *RelationshipUsecase) RemoveTreasureFromFavorites(ctx context.Context, userID, treasureID string) error {
	return u.updateFavorites(ctx, userID, treasureID, false)
}

func (u *RelationshipUsecase) updateFavorites(ctx context.Context, userID, treasureID string, add bool) error {
	if u == nil || u.store == nil {
		return ErrTreasureStoreNotConfigured
	}
	userID, treasureID = strings.TrimSpace(userID), strings.TrimSpace(treasureID)
	if err := validateIDs(userID, treasureID); err != nil {
		return err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	path := treasure.UserPath(userID)
	if add {
		return u.store.ArrayUnion(ctx, path, userdom.FieldCollectionTreasureList, treasureID)
	}
	return u.store.ArrayRemove(ctx, path, userdom.FieldCollectionTreasureList, treasureID)
}

// ListFavorites resolves collectionTreasureList through the global partition.
// 既に削除された treasure と、block 関係にあるユーザーの treasure は除外する。
func (u *RelationshipUsecase) ListFavorites(ctx context.Context, userID string) ([]treasure.Treasure, error) {
	if u.treasures == nil {
		return nil, ErrTreasureStoreNotConfigured
	}
	usr, err := u.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := dedupStrings(usr.CollectionTreasureList)
	hidden := usr.Hidden()

	// 読み込みなので PartialWriteError にはしない: 壊れたドキュメントはログを出して飛ばし、
	// それ以外の失敗は最初の 1 件をそのまま返す。
	found := make([]*treasure.Treasure, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.FanoutLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			t, err := u.treasures.FetchTreasureFromGlobal(gctx, id)
			switch {
			case errors.Is(err, common.ErrNotFound):
				return nil
			case errors.Is(err, common.ErrSchemaMismatch):
				u.log.Warn().Err(err).Str("treasureID", id).Msg("skip undecodable favorite")
				return nil
			case err != nil:
				return err
			}
			found[i] = &t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]treasure.Treasure, 0, len(ids))
	for _, t := range found {
		if t == nil {
			continue
		}
		if _, ok := hidden[t.UserID]; ok {
			continue
		}
		if !t.IsPublic && t.UserID != usr.ID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (u *RelationshipUsecase) loadUser(ctx context.Context, userID string) (userdom.User, error) {
	if u == nil || u.store == nil {
		return userdom.User{}, ErrTreasureStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if err := userdom.ValidateID(userID); err != nil {
		return userdom.User{}, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	doc, err := u.store.Get(ctx, treasure.UserPath(userID))
	if errors.Is(err, common.ErrNotFound) {
		return userdom.User{ID: userID}, nil
	}
	if err != nil {
		return userdom.User{}, err
	}
	return userdom.Decode(doc)
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
