// internal/application/usecase/treasure_usecase.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

var (
	ErrTreasureStoreNotConfigured = errors.New("treasure: store not configured")
	ErrTreasureNotOwned           = errors.New("treasure: not owned by caller")
	ErrTooManyContents            = errors.New("treasure: too many contents")
)

// MediaCleaner removes uploaded media objects referenced by content URLs.
// nil でも動く（メディア削除をスキップ）。
type MediaCleaner interface {
	DeleteByURL(ctx context.Context, rawURL string) error
}

// TreasureCache is an optional process-local cache of global-partition reads.
// Remove は無効化カウンタを進める。AddIfCurrent は読み込み開始時の
// Generation から変化していなければ入れる。
type TreasureCache interface {
	Get(id string) (treasure.Treasure, bool)
	Generation() uint64
	AddIfCurrent(t treasure.Treasure, gen uint64) bool
	Remove(id string)
}

// TreasureUsecase is the dual-write treasure repository.
//
// すべての書き込みは owner partition (Users/{uid}/Treasures) と
// global partition (AllTreasures) の両方に対して行う。
// トランザクションは使わない: 途中失敗時は PartialWriteError を返し、ロールバックしない。
type TreasureUsecase struct {
	store docstore.Store
	media MediaCleaner
	cache TreasureCache
	opts  Options
	log   zerolog.Logger
}

func NewTreasureUsecase(store docstore.Store, opts Options) *TreasureUsecase {
	opts = opts.normalized()
	return &TreasureUsecase{
		store: store,
		opts:  opts,
		log:   opts.Logger.With().Str("component", "treasure").Logger(),
	}
}

func (u *TreasureUsecase) WithMediaCleaner(m MediaCleaner) *TreasureUsecase {
	u.media = m
	return u
}

func (u *TreasureUsecase) WithCache(c TreasureCache) *TreasureUsecase {
	u.cache = c
	return u
}

// -----------------------
// Commands
// -----------------------

type SaveTreasureInput struct {
	OwnerID      string             `json:"-"`
	Latitude     float64            `json:"latitude"`
	Longitude    float64            `json:"longitude"`
	LocationName string             `json:"locationName"`
	Category     string             `json:"category"`
	IsPublic     bool               `json:"isPublic"`
	Contents     []treasure.Content `json:"contents"`
}

// SaveTreasure creates a treasure in both partitions.
//
//	stage 1: scalar fields → owner + global (parallel)
//	stage 2: each content → both Contents sub-collections (parallel, 2×N)
//	stage 3: treasureList に ID を追加
//
// 失敗時も返り値の Treasure.ID は採番済み（部分書き込みの後始末用）。
func (u *TreasureUsecase) SaveTreasure(ctx context.Context, in SaveTreasureInput) (treasure.Treasure, error) {
	if u.store == nil {
		return treasure.Treasure{}, ErrTreasureStoreNotConfigured
	}
	ownerID := strings.TrimSpace(in.OwnerID)
	if err := userdom.ValidateID(ownerID); err != nil {
		return treasure.Treasure{}, err
	}
	if len(in.Contents) > treasure.MaxContentsPerSave {
		return treasure.Treasure{}, ErrTooManyContents
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	id := u.store.NewID(treasure.GlobalCollection)
	t := treasure.Treasure{
		ID:           id,
		UserID:       ownerID,
		Category:     strings.TrimSpace(in.Category),
		CreatedTime:  u.opts.Now().UTC().Truncate(time.Microsecond),
		IsPublic:     in.IsPublic,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		LocationName: strings.TrimSpace(in.LocationName),
	}
	// content ID は 1 度だけ採番し、両 partition で共有する
	globalPath := treasure.GlobalPath(id)
	for _, c := range in.Contents {
		c.ID = u.store.NewID(treasure.ContentsOf(globalPath))
		c.Content = strings.TrimSpace(c.Content)
		t.Contents = append(t.Contents, c)
	}
	if err := t.Validate(); err != nil {
		return treasure.Treasure{}, err
	}

	log := u.log.With().Str("op", "saveTreasure").Str("treasureID", id).Str("ownerID", ownerID).Logger()

	// stage 1
	fields := treasure.ToFields(t)
	fo := newFanout(u.opts.FanoutLimit)
	for _, p := range treasure.Partitions(ownerID, id) {
		p := p
		fo.Go(ctx, p, func(ctx context.Context) error {
			return u.store.Set(ctx, p, fields)
		})
	}
	if err := fo.Wait("saveTreasure"); err != nil {
		log.Error().Err(err).Msg("scalar write failed")
		return t, err
	}

	// stage 2
	if len(t.Contents) > 0 {
		fo = newFanout(u.opts.FanoutLimit)
		for _, parent := range treasure.Partitions(ownerID, id) {
			for _, c := range t.Contents {
				p := treasure.ContentPath(parent, c.ID)
				cf := treasure.ContentToFields(c)
				fo.Go(ctx, p, func(ctx context.Context) error {
					return u.store.Set(ctx, p, cf)
				})
			}
		}
		if err := fo.Wait("saveTreasure"); err != nil {
			log.Error().Err(err).Msg("content write failed")
			return t, err
		}
	}

	// stage 3
	userPath := treasure.UserPath(ownerID)
	if err := u.store.ArrayUnion(ctx, userPath, userdom.FieldTreasureList, id); err != nil {
		log.Error().Err(err).Msg("treasureList update failed")
		return t, &common.PartialWriteError{
			Op:     "saveTreasure",
			Failed: []common.FailedWrite{{Path: userPath, Err: err}},
		}
	}

	treasure.SortContents(t.Contents)
	log.Info().Int("contents", len(t.Contents)).Msg("treasure saved")
	return t, nil
}

// DeleteSingleTreasure deletes a treasure from both partitions.
//
//	stage 1: 両 partition の Contents を全削除（親より先に: 孤児を作らない）
//	stage 2: 親ドキュメント 2 件を削除
//	stage 3: treasureList から ID を除去
//
// 失敗しても完了済みの削除は戻さない（at-least-once / 非アトミック）。
func (u *TreasureUsecase) DeleteSingleTreasure(ctx context.Context, ownerID, treasureID string) error {
	if u.store == nil {
		return ErrTreasureStoreNotConfigured
	}
	ownerID, treasureID = strings.TrimSpace(ownerID), strings.TrimSpace(treasureID)
	if err := validateIDs(ownerID, treasureID); err != nil {
		return err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	if err := u.ensureOwned(ctx, ownerID, treasureID); err != nil {
		return err
	}
	return u.deleteCascade(ctx, ownerID, treasureID)
}

func (u *TreasureUsecase) deleteCascade(ctx context.Context, ownerID, treasureID string) error {
	log := u.log.With().Str("op", "deleteTreasure").Str("treasureID", treasureID).Str("ownerID", ownerID).Logger()
	parents := treasure.Partitions(ownerID, treasureID)

	// 両 partition の Contents を並列に列挙
	children := make([][]docstore.Document, len(parents))
	g, gctx := errgroup.WithContext(ctx)
	for i, parent := range parents {
		i, parent := i, parent
		g.Go(func() error {
			docs, err := u.store.Query(gctx, treasure.ContentsOf(parent), nil)
			if err != nil {
				return err
			}
			children[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("list contents failed")
		return err
	}

	var mediaURLs []string
	seenURL := map[string]struct{}{}

	// stage 1
	fo := newFanout(u.opts.FanoutLimit)
	for _, docs := range children {
		for _, d := range docs {
			if c, err := treasure.DecodeContent(d); err == nil && c.Type.IsMedia() {
				if _, ok := seenURL[c.Content]; !ok {
					seenURL[c.Content] = struct{}{}
					mediaURLs = append(mediaURLs, c.Content)
				}
			}
			p := d.Path
			fo.Go(ctx, p, func(ctx context.Context) error {
				return u.store.Delete(ctx, p)
			})
		}
	}
	if err := fo.Wait("deleteTreasure"); err != nil {
		log.Error().Err(err).Msg("content delete failed")
		return err
	}

	// stage 2
	fo = newFanout(u.opts.FanoutLimit)
	for _, p := range parents {
		p := p
		fo.Go(ctx, p, func(ctx context.Context) error {
			return u.store.Delete(ctx, p)
		})
	}
	err := fo.Wait("deleteTreasure")
	if u.cache != nil {
		u.cache.Remove(treasureID)
	}
	if err != nil {
		log.Error().Err(err).Msg("treasure delete failed")
		return err
	}

	// stage 3
	userPath := treasure.UserPath(ownerID)
	if err := u.store.ArrayRemove(ctx, userPath, userdom.FieldTreasureList, treasureID); err != nil {
		log.Error().Err(err).Msg("treasureList update failed")
		return &common.PartialWriteError{
			Op:     "deleteTreasure",
			Failed: []common.FailedWrite{{Path: userPath, Err: err}},
		}
	}

	u.cleanupMedia(ctx, mediaURLs)
	log.Info().Int("contents", len(children[0])+len(children[1])).Msg("treasure deleted")
	return nil
}

// cleanupMedia は best-effort: 失敗はログのみで操作自体は成功扱い。
func (u *TreasureUsecase) cleanupMedia(ctx context.Context, urls []string) {
	if u.media == nil || len(urls) == 0 {
		return
	}
	fo := newFanout(u.opts.FanoutLimit)
	for _, raw := range urls {
		raw := raw
		fo.Go(ctx, raw, func(ctx context.Context) error {
			return u.media.DeleteByURL(ctx, raw)
		})
	}
	if err := fo.Wait("cleanupMedia"); err != nil {
		u.log.Warn().Err(err).Msg("media cleanup incomplete")
	}
}

// UpdateTreasureFields updates category and visibility in both partitions.
// 片方だけ失敗した場合も全体失敗（PartialWriteError）として返す。
func (u *TreasureUsecase) UpdateTreasureFields(ctx context.Context, ownerID, treasureID, category string, isPublic bool) error {
	if u.store == nil {
		return ErrTreasureStoreNotConfigured
	}
	ownerID, treasureID = strings.TrimSpace(ownerID), strings.TrimSpace(treasureID)
	if err := validateIDs(ownerID, treasureID); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	if err := treasure.ValidateCategory(category); err != nil {
		return err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	if err := u.ensureOwned(ctx, ownerID, treasureID); err != nil {
		return err
	}

	ups := []docstore.FieldUpdate{
		{Field: treasure.FieldCategory, Value: category},
		{Field: treasure.FieldIsPublic, Value: isPublic},
	}
	fo := newFanout(u.opts.FanoutLimit)
	u.scheduleUpdate(ctx, fo, ownerID, treasureID, ups)
	err := fo.Wait("updateTreasureFields")
	if u.cache != nil {
		u.cache.Remove(treasureID)
	}
	if err != nil {
		return collapseNotFound(err, 2, treasure.OwnerPath(ownerID, treasureID))
	}
	u.log.Info().Str("op", "updateTreasureFields").Str("treasureID", treasureID).Msg("treasure updated")
	return nil
}

// scheduleUpdate adds one Update per partition to fo.
func (u *TreasureUsecase) scheduleUpdate(ctx context.Context, fo *fanout, ownerID, treasureID string, ups []docstore.FieldUpdate) {
	for _, p := range treasure.Partitions(ownerID, treasureID) {
		p := p
		fo.Go(ctx, p, func(ctx context.Context) error {
			return u.store.Update(ctx, p, ups)
		})
	}
}

// AppendContents adds content items to an existing treasure in both partitions.
// 新しい index は既存の最大 index の後ろに続ける。
func (u *TreasureUsecase) AppendContents(ctx context.Context, ownerID, treasureID string, contents []treasure.Content) ([]treasure.Content, error) {
	if u.store == nil {
		return nil, ErrTreasureStoreNotConfigured
	}
	ownerID, treasureID = strings.TrimSpace(ownerID), strings.TrimSpace(treasureID)
	if err := validateIDs(ownerID, treasureID); err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, nil
	}
	if len(contents) > treasure.MaxContentsPerSave {
		return nil, ErrTooManyContents
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	if err := u.ensureOwned(ctx, ownerID, treasureID); err != nil {
		return nil, err
	}
	current, err := u.load(ctx, treasure.OwnerPath(ownerID, treasureID))
	if err != nil {
		return nil, err
	}

	next := treasure.MaxIndex(current.Contents) + 1
	added := make([]treasure.Content, 0, len(contents))
	for i, c := range contents {
		c.ID = u.store.NewID(treasure.ContentsOf(treasure.GlobalPath(treasureID)))
		c.Content = strings.TrimSpace(c.Content)
		c.Index = next + i
		if err := treasure.ValidateContent(c); err != nil {
			return nil, err
		}
		added = append(added, c)
	}

	fo := newFanout(u.opts.FanoutLimit)
	for _, parent := range treasure.Partitions(ownerID, treasureID) {
		for _, c := range added {
			p := treasure.ContentPath(parent, c.ID)
			cf := treasure.ContentToFields(c)
			fo.Go(ctx, p, func(ctx context.Context) error {
				return u.store.Set(ctx, p, cf)
			})
		}
	}
	err = fo.Wait("appendContents")
	if u.cache != nil {
		u.cache.Remove(treasureID)
	}
	if err != nil {
		return nil, err
	}
	return added, nil
}

// -----------------------
// Queries
// -----------------------

// FetchTreasure reads a treasure (with contents) from the owner partition.
func (u *TreasureUsecase) FetchTreasure(ctx context.Context, ownerID, treasureID string) (treasure.Treasure, error) {
	if u.store == nil {
		return treasure.Treasure{}, ErrTreasureStoreNotConfigured
	}
	ownerID, treasureID = strings.TrimSpace(ownerID), strings.TrimSpace(treasureID)
	if err := validateIDs(ownerID, treasureID); err != nil {
		return treasure.Treasure{}, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()
	return u.load(ctx, treasure.OwnerPath(ownerID, treasureID))
}

// FetchTreasureFromGlobal reads a treasure (with contents) from AllTreasures.
// 他ユーザーの公開 treasure を表示するときに使う。
func (u *TreasureUsecase) FetchTreasureFromGlobal(ctx context.Context, treasureID string) (treasure.Treasure, error) {
	if u.store == nil {
		return treasure.Treasure{}, ErrTreasureStoreNotConfigured
	}
	treasureID = strings.TrimSpace(treasureID)
	if err := validateTreasureID(treasureID); err != nil {
		return treasure.Treasure{}, err
	}
	var gen uint64
	if u.cache != nil {
		if t, ok := u.cache.Get(treasureID); ok {
			return t, nil
		}
		gen = u.cache.Generation()
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	t, err := u.load(ctx, treasure.GlobalPath(treasureID))
	if err != nil {
		return treasure.Treasure{}, err
	}
	if u.cache != nil {
		// 読み込み中に書き込みが完了していたら入れない（古い可能性がある）
		u.cache.AddIfCurrent(t, gen)
	}
	return t, nil
}

// ListTreasuresByCategory returns the owner's treasures (scalar fields only) in category.
func (u *TreasureUsecase) ListTreasuresByCategory(ctx context.Context, ownerID, category string) ([]treasure.Treasure, error) {
	if u.store == nil {
		return nil, ErrTreasureStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if err := userdom.ValidateID(ownerID); err != nil {
		return nil, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()
	return u.listOwned(ctx, ownerID, []docstore.Filter{
		{Field: treasure.FieldCategory, Op: docstore.OpEqual, Value: category},
	})
}

// ListUserTreasures returns every treasure (scalar fields only) of the owner.
func (u *TreasureUsecase) ListUserTreasures(ctx context.Context, ownerID string) ([]treasure.Treasure, error) {
	if u.store == nil {
		return nil, ErrTreasureStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if err := userdom.ValidateID(ownerID); err != nil {
		return nil, err
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()
	return u.listOwned(ctx, ownerID, nil)
}

func (u *TreasureUsecase) listOwned(ctx context.Context, ownerID string, filters []docstore.Filter) ([]treasure.Treasure, error) {
	docs, err := u.store.Query(ctx, treasure.OwnerCollection(ownerID), filters)
	if err != nil {
		return nil, err
	}
	out := make([]treasure.Treasure, 0, len(docs))
	for _, d := range docs {
		t, err := treasure.Decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// load reads parent scalars, then the Contents sub-collection of the same partition.
func (u *TreasureUsecase) load(ctx context.Context, parentPath string) (treasure.Treasure, error) {
	doc, err := u.store.Get(ctx, parentPath)
	if err != nil {
		return treasure.Treasure{}, err
	}
	t, err := treasure.Decode(doc)
	if err != nil {
		return treasure.Treasure{}, err
	}

	docs, err := u.store.Query(ctx, treasure.ContentsOf(parentPath), nil)
	if err != nil {
		return treasure.Treasure{}, err
	}
	t.Contents = make([]treasure.Content, 0, len(docs))
	for _, d := range docs {
		c, err := treasure.DecodeContent(d)
		if err != nil {
			return treasure.Treasure{}, err
		}
		t.Contents = append(t.Contents, c)
	}
	treasure.SortContents(t.Contents)
	return t, nil
}

// ensureOwned rejects writes against a global copy owned by someone else.
// global 側が無い（既に削除済み等）場合は通す。
func (u *TreasureUsecase) ensureOwned(ctx context.Context, ownerID, treasureID string) error {
	doc, err := u.store.Get(ctx, treasure.GlobalPath(treasureID))
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner, ok := doc.Data[treasure.FieldUserID].(string); ok && owner != ownerID {
		return ErrTreasureNotOwned
	}
	return nil
}

// -----------------------
// helpers
// -----------------------

func validateTreasureID(id string) error {
	if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
		return treasure.ErrInvalidID
	}
	return nil
}

func validateIDs(ownerID, treasureID string) error {
	if err := userdom.ValidateID(ownerID); err != nil {
		return err
	}
	return validateTreasureID(treasureID)
}

// collapseNotFound turns "every write failed with NotFound" into a plain NotFound.
func collapseNotFound(err error, writes int, path string) error {
	var pw *common.PartialWriteError
	if !errors.As(err, &pw) || len(pw.Failed) != writes {
		return err
	}
	for _, f := range pw.Failed {
		if !errors.Is(f.Err, common.ErrNotFound) {
			return err
		}
	}
	return common.NotFoundError(path)
}
