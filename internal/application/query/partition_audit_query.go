// internal/application/query/partition_audit_query.go
package query

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

// PartitionAudit lists how a user's owner partition, the global partition
// and treasureList disagree. 読み取りのみで修復はしない。
type PartitionAudit struct {
	OwnerID       string   `json:"ownerID"`
	Checked       int      `json:"checked"`
	MissingGlobal []string `json:"missingGlobal"` // owner にあり global に無い
	MissingOwner  []string `json:"missingOwner"`  // global にあり owner に無い
	Diverged      []string `json:"diverged"`      // 両方にあるがスカラー項目が不一致
	NotListed     []string `json:"notListed"`     // owner にあるが treasureList に無い
	Dangling      []string `json:"dangling"`      // treasureList にあるが owner に無い
}

// Consistent reports whether no divergence was found.
func (a PartitionAudit) Consistent() bool {
	return len(a.MissingGlobal) == 0 && len(a.MissingOwner) == 0 &&
		len(a.Diverged) == 0 && len(a.NotListed) == 0 && len(a.Dangling) == 0
}

type PartitionAuditQuery struct {
	store   docstore.Store
	timeout time.Duration
}

func NewPartitionAuditQuery(store docstore.Store, timeout time.Duration) *PartitionAuditQuery {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &PartitionAuditQuery{store: store, timeout: timeout}
}

func (q *PartitionAuditQuery) Audit(ctx context.Context, ownerID string) (PartitionAudit, error) {
	if q == nil || q.store == nil {
		return PartitionAudit{}, ErrGeoQueryNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if err := userdom.ValidateID(ownerID); err != nil {
		return PartitionAudit{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	ownerDocs, err := q.store.Query(ctx, treasure.OwnerCollection(ownerID), nil)
	if err != nil {
		return PartitionAudit{}, err
	}
	globalDocs, err := q.store.Query(ctx, treasure.GlobalCollection, []docstore.Filter{
		{Field: treasure.FieldUserID, Op: docstore.OpEqual, Value: ownerID},
	})
	if err != nil {
		return PartitionAudit{}, err
	}

	var listed []string
	if doc, err := q.store.Get(ctx, treasure.UserPath(ownerID)); err == nil {
		u, err := userdom.Decode(doc)
		if err != nil {
			return PartitionAudit{}, err
		}
		listed = u.TreasureList
	} else if !errors.Is(err, common.ErrNotFound) {
		return PartitionAudit{}, err
	}

	owner := make(map[string]docstore.Document, len(ownerDocs))
	for _, d := range ownerDocs {
		owner[d.ID] = d
	}
	global := make(map[string]docstore.Document, len(globalDocs))
	for _, d := range globalDocs {
		global[d.ID] = d
	}
	inList := make(map[string]struct{}, len(listed))
	for _, id := range listed {
		inList[id] = struct{}{}
	}

	out := PartitionAudit{OwnerID: ownerID, Checked: len(owner)}
	for id, od := range owner {
		if _, ok := inList[id]; !ok {
			out.NotListed = append(out.NotListed, id)
		}
		gd, ok := global[id]
		if !ok {
			out.MissingGlobal = append(out.MissingGlobal, id)
			continue
		}
		ot, oerr := treasure.Decode(od)
		gt, gerr := treasure.Decode(gd)
		if oerr != nil || gerr != nil || !treasure.SameScalars(ot, gt) {
			out.Diverged = append(out.Diverged, id)
		}
	}
	for id := range global {
		if _, ok := owner[id]; !ok {
			out.MissingOwner = append(out.MissingOwner, id)
		}
	}
	for id := range inList {
		if _, ok := owner[id]; !ok {
			out.Dangling = append(out.Dangling, id)
		}
	}

	for _, xs := range [][]string{out.MissingGlobal, out.MissingOwner, out.Diverged, out.NotListed, out.Dangling} {
		sort.Strings(xs)
	}
	return out, nil
}
