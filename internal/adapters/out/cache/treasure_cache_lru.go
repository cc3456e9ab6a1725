// internal/adapters/out/cache/treasure_cache_lru.go
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"hanami/internal/domain/treasure"
)

// TreasureCacheLRU is a process-local read cache for global-partition fetches.
// 複数インスタンス間では共有されない。書き込み側で Remove して無効化する。
//
// 読み込み開始時に Generation を取り、AddIfCurrent で戻す。その間に Remove が
// 1 回でもあれば Add しない（書き込みと重なった読み込みの古いスナップショットを入れない）。
type TreasureCacheLRU struct {
	mu  sync.Mutex
	gen uint64
	c   *lru.Cache
}

// NewTreasureCacheLRU returns nil when size <= 0 (cache disabled).
func NewTreasureCacheLRU(size int) (*TreasureCacheLRU, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &TreasureCacheLRU{c: c}, nil
}

func (t *TreasureCacheLRU) Get(id string) (treasure.Treasure, bool) {
	if t == nil {
		return treasure.Treasure{}, false
	}
	v, ok := t.c.Get(id)
	if !ok {
		return treasure.Treasure{}, false
	}
	return clone(v.(treasure.Treasure)), true
}

// Generation returns the invalidation counter.
func (t *TreasureCacheLRU) Generation() uint64 {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// AddIfCurrent caches v only when no Remove happened since gen was taken.
func (t *TreasureCacheLRU) AddIfCurrent(v treasure.Treasure, gen uint64) bool {
	if t == nil || v.ID == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return false
	}
	t.c.Add(v.ID, clone(v))
	return true
}

func (t *TreasureCacheLRU) Remove(id string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.c.Remove(id)
}

func (t *TreasureCacheLRU) Len() int {
	if t == nil {
		return 0
	}
	return t.c.Len()
}

// clone は Contents を複製して呼び出し側の変更がキャッシュに漏れないようにする。
func clone(v treasure.Treasure) treasure.Treasure {
	if v.Contents != nil {
		cs := make([]treasure.Content, len(v.Contents))
		copy(cs, v.Contents)
		v.Contents = cs
	}
	return v
}
