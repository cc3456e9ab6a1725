// internal/application/usecase/context.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Defaults
const (
	DefaultOpTimeout   = 15 * time.Second
	DefaultFanoutLimit = 16
)

// Options は usecase 共通の実行設定（タイムアウト / 並列数 / ロガー）。
type Options struct {
	// 1 操作（複数ステージ含む）全体のタイムアウト。0 以下は DefaultOpTimeout。
	OpTimeout time.Duration
	// fan-out 時の同時実行数上限。0 以下は DefaultFanoutLimit。
	FanoutLimit int
	Logger      zerolog.Logger
	Now         func() time.Time
}

func (o Options) normalized() Options {
	if o.OpTimeout <= 0 {
		o.OpTimeout = DefaultOpTimeout
	}
	if o.FanoutLimit <= 0 {
		o.FanoutLimit = DefaultFanoutLimit
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// withOpTimeout derives the per-operation context.
// 呼び出し側のキャンセルはそのまま store まで伝播する。
func (o Options) withOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.OpTimeout)
}
