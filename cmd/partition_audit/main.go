// cmd/partition_audit/main.go
//
// owner partition と AllTreasures の食い違いを一覧する（読み取りのみ、修復はしない）。
//
//	go run ./cmd/partition_audit -uid <uid> [-uid <uid> ...]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"

	appcfg "hanami/internal/infra/config"
	"hanami/internal/infra/logging"
	"hanami/internal/platform/di"
)

type uidList []string

func (u *uidList) String() string { return strings.Join(*u, ",") }
func (u *uidList) Set(v string) error {
	*u = append(*u, v)
	return nil
}

func main() {
	var uids uidList
	flag.Var(&uids, "uid", "user id to audit (repeatable)")
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	lg, err := logging.New().FromWriter(os.Stderr).Level(cfg.LogLevel).Make()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	logger := lg.Logger.With().Str("component", "partition_audit").Logger()

	if len(uids) == 0 {
		logger.Fatal().Msg("at least one -uid is required")
	}

	ctx := context.Background()
	cont, err := di.NewContainer(ctx, cfg, lg.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("di init failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	inconsistent := 0
	for _, uid := range uids {
		a, err := cont.AuditQuery.Audit(ctx, uid)
		if err != nil {
			logger.Error().Err(err).Str("uid", uid).Msg("audit failed")
			inconsistent++
			continue
		}
		if !a.Consistent() {
			inconsistent++
		}
		_ = enc.Encode(a)
	}

	logger.Info().Int("users", len(uids)).Int("inconsistent", inconsistent).Msg("audit finished")
	if err := cont.Close(); err != nil {
		logger.Warn().Err(err).Msg("close failed")
	}
	if inconsistent > 0 {
		os.Exit(1)
	}
}
