// internal/application/usecase/report_usecase.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hanami/internal/domain/docstore"
	"hanami/internal/domain/report"
	userdom "hanami/internal/domain/user"
)

// ReportNotifier tells the moderation mailbox that a report was filed.
// nil の場合は通知しない（保存のみ）。
type ReportNotifier interface {
	NotifyReport(ctx context.Context, r report.Report) error
}

type ReportUsecase struct {
	store     docstore.Store
	treasures *TreasureUsecase
	notifier  ReportNotifier
	opts      Options
	log       zerolog.Logger
}

func NewReportUsecase(store docstore.Store, treasures *TreasureUsecase, notifier ReportNotifier, opts Options) *ReportUsecase {
	opts = opts.normalized()
	return &ReportUsecase{
		store:     store,
		treasures: treasures,
		notifier:  notifier,
		opts:      opts,
		log:       opts.Logger.With().Str("component", "report").Logger(),
	}
}

// ReportTreasure stores Reports/{id} for a treasure in the global partition.
// 通知の失敗はログのみで、レポート自体は成功扱い。
func (u *ReportUsecase) ReportTreasure(ctx context.Context, reporterID, treasureID, reason string) (report.Report, error) {
	if u == nil || u.store == nil || u.treasures == nil {
		return report.Report{}, ErrTreasureStoreNotConfigured
	}
	reporterID, treasureID = strings.TrimSpace(reporterID), strings.TrimSpace(treasureID)
	if err := userdom.ValidateID(reporterID); err != nil {
		return report.Report{}, err
	}
	if err := validateTreasureID(treasureID); err != nil {
		return report.Report{}, err
	}
	reason, err := report.ValidateReason(reason)
	if err != nil {
		return report.Report{}, err
	}

	t, err := u.treasures.FetchTreasureFromGlobal(ctx, treasureID)
	if err != nil {
		return report.Report{}, err
	}
	if t.UserID == reporterID {
		return report.Report{}, report.ErrReportOwnTarget
	}

	ctx, cancel := u.opts.withOpTimeout(ctx)
	defer cancel()

	r := report.Report{
		ID:          u.store.NewID(report.Collection),
		ReporterID:  reporterID,
		TreasureID:  treasureID,
		OwnerID:     t.UserID,
		Reason:      reason,
		CreatedTime: u.opts.Now().UTC().Truncate(time.Microsecond),
	}
	if err := u.store.Set(ctx, report.Path(r.ID), report.ToFields(r)); err != nil {
		return report.Report{}, err
	}

	log := u.log.With().Str("reportID", r.ID).Str("treasureID", treasureID).Logger()
	if u.notifier != nil {
		if err := u.notifier.NotifyReport(ctx, r); err != nil {
			log.Warn().Err(err).Msg("report notification failed")
		}
	}
	log.Info().Msg("report filed")
	return r, nil
}
