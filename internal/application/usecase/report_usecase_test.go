package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/domain/common"
	"hanami/internal/domain/report"
)

type fakeNotifier struct {
	got []report.Report
	err error
}

func (f *fakeNotifier) NotifyReport(_ context.Context, r report.Report) error {
	f.got = append(f.got, r)
	return f.err
}

func TestReportTreasure(t *testing.T) {
	ctx := context.Background()
	tuc, s := newTreasureUC(t)
	n := &fakeNotifier{}
	ruc := NewReportUsecase(s, tuc, n, testOptions())

	tr := mustSave(t, tuc, saveInput("u1", "花見", true))

	r, err := ruc.ReportTreasure(ctx, "u2", tr.ID, "  spam  ")
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "u1", r.OwnerID)
	assert.Equal(t, "spam", r.Reason)
	assert.Equal(t, testNow.Truncate(time.Microsecond), r.CreatedTime)

	doc, err := s.Get(ctx, report.Path(r.ID))
	require.NoError(t, err)
	assert.Equal(t, "u2", doc.Data[report.FieldReporterID])
	assert.Equal(t, tr.ID, doc.Data[report.FieldTreasureID])

	require.Len(t, n.got, 1)
	assert.Equal(t, r, n.got[0])
}

func TestReportTreasure_Errors(t *testing.T) {
	ctx := context.Background()
	tuc, s := newTreasureUC(t)
	ruc := NewReportUsecase(s, tuc, &fakeNotifier{err: errors.New("smtp down")}, testOptions())
	tr := mustSave(t, tuc, saveInput("u1", "花見", true))

	_, err := ruc.ReportTreasure(ctx, "u1", tr.ID, "spam")
	assert.ErrorIs(t, err, report.ErrReportOwnTarget)

	_, err = ruc.ReportTreasure(ctx, "u2", tr.ID, " ")
	assert.ErrorIs(t, err, report.ErrInvalidReason)

	_, err = ruc.ReportTreasure(ctx, "u2", "missing", "spam")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// 通知の失敗は無視される
	_, err = ruc.ReportTreasure(ctx, "u2", tr.ID, "spam")
	assert.NoError(t, err)

	_, err = NewReportUsecase(s, tuc, nil, testOptions()).ReportTreasure(ctx, "u3", tr.ID, "spam")
	assert.NoError(t, err)
}
