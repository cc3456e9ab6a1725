// internal/adapters/out/mail/sendgrid_wire.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hanami/internal/domain/report"
)

// ReportNotifier mails each filed report to the moderation mailbox.
// usecase.ReportNotifier とシグネチャ互換。
type ReportNotifier struct {
	client EmailClient
	from   string
	to     string
}

func NewReportNotifier(client EmailClient, from, to string) *ReportNotifier {
	return &ReportNotifier{
		client: client,
		from:   strings.TrimSpace(from),
		to:     strings.TrimSpace(to),
	}
}

// NewReportNotifierWithSendGrid returns nil when SendGrid is not configured,
// so that reports are stored without notification.
func NewReportNotifierWithSendGrid(apiKey, from, to string, logger zerolog.Logger) *ReportNotifier {
	if apiKey == "" || from == "" || to == "" {
		logger.Warn().Str("component", "mail").Msg("SENDGRID_API_KEY / SENDGRID_FROM / REPORT_TO not set; report mail disabled")
		return nil
	}
	return NewReportNotifier(NewSendGridClient(apiKey, logger), from, to)
}

func (n *ReportNotifier) NotifyReport(ctx context.Context, r report.Report) error {
	if n == nil || n.client == nil {
		return errors.New("mail: report notifier not configured")
	}
	subject := fmt.Sprintf("[HanaMi] treasure reported: %s", r.TreasureID)
	body := fmt.Sprintf(
		"reportID: %s\ntreasureID: %s\nownerID: %s\nreporterID: %s\ncreatedTime: %s\n\n%s\n",
		r.ID, r.TreasureID, r.OwnerID, r.ReporterID, r.CreatedTime.UTC().Format(time.RFC3339), r.Reason,
	)
	return n.client.Send(ctx, n.from, n.to, subject, body)
}
