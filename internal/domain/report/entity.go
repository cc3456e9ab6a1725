// internal/domain/report/entity.go
package report

import (
	"errors"
	"strings"
	"time"

	"hanami/internal/domain/docstore"
)

// Report is a moderation report filed against a public treasure.
type Report struct {
	ID          string    `json:"id"`
	ReporterID  string    `json:"reporterID"`
	TreasureID  string    `json:"treasureID"`
	OwnerID     string    `json:"ownerID"`
	Reason      string    `json:"reason"`
	CreatedTime time.Time `json:"createdTime"`
}

const Collection = "Reports"

// Store keys
const (
	FieldReporterID  = "reporterID"
	FieldTreasureID  = "treasureID"
	FieldOwnerID     = "ownerID"
	FieldReason      = "reason"
	FieldCreatedTime = "createdTime"
)

var (
	ErrInvalidReason   = errors.New("report: invalid reason")
	ErrReportOwnTarget = errors.New("report: cannot report your own treasure")
)

var MaxReasonLength = 1000

// Path: Reports/{id}
func Path(id string) string {
	return docstore.Join(Collection, id)
}

// ValidateReason trims and checks a free-text reason.
func ValidateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || len([]rune(reason)) > MaxReasonLength {
		return "", ErrInvalidReason
	}
	return reason, nil
}

func ToFields(r Report) map[string]any {
	return map[string]any{
		FieldReporterID:  r.ReporterID,
		FieldTreasureID:  r.TreasureID,
		FieldOwnerID:     r.OwnerID,
		FieldReason:      r.Reason,
		FieldCreatedTime: r.CreatedTime.UTC(),
	}
}
