// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hanami/internal/adapters/in/http/middleware"
	usecase "hanami/internal/application/usecase"
	"hanami/internal/application/query"
	"hanami/internal/domain/common"
	"hanami/internal/domain/report"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid json body")

// errorBody is the JSON error payload.
type errorBody struct {
	Error       string   `json:"error"`
	FailedPaths []string `json:"failedPaths,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	// PartialWriteError は Unwrap で下位エラーを公開するので最初に判定する
	var pw *common.PartialWriteError
	if errors.As(err, &pw) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), FailedPaths: pw.FailedPaths()})
		return
	}
	writeJSON(w, statusOf(err), errorBody{Error: err.Error()})
}

// statusOf maps domain / usecase errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case isValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrTreasureNotOwned):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrRenameNotVerified):
		return http.StatusConflict
	case errors.Is(err, common.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrStoreUnavailable),
		errors.Is(err, usecase.ErrTreasureStoreNotConfigured),
		errors.Is(err, query.ErrGeoQueryNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var validationErrs = []error{
	errInvalidBody,
	treasure.ErrInvalidID,
	treasure.ErrInvalidUserID,
	treasure.ErrInvalidCategory,
	treasure.ErrInvalidCoordinate,
	treasure.ErrInvalidLocationName,
	treasure.ErrInvalidContentType,
	treasure.ErrInvalidContent,
	treasure.ErrInvalidBounds,
	userdom.ErrInvalidID,
	userdom.ErrInvalidUserName,
	userdom.ErrInvalidImageURL,
	userdom.ErrSelfBlock,
	report.ErrInvalidReason,
	report.ErrReportOwnTarget,
	usecase.ErrTooManyContents,
	usecase.ErrSameCategoryName,
}

func isValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// decodeBody reads a JSON body into v (unknown fields are rejected).
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// currentUID は認証ミドルウェアが入れた uid を返す。無ければ 401 を書いて false。
func currentUID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return "", false
	}
	return uid, true
}

// parseBounds reads minLat / maxLat / minLng / maxLng from the query string.
func parseBounds(r *http.Request) (treasure.Bounds, error) {
	q := r.URL.Query()
	vals := make([]float64, 4)
	for i, k := range []string{"minLat", "maxLat", "minLng", "maxLng"} {
		s := strings.TrimSpace(q.Get(k))
		if s == "" {
			return treasure.Bounds{}, treasure.ErrInvalidBounds
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return treasure.Bounds{}, treasure.ErrInvalidBounds
		}
		vals[i] = f
	}
	b := treasure.Bounds{MinLat: vals[0], MaxLat: vals[1], MinLng: vals[2], MaxLng: vals[3]}
	if err := b.Validate(); err != nil {
		return treasure.Bounds{}, err
	}
	return b, nil
}
