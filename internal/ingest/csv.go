package ingest

import (
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/h2non/filetype"

	"github.com/sublytics/sublytics/internal/domain/payment"
	"github.com/sublytics/sublytics/internal/domain/subscription"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
)

// Loader parses uploaded dashboard files. Uploads come straight from a
// browser, so everything about them is untrusted: extension, content type and
// row contents are all validated before any row reaches the pipeline.
type Loader struct {
	logger *logger.Logger
}

func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

func (l *Loader) validateUpload(filename string, data []byte) error {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".csv" {
		return ierr.NewErrorf("unsupported file type %q", ext).
			WithHint("upload a .csv export").
			Mark(ierr.ErrValidation)
	}
	if len(data) == 0 {
		return ierr.NewError("uploaded file is empty").
			Mark(ierr.ErrValidation)
	}
	// filetype recognizes binary formats by magic bytes; a match means the
	// payload is not the plain text CSV its extension claims.
	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		return ierr.NewErrorf("uploaded file is %s, not a csv", kind.Extension).
			WithHint("upload a .csv export").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LoadWalletExport parses a wallet-provider subscriber export. Exact
// duplicate rows are dropped and counted, so re-exported overlapping files do
// not inflate the series.
func (l *Loader) LoadWalletExport(filename string, data []byte) ([]subscription.ExportRow, int, error) {
	if err := l.validateUpload(filename, data); err != nil {
		return nil, 0, err
	}

	var rows []subscription.ExportRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("the export file could not be parsed as csv").
			Mark(ierr.ErrValidation)
	}

	seen := make(map[subscription.ExportRow]bool, len(rows))
	unique := make([]subscription.ExportRow, 0, len(rows))
	for _, row := range rows {
		if seen[row] {
			continue
		}
		seen[row] = true
		unique = append(unique, row)
	}

	dropped := len(rows) - len(unique)
	if dropped > 0 {
		l.logger.Infow("dropped duplicate export rows",
			"file", filename, "total", len(rows), "dropped", dropped)
	}
	return unique, dropped, nil
}

// LoadRecoveryExport parses a revenue-recovery export, deduplicating exact
// duplicate rows the same way as subscriber exports.
func (l *Loader) LoadRecoveryExport(filename string, data []byte) ([]*payment.RecoveryRecord, int, error) {
	if err := l.validateUpload(filename, data); err != nil {
		return nil, 0, err
	}

	var rows []*payment.RecoveryRecord
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, 0, ierr.WithError(err).
			WithHint("the export file could not be parsed as csv").
			Mark(ierr.ErrValidation)
	}

	seen := make(map[string]bool, len(rows))
	unique := make([]*payment.RecoveryRecord, 0, len(rows))
	for _, row := range rows {
		key := recoveryRowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, row)
	}

	dropped := len(rows) - len(unique)
	if dropped > 0 {
		l.logger.Infow("dropped duplicate export rows",
			"file", filename, "total", len(rows), "dropped", dropped)
	}
	return unique, dropped, nil
}

// recoveryRowKey joins every field into a dedup key. RecoveryRecord carries
// decimal amounts, so the struct itself is not comparable.
func recoveryRowKey(r *payment.RecoveryRecord) string {
	return strings.Join([]string{
		r.InitialPaymentFailedAt,
		r.InitialFailedAmount.String(),
		r.DeclineReason,
		r.RecoveryStatus,
		r.RecoveryMethod,
		r.RecoveredAt,
		r.RecoveredAmount.String(),
		r.SubscriptionStatus,
	}, "\x1f")
}
