package sheets

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/retry"
)

var sheetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{20,100}$`)

var placeholderIDs = []string{"your", "placeholder", "example", "xxxx", "changeme"}

// ValidSheetID reports whether id looks like a real spreadsheet id rather
// than an empty or template value.
func ValidSheetID(id string) bool {
	if !sheetIDPattern.MatchString(id) {
		return false
	}
	lower := strings.ToLower(id)
	for _, p := range placeholderIDs {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// SecureLogger is the primary write path.
type SecureLogger interface {
	SecureLogToMasterSheet(ctx context.Context, entry models.MasterSheetEntry) error
}

type MasterConfig struct {
	SheetID       string
	Range         string
	EncryptionKey string
	Retry         retry.Policy
}

// MasterLog appends every processed thought to the central spreadsheet.
type MasterLog struct {
	api     API
	secure  SecureLogger
	sheetID string
	rng     string
	policy  retry.Policy
	logger  *zap.Logger
}

// NewMasterLog returns a writer. A nil api or an invalid sheet id produce a
// writer that reports itself as not configured.
func NewMasterLog(api API, cfg MasterConfig, logger *zap.Logger) *MasterLog {
	if cfg.Range == "" {
		cfg.Range = "Sheet1!A:F"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy
	}
	m := &MasterLog{
		api:     api,
		sheetID: cfg.SheetID,
		rng:     cfg.Range,
		policy:  cfg.Retry,
		logger:  logger.Named("master_log"),
	}
	if api != nil {
		m.secure = NewSecureWriter(api, cfg.SheetID, cfg.Range, cfg.EncryptionKey)
	}
	return m
}

// WithSecureLogger replaces the primary write path.
func (m *MasterLog) WithSecureLogger(s SecureLogger) *MasterLog {
	m.secure = s
	return m
}

func (m *MasterLog) Configured() bool {
	return m.api != nil && ValidSheetID(m.sheetID)
}

// Log writes entry through the secure path and, if that fails, through a
// retried plain append. It never returns an error; the outcome is in the
// returned status.
func (m *MasterLog) Log(ctx context.Context, entry models.MasterSheetEntry) models.IntegrationStatus {
	if !m.Configured() {
		m.logger.Debug("master log not configured, skipping")
		return models.Succeeded(models.StatusNotConfigured)
	}

	primaryErr := m.secure.SecureLogToMasterSheet(ctx, entry)
	if primaryErr == nil {
		st := models.Succeeded(models.StatusLogged)
		st.Mode = models.ModeSecure
		return st
	}

	m.logger.Warn("secure master log write failed, falling back to plain append",
		zap.Error(primaryErr))

	_, err := retry.Do(ctx, m.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.api.AppendRow(ctx, m.sheetID, m.rng, entry.Row())
	})
	if err != nil {
		err = eris.Wrap(err, "master log fallback failed")
		m.logger.Error("master log write failed", zap.Error(err))
		st := models.Failed(models.StatusFailed, err)
		st.Mode = models.ModeFallback
		return st
	}

	st := models.Succeeded(models.StatusLogged)
	st.Mode = models.ModeFallback
	return st
}
