// Package advisor orchestrates one daily verdict: resolve the contingency
// phase, evaluate the circulation rules, persist the outcome and push it
// to the configured chat channels.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/circulabot/internal/domain/circulation"
	apperrors "github.com/yanqian/circulabot/pkg/errors"
	"github.com/yanqian/circulabot/pkg/util"
)

// Service exposes the check pipeline to transports and the one-shot runner.
type Service interface {
	Contingency(ctx context.Context) (ContingencyReport, error)
	Check(ctx context.Context, req CheckRequest) (CheckRecord, error)
	Recent(ctx context.Context, limit int) ([]CheckRecord, error)
}

type service struct {
	cfg       Config
	source    ContingencySource
	store     ReportStore
	history   CheckRepository
	archive   SnapshotArchive
	notifiers []Notifier
	logger    *slog.Logger
	timezone  *time.Location
	now       func() time.Time
	newID     func() string
}

// NewService wires up the advisor domain.
func NewService(cfg Config, source ContingencySource, store ReportStore, history CheckRepository, archive SnapshotArchive, notifiers []Notifier, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		source:    source,
		store:     store,
		history:   history,
		archive:   archive,
		notifiers: notifiers,
		logger:    logger.With("component", "advisor.service"),
		timezone:  util.MexicoCity,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Contingency resolves today's alert level, serving from the cache when a
// fresh report exists. Source failures degrade to LevelNone: the engine
// must stay decidable under total information loss about the contingency.
func (s *service) Contingency(ctx context.Context) (ContingencyReport, error) {
	today := s.now().In(s.timezone).Format("2006-01-02")

	if cached, ok, err := s.store.Get(ctx, today); err != nil {
		s.logger.Warn("report cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	report, err := s.source.Check(ctx)
	if err != nil {
		s.logger.Warn("contingency source unavailable, degrading to ninguna", "error", err)
		report = ContingencyReport{
			Level:     circulation.LevelNone,
			Detail:    "No se pudo consultar el portal de la CAMe: " + err.Error(),
			FetchedAt: s.now().In(s.timezone),
		}
	}
	if report.Level == "" {
		report.Level = circulation.LevelNone
	}

	s.archiveEvidence(ctx, today, report)

	cacheable := report
	cacheable.RawHTML = nil
	if err := s.store.Save(ctx, today, cacheable, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("report cache write failed", "error", err)
	}
	return report, nil
}

func (s *service) archiveEvidence(ctx context.Context, date string, report ContingencyReport) {
	if s.archive == nil || len(report.RawHTML) == 0 {
		return
	}
	key := fmt.Sprintf("snapshots/%s/%s.html", date, s.newID())
	if err := s.archive.Put(ctx, key, report.RawHTML); err != nil {
		s.logger.Warn("evidence archive failed", "key", key, "error", err)
		return
	}
	s.logger.Debug("evidence archived", "key", key, "bytes", len(report.RawHTML))
}

// Check runs the full pipeline for one vehicle and date.
func (s *service) Check(ctx context.Context, req CheckRequest) (CheckRecord, error) {
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return CheckRecord{}, apperrors.Wrap("invalid_input", "la fecha debe tener formato YYYY-MM-DD", err)
	}

	digit := s.cfg.DefaultLastDigit
	if req.LastDigit != nil {
		digit = *req.LastDigit
	}
	sticker := s.cfg.DefaultSticker
	if strings.TrimSpace(req.Sticker) != "" {
		sticker, err = circulation.ParseSticker(req.Sticker)
		if err != nil {
			return CheckRecord{}, err
		}
	}

	report, err := s.Contingency(ctx)
	if err != nil {
		return CheckRecord{}, apperrors.Wrap("contingency_error", "no se pudo resolver la contingencia", err)
	}

	result, err := circulation.Evaluate(circulation.Input{
		LastDigit:   digit,
		Sticker:     sticker,
		Contingency: report.Level,
		Date:        date,
	})
	if err != nil {
		return CheckRecord{}, err
	}
	s.logger.Info("circulation evaluated",
		"date", result.Date, "digit", digit, "sticker", string(sticker),
		"level", string(report.Level), "may_drive", result.MayDrive)

	record := CheckRecord{
		ID:        s.newID(),
		CheckedAt: s.now().In(s.timezone),
		Date:      result.Date,
		LastDigit: digit,
		Sticker:   sticker,
		Level:     report.Level,
		MayDrive:  result.MayDrive,
		Reason:    result.Reason,
		Message:   BuildMessage(FormatDate(date), report, result),
	}

	notifyErr := s.maybeNotify(ctx, req, &record, result)

	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Error("check history save failed", "id", record.ID, "error", err)
	}
	return record, notifyErr
}

// maybeNotify fans the message out to every configured channel, honoring
// the only-when-restricted preference. All channels failing is an error;
// a partial failure is only recorded.
func (s *service) maybeNotify(ctx context.Context, req CheckRequest, record *CheckRecord, result circulation.Result) error {
	want := true
	if req.Notify != nil {
		want = *req.Notify
	}
	if !want || len(s.notifiers) == 0 {
		return nil
	}
	if s.cfg.OnlyWhenRestricted && result.MayDrive {
		s.logger.Info("vehicle may drive and onlyWhenRestricted is set, skipping notification")
		return nil
	}

	var failures []string
	for _, n := range s.notifiers {
		if err := n.Send(ctx, record.Message); err != nil {
			s.logger.Error("notification failed", "channel", n.Name(), "error", err)
			failures = append(failures, n.Name()+": "+err.Error())
			continue
		}
		s.logger.Info("notification sent", "channel", n.Name())
		record.Notified = true
	}
	if len(failures) > 0 {
		record.NotifyError = strings.Join(failures, "; ")
	}
	if !record.Notified {
		return apperrors.Wrap("notify_error", "ningún canal pudo entregar la notificación", nil)
	}
	return nil
}

// Recent returns the latest pipeline runs, newest first.
func (s *service) Recent(ctx context.Context, limit int) ([]CheckRecord, error) {
	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "no se pudo leer el historial", err)
	}
	return records, nil
}

func (s *service) resolveDate(input string) (time.Time, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return s.now().In(s.timezone), nil
	}
	return time.ParseInLocation("2006-01-02", trimmed, s.timezone)
}
