package advisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/circulabot/internal/domain/circulation"
	apperrors "github.com/yanqian/circulabot/pkg/errors"
	"github.com/yanqian/circulabot/pkg/util"
)

// 2024-01-01 was a Monday; digit 5 rests that day under the base program.
var fixedNow = time.Date(2024, time.January, 1, 6, 0, 0, 0, util.MexicoCity)

func newTestService(t *testing.T, source ContingencySource, notifiers []Notifier, cfg Config) (*service, *stubHistory, *stubStore, *stubArchive) {
	t.Helper()
	history := &stubHistory{}
	store := &stubStore{}
	archive := &stubArchive{objects: map[string][]byte{}}
	var n int
	svc := &service{
		cfg:       cfg,
		source:    source,
		store:     store,
		history:   history,
		archive:   archive,
		notifiers: notifiers,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		timezone:  util.MexicoCity,
		now:       func() time.Time { return fixedNow },
		newID: func() string {
			n++
			return "id-" + string(rune('0'+n))
		},
	}
	return svc, history, store, archive
}

func TestContingencyCachesReport(t *testing.T) {
	source := &stubSource{report: ContingencyReport{
		Level:   circulation.LevelPhase1,
		Active:  true,
		Phase:   "Fase 1",
		Detail:  "se activa la Fase 1",
		RawHTML: []byte("<html>fase 1</html>"),
	}}
	svc, _, store, archive := newTestService(t, source, nil, Config{CacheTTL: time.Hour})

	report, err := svc.Contingency(context.Background())
	require.NoError(t, err)
	require.Equal(t, circulation.LevelPhase1, report.Level)
	require.Equal(t, 1, source.calls)
	require.Equal(t, "2024-01-01", store.savedDate)
	require.Nil(t, store.saved.RawHTML, "raw html must not enter the cache")
	require.Len(t, archive.objects, 1)

	// Second call is served from the cache.
	report, err = svc.Contingency(context.Background())
	require.NoError(t, err)
	require.Equal(t, circulation.LevelPhase1, report.Level)
	require.Equal(t, 1, source.calls)
}

func TestContingencyDegradesToNone(t *testing.T) {
	source := &stubSource{err: errors.New("portal down")}
	svc, _, _, _ := newTestService(t, source, nil, Config{})

	report, err := svc.Contingency(context.Background())
	require.NoError(t, err)
	require.Equal(t, circulation.LevelNone, report.Level)
	require.False(t, report.Active)
	require.Contains(t, report.Detail, "portal down")
}

func TestCheckRestrictedDayNotifies(t *testing.T) {
	source := &stubSource{report: ContingencyReport{Level: circulation.LevelNone, Detail: "sin contingencia"}}
	channel := &stubNotifier{name: "telegram"}
	svc, history, _, _ := newTestService(t, source, []Notifier{channel}, Config{
		DefaultLastDigit: 5,
		DefaultSticker:   circulation.StickerOne,
	})

	record, err := svc.Check(context.Background(), CheckRequest{})
	require.NoError(t, err)
	require.False(t, record.MayDrive)
	require.Equal(t, "2024-01-01", record.Date)
	require.Equal(t, 5, record.LastDigit)
	require.True(t, record.Notified)
	require.Contains(t, record.Message, "🚫 No circula")
	require.Contains(t, record.Message, "lunes 1 de enero de 2024")
	require.Equal(t, record.Message, channel.lastMessage)
	require.Len(t, history.records, 1)
	require.Equal(t, record.ID, history.records[0].ID)
}

func TestCheckRequestOverridesVehicle(t *testing.T) {
	source := &stubSource{report: ContingencyReport{Level: circulation.LevelNone}}
	svc, _, _, _ := newTestService(t, source, nil, Config{DefaultLastDigit: 5, DefaultSticker: circulation.StickerOne})

	digit := 7
	record, err := svc.Check(context.Background(), CheckRequest{Date: "2024-01-02", LastDigit: &digit, Sticker: "2"})
	require.NoError(t, err)
	require.Equal(t, 7, record.LastDigit)
	require.Equal(t, circulation.StickerTwo, record.Sticker)
	require.False(t, record.MayDrive, "digit 7 rests on Tuesdays")
}

func TestCheckInvalidDate(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubSource{}, nil, Config{DefaultSticker: circulation.StickerOne})
	_, err := svc.Check(context.Background(), CheckRequest{Date: "01/02/2024"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestCheckOnlyWhenRestrictedSkipsNotification(t *testing.T) {
	source := &stubSource{report: ContingencyReport{Level: circulation.LevelNone}}
	channel := &stubNotifier{name: "telegram"}
	svc, _, _, _ := newTestService(t, source, []Notifier{channel}, Config{
		DefaultLastDigit:   1,
		DefaultSticker:     circulation.StickerOne,
		OnlyWhenRestricted: true,
	})

	record, err := svc.Check(context.Background(), CheckRequest{})
	require.NoError(t, err)
	require.True(t, record.MayDrive, "digit 1 drives on Mondays")
	require.False(t, record.Notified)
	require.Zero(t, channel.calls)
}

func TestCheckAllChannelsFailing(t *testing.T) {
	source := &stubSource{report: ContingencyReport{Level: circulation.LevelNone}}
	chA := &stubNotifier{name: "telegram", err: errors.New("bad token")}
	chB := &stubNotifier{name: "whatsapp", err: errors.New("unreachable")}
	svc, history, _, _ := newTestService(t, source, []Notifier{chA, chB}, Config{
		DefaultLastDigit: 5,
		DefaultSticker:   circulation.StickerOne,
	})

	record, err := svc.Check(context.Background(), CheckRequest{})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "notify_error"))
	require.False(t, record.Notified)
	require.Contains(t, record.NotifyError, "telegram")
	require.Contains(t, record.NotifyError, "whatsapp")
	require.Len(t, history.records, 1, "failed runs are still recorded")
}

func TestCheckNotifyFalseSuppressesChannels(t *testing.T) {
	source := &stubSource{report: ContingencyReport{Level: circulation.LevelNone}}
	channel := &stubNotifier{name: "telegram"}
	svc, _, _, _ := newTestService(t, source, []Notifier{channel}, Config{
		DefaultLastDigit: 5,
		DefaultSticker:   circulation.StickerOne,
	})

	off := false
	record, err := svc.Check(context.Background(), CheckRequest{Notify: &off})
	require.NoError(t, err)
	require.False(t, record.Notified)
	require.Zero(t, channel.calls)
}

func TestBuildMessageActiveContingency(t *testing.T) {
	report := ContingencyReport{Active: true, Phase: "Fase 2", Level: circulation.LevelPhase2}
	result := circulation.Result{MayDrive: false, Reason: "no circula"}
	msg := BuildMessage("lunes 1 de enero de 2024", report, result)
	require.Contains(t, msg, "Sí (Fase 2)")
	require.Contains(t, msg, "🚫 No circula")
	require.Contains(t, msg, "no circula")
}

type stubSource struct {
	report ContingencyReport
	err    error
	calls  int
}

func (s *stubSource) Check(context.Context) (ContingencyReport, error) {
	s.calls++
	if s.err != nil {
		return ContingencyReport{}, s.err
	}
	return s.report, nil
}

type stubStore struct {
	saved     ContingencyReport
	savedDate string
	hasSaved  bool
}

func (s *stubStore) Get(_ context.Context, date string) (ContingencyReport, bool, error) {
	if s.hasSaved && s.savedDate == date {
		return s.saved, true, nil
	}
	return ContingencyReport{}, false, nil
}

func (s *stubStore) Save(_ context.Context, date string, report ContingencyReport, _ time.Duration) error {
	s.saved = report
	s.savedDate = date
	s.hasSaved = true
	return nil
}

type stubHistory struct {
	records []CheckRecord
}

func (h *stubHistory) Save(_ context.Context, record CheckRecord) error {
	h.records = append(h.records, record)
	return nil
}

func (h *stubHistory) Recent(_ context.Context, limit int) ([]CheckRecord, error) {
	if limit > 0 && limit < len(h.records) {
		return h.records[:limit], nil
	}
	return h.records, nil
}

type stubArchive struct {
	objects map[string][]byte
}

func (a *stubArchive) Put(_ context.Context, key string, html []byte) error {
	a.objects[key] = html
	return nil
}

type stubNotifier struct {
	name        string
	err         error
	calls       int
	lastMessage string
}

func (n *stubNotifier) Send(_ context.Context, message string) error {
	n.calls++
	if n.err != nil {
		return n.err
	}
	n.lastMessage = message
	return nil
}

func (n *stubNotifier) Name() string { return n.name }
