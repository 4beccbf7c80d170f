package advisor

import (
	"context"
	"time"

	"github.com/yanqian/circulabot/internal/domain/circulation"
)

// ContingencyReport is the outcome of one probe of the CAMe portal.
type ContingencyReport struct {
	Level     circulation.ContingencyLevel `json:"level"`
	Active    bool                         `json:"active"`
	Phase     string                       `json:"phase,omitempty"`
	Detail    string                       `json:"detail"`
	Source    string                       `json:"source,omitempty"`
	FetchedAt time.Time                    `json:"fetchedAt"`
	RawHTML   []byte                       `json:"-"`
}

// CheckRequest drives one full pipeline run. Empty fields fall back to the
// configured vehicle and today's date in Mexico City.
type CheckRequest struct {
	Date      string `json:"date"`
	LastDigit *int   `json:"lastDigit"`
	Sticker   string `json:"sticker"`
	Notify    *bool  `json:"notify"`
}

// CheckRecord is the auditable result of one pipeline run.
type CheckRecord struct {
	ID          string                       `json:"id"`
	CheckedAt   time.Time                    `json:"checkedAt"`
	Date        string                       `json:"date"`
	LastDigit   int                          `json:"lastDigit"`
	Sticker     circulation.StickerCategory  `json:"sticker"`
	Level       circulation.ContingencyLevel `json:"level"`
	MayDrive    bool                         `json:"mayDrive"`
	Reason      string                       `json:"reason"`
	Message     string                       `json:"message"`
	Notified    bool                         `json:"notified"`
	NotifyError string                       `json:"notifyError,omitempty"`
}

// ContingencySource probes the upstream portal for the current alert phase.
type ContingencySource interface {
	Check(ctx context.Context) (ContingencyReport, error)
}

// ReportStore caches resolved reports so repeated checks within the TTL do
// not hammer the portal.
type ReportStore interface {
	Get(ctx context.Context, date string) (ContingencyReport, bool, error)
	Save(ctx context.Context, date string, report ContingencyReport, ttl time.Duration) error
}

// CheckRepository persists the audit history of pipeline runs.
type CheckRepository interface {
	Save(ctx context.Context, record CheckRecord) error
	Recent(ctx context.Context, limit int) ([]CheckRecord, error)
}

// SnapshotArchive keeps the raw portal HTML that produced a detection.
type SnapshotArchive interface {
	Put(ctx context.Context, key string, html []byte) error
}

// Notifier delivers the final message to one chat channel.
type Notifier interface {
	Send(ctx context.Context, message string) error
	Name() string
}

// Config wires runtime settings for the advisor domain.
type Config struct {
	DefaultLastDigit   int
	DefaultSticker     circulation.StickerCategory
	OnlyWhenRestricted bool
	CacheTTL           time.Duration
}
