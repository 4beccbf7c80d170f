// Package levelstore caches resolved contingency reports so repeated
// checks within the same day reuse one portal probe.
package levelstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/circulabot/internal/domain/advisor"
)

// ValkeyStore keeps reports in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "contingency"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements advisor.ReportStore.
func (s *ValkeyStore) Get(ctx context.Context, date string) (advisor.ContingencyReport, bool, error) {
	if date == "" {
		return advisor.ContingencyReport{}, false, nil
	}
	cmd := s.client.B().Get().Key(s.key(date)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return advisor.ContingencyReport{}, false, nil
		}
		return advisor.ContingencyReport{}, false, err
	}
	var report advisor.ContingencyReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return advisor.ContingencyReport{}, false, err
	}
	return report, true, nil
}

// Save implements advisor.ReportStore.
func (s *ValkeyStore) Save(ctx context.Context, date string, report advisor.ContingencyReport, ttl time.Duration) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.key(date)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(date string) string {
	return s.prefix + ":report:" + date
}

var _ advisor.ReportStore = (*ValkeyStore)(nil)
