package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/domain/circulation"
	"github.com/yanqian/circulabot/internal/infra/config"
	apperrors "github.com/yanqian/circulabot/pkg/errors"
)

type stubAdvisor struct {
	report     advisor.ContingencyReport
	reportErr  error
	record     advisor.CheckRecord
	checkErr   error
	recent     []advisor.CheckRecord
	recentErr  error
	lastCheck  advisor.CheckRequest
	checkCalls int
}

func (s *stubAdvisor) Contingency(context.Context) (advisor.ContingencyReport, error) {
	return s.report, s.reportErr
}

func (s *stubAdvisor) Check(_ context.Context, req advisor.CheckRequest) (advisor.CheckRecord, error) {
	s.checkCalls++
	s.lastCheck = req
	return s.record, s.checkErr
}

func (s *stubAdvisor) Recent(context.Context, int) ([]advisor.CheckRecord, error) {
	return s.recent, s.recentErr
}

func newRouterUnderTest(t *testing.T, svc advisor.Service) *http.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, NewHandler(svc, logger))
}

func performRequest(server *http.Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeErrorBody(t *testing.T, recorder *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Error.Code, body.Error.Message
}

func TestEvaluateEndpoint(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisor{})

	digit := 5
	recorder := performRequest(server, http.MethodPost, "/api/v1/evaluations", EvaluateRequest{
		LastDigit: &digit,
		Sticker:   "2",
		Date:      "2024-01-01",
	})

	require.Equal(t, http.StatusOK, recorder.Code)

	var result circulation.Result
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	require.False(t, result.MayDrive)
	require.True(t, result.BaseRestrictionApplied)
	require.Equal(t, "lunes", result.Weekday)
}

func TestEvaluateEndpointRejectsBadDigit(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisor{})

	digit := 12
	recorder := performRequest(server, http.MethodPost, "/api/v1/evaluations", EvaluateRequest{
		LastDigit: &digit,
		Sticker:   "2",
		Date:      "2024-01-01",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	code, _ := decodeErrorBody(t, recorder)
	require.Equal(t, "invalid_request", code)
}

func TestEvaluateEndpointRejectsBadDate(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisor{})

	digit := 3
	recorder := performRequest(server, http.MethodPost, "/api/v1/evaluations", EvaluateRequest{
		LastDigit: &digit,
		Sticker:   "2",
		Date:      "01/01/2024",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	code, message := decodeErrorBody(t, recorder)
	require.Equal(t, "invalid_request", code)
	require.Contains(t, message, "YYYY-MM-DD")
}

func TestEvaluateEndpointRequiresFields(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisor{})

	recorder := performRequest(server, http.MethodPost, "/api/v1/evaluations", map[string]any{
		"sticker": "2",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestContingencyEndpoint(t *testing.T) {
	svc := &stubAdvisor{
		report: advisor.ContingencyReport{
			Level:  circulation.LevelPhase1,
			Active: true,
			Phase:  "Fase 1",
			Detail: "contingencia ambiental fase 1",
		},
	}
	server := newRouterUnderTest(t, svc)

	recorder := performRequest(server, http.MethodGet, "/api/v1/contingency", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	var report advisor.ContingencyReport
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &report))
	require.Equal(t, circulation.LevelPhase1, report.Level)
	require.True(t, report.Active)
}

func TestContingencyEndpointUpstreamFailure(t *testing.T) {
	svc := &stubAdvisor{reportErr: apperrors.Wrap("contingency_error", "portal unreachable", errors.New("dial timeout"))}
	server := newRouterUnderTest(t, svc)

	recorder := performRequest(server, http.MethodGet, "/api/v1/contingency", nil)

	require.Equal(t, http.StatusBadGateway, recorder.Code)
	code, _ := decodeErrorBody(t, recorder)
	require.Equal(t, "contingency_error", code)
}

func TestCheckEndpoint(t *testing.T) {
	svc := &stubAdvisor{
		record: advisor.CheckRecord{
			ID:       "rec-1",
			Date:     "2024-01-01",
			MayDrive: false,
			Reason:   "programa Hoy No Circula regular",
		},
	}
	server := newRouterUnderTest(t, svc)

	digit := 6
	recorder := performRequest(server, http.MethodPost, "/api/v1/checks", advisor.CheckRequest{
		Date:      "2024-01-01",
		LastDigit: &digit,
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, 1, svc.checkCalls)
	require.Equal(t, "2024-01-01", svc.lastCheck.Date)
	require.NotNil(t, svc.lastCheck.LastDigit)
	require.Equal(t, 6, *svc.lastCheck.LastDigit)

	var record advisor.CheckRecord
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &record))
	require.Equal(t, "rec-1", record.ID)
	require.False(t, record.MayDrive)
}

func TestCheckEndpointInvalidInput(t *testing.T) {
	svc := &stubAdvisor{checkErr: apperrors.Wrap("invalid_input", "dígito inválido", nil)}
	server := newRouterUnderTest(t, svc)

	recorder := performRequest(server, http.MethodPost, "/api/v1/checks", advisor.CheckRequest{})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	code, _ := decodeErrorBody(t, recorder)
	require.Equal(t, "invalid_request", code)
}

func TestCheckEndpointNotifyFailure(t *testing.T) {
	svc := &stubAdvisor{checkErr: apperrors.Wrap("notify_error", "all channels failed", nil)}
	server := newRouterUnderTest(t, svc)

	recorder := performRequest(server, http.MethodPost, "/api/v1/checks", advisor.CheckRequest{})

	require.Equal(t, http.StatusBadGateway, recorder.Code)
	code, _ := decodeErrorBody(t, recorder)
	require.Equal(t, "notify_error", code)
}

func TestRecentChecksEndpoint(t *testing.T) {
	svc := &stubAdvisor{
		recent: []advisor.CheckRecord{
			{ID: "rec-2", Date: "2024-01-02"},
			{ID: "rec-1", Date: "2024-01-01"},
		},
	}
	server := newRouterUnderTest(t, svc)

	recorder := performRequest(server, http.MethodGet, "/api/v1/checks/recent?limit=2", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	var body struct {
		Checks []advisor.CheckRecord `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Checks, 2)
	require.Equal(t, "rec-2", body.Checks[0].ID)
}

func TestRecentChecksRejectsBadLimit(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisor{})

	for _, limit := range []string{"0", "-3", "101", "abc"} {
		recorder := performRequest(server, http.MethodGet, "/api/v1/checks/recent?limit="+limit, nil)
		require.Equal(t, http.StatusBadRequest, recorder.Code, "limit %q", limit)
	}
}

func TestHealthz(t *testing.T) {
	server := newRouterUnderTest(t, &stubAdvisor{})

	recorder := performRequest(server, http.MethodGet, "/healthz", nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}
