// Package came probes the Comisión Ambiental de la Megalópolis portal and
// detects whether an atmospheric contingency (Fase 1 or Fase 2) is active.
// Detection is plain text search over the rendered page, deliberately not
// tied to fragile CSS selectors.
package came

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/yanqian/circulabot/internal/domain/advisor"
	"github.com/yanqian/circulabot/internal/domain/circulation"
)

// Official portal pages, probed in order; the first reachable one wins.
var defaultURLs = []string{
	"https://www.gob.mx/comisionambiental/acciones-y-programas/contingencias-ambientales-atmosfericas",
	"https://www.gob.mx/comisionambiental",
}

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
	snippetRadius  = 250
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fase 2 is matched before Fase 1 so a page mentioning both phases does
// not under-report the severity.
var phasePatterns = []struct {
	level   circulation.ContingencyLevel
	label   string
	pattern *regexp.Regexp
}{
	{circulation.LevelPhase2, "Fase 2", regexp.MustCompile(`(?i)fase\s*2|contingencia\s+(?:ambiental\s+)?fase\s+(?:2|ii)\b`)},
	{circulation.LevelPhase1, "Fase 1", regexp.MustCompile(`(?i)fase\s*1|contingencia\s+(?:ambiental\s+)?fase\s+(?:1|i)\b`)},
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Client fetches and classifies the CAMe portal pages.
type Client struct {
	urls       []string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient builds a portal client. Empty urls fall back to the official
// pages, a zero timeout to the default.
func NewClient(urls []string, timeout time.Duration, logger *slog.Logger) *Client {
	if len(urls) == 0 {
		urls = defaultURLs
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		urls:       urls,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "came.client"),
		now:        time.Now,
	}
}

// Check probes each portal URL in order and returns the first usable
// classification. It errs only when no URL yields a parseable page.
func (c *Client) Check(ctx context.Context) (advisor.ContingencyReport, error) {
	var failures []string

	for _, url := range c.urls {
		c.logger.Info("probing CAMe portal", "url", url)

		body, err := c.fetch(ctx, url)
		if err != nil {
			c.logger.Warn("portal fetch failed", "url", url, "error", err)
			failures = append(failures, err.Error())
			continue
		}

		text := extractText(body)
		if text == "" {
			// JS-rendered pages embed the content in inline scripts;
			// fall back to searching the raw HTML.
			c.logger.Warn("empty text after parsing, searching raw html", "url", url)
			text = body
		}

		report := classify(text)
		report.Source = url
		report.RawHTML = []byte(body)
		report.FetchedAt = c.now()
		c.logger.Info("contingency resolved", "url", url, "active", report.Active, "phase", report.Phase)
		return report, nil
	}

	return advisor.ContingencyReport{}, errors.New(strings.Join(failures, " | "))
}

func (c *Client) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build portal request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("portal request failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("portal responded with HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read portal response: %w", err)
	}
	return string(body), nil
}

// classify scans the text for contingency phases in severity order.
func classify(text string) advisor.ContingencyReport {
	for _, candidate := range phasePatterns {
		if loc := candidate.pattern.FindStringIndex(text); loc != nil {
			return advisor.ContingencyReport{
				Level:  candidate.level,
				Active: true,
				Phase:  candidate.label,
				Detail: snippet(text, loc[0], loc[1]),
			}
		}
	}
	return advisor.ContingencyReport{
		Level:  circulation.LevelNone,
		Detail: "Sin contingencia activa: no se encontraron menciones de Fase 1 o Fase 2 en la página.",
	}
}

// snippet returns the text surrounding a match for use as evidence.
func snippet(text string, start, end int) string {
	from := start - snippetRadius
	if from < 0 {
		from = 0
	}
	to := end + snippetRadius
	if to > len(text) {
		to = len(text)
	}
	return multiSpace.ReplaceAllString(strings.TrimSpace(text[from:to]), " ")
}

// Elements whose subtrees carry no page prose.
var skippedElements = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "head": {},
	"nav": {}, "footer": {}, "aside": {}, "template": {},
}

// extractText flattens the HTML document to whitespace-normalized text,
// dropping script/style/navigation subtrees.
func extractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	collectText(doc, &sb)
	return multiSpace.ReplaceAllString(strings.TrimSpace(sb.String()), " ")
}

func collectText(node *html.Node, sb *strings.Builder) {
	if node.Type == html.ElementNode {
		if _, skip := skippedElements[node.Data]; skip {
			return
		}
	}
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			sb.WriteString(text)
			sb.WriteByte(' ')
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}

var _ advisor.ContingencySource = (*Client)(nil)
