package calais

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/calaisgraph/internal/normalization"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/envutil"
	"github.com/yungbote/calaisgraph/internal/platform/httpx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

const (
	DefaultURL = "http://api.opencalais.com/enlighten/rest/"

	OutputJSON = "application/json"
	OutputRDF  = "xml/rdf"

	// MaxContentChars is the largest submission the service accepts.
	MaxContentChars = 100000

	userAgent = "calaisgraph OpenCalaisAPI"
)

type Client interface {
	AnalyzeText(ctx context.Context, text, contentType string) (*Response, error)
	AnalyzeURL(ctx context.Context, rawURL, contentType string) (*Response, error)
}

// Response is an undecoded analysis payload and the format it was requested in.
type Response struct {
	Format normalization.Format
	Body   []byte
}

type Config struct {
	APIKey            string
	URL               string
	Submitter         string
	OutputFormat      string
	AllowDistribution bool
	AllowSearch       bool
	Timeout           time.Duration
	MaxRetries        int

	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration
}

func ConfigFromEnv() Config {
	timeoutSec := envutil.Int("CALAIS_TIMEOUT_SECONDS", 30)
	return Config{
		APIKey:            strings.TrimSpace(envutil.String("CALAIS_API_KEY", "")),
		URL:               strings.TrimSpace(envutil.String("CALAIS_URL", DefaultURL)),
		Submitter:         strings.TrimSpace(envutil.String("CALAIS_SUBMITTER", "calaisgraph")),
		OutputFormat:      strings.TrimSpace(envutil.String("CALAIS_OUTPUT_FORMAT", OutputJSON)),
		AllowDistribution: envutil.Bool("CALAIS_ALLOW_DISTRIBUTION", false),
		AllowSearch:       envutil.Bool("CALAIS_ALLOW_SEARCH", false),
		Timeout:           time.Duration(timeoutSec) * time.Second,
		MaxRetries:        envutil.Int("CALAIS_MAX_RETRIES", 3),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing CALAIS_API_KEY")
	}
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if strings.TrimSpace(cfg.Submitter) == "" {
		cfg.Submitter = "calaisgraph"
	}
	switch normalization.ParseFormat(cfg.OutputFormat) {
	case normalization.FormatJSON:
		cfg.OutputFormat = OutputJSON
	default:
		cfg.OutputFormat = OutputRDF
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}

	return &client{
		log:        log.With("client", "CalaisClient"),
		cfg:        cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries: cfg.MaxRetries,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	maxRetries int
}

func (c *client) AnalyzeText(ctx context.Context, text, contentType string) (*Response, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("calais client unavailable")
	}
	text = Truncate(text, MaxContentChars)
	if strings.TrimSpace(contentType) == "" {
		contentType = "text/txt"
	}

	form := url.Values{}
	form.Set("licenseID", c.cfg.APIKey)
	form.Set("content", text)
	paramsXML, err := c.paramsXML(contentType, ExternalID(text))
	if err != nil {
		return nil, err
	}
	form.Set("paramsXML", paramsXML)

	raw, err := c.do(ctx, form)
	if err != nil {
		return nil, err
	}
	return &Response{
		Format: normalization.FormatForOutput(c.cfg.OutputFormat),
		Body:   raw,
	}, nil
}

// AnalyzeURL downloads rawURL (following redirects) and submits the page
// body. Invalid UTF-8 in the page is dropped.
func (c *client) AnalyzeURL(ctx context.Context, rawURL, contentType string) (*Response, error) {
	if c == nil || c.httpClient == nil {
		return nil, fmt.Errorf("calais client unavailable")
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "text/html"
	}
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return c.AnalyzeText(ctx, strings.ToValidUTF8(string(body), ""), contentType)
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// ExternalID is the SHA-1 hex digest the service uses to correlate
// submissions.
func ExternalID(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ---------- request parameters ----------

type params struct {
	XMLName    xml.Name            `xml:"c:params"`
	C          string              `xml:"xmlns:c,attr"`
	RDF        string              `xml:"xmlns:rdf,attr"`
	Processing processingDirective `xml:"c:processingDirectives"`
	User       userDirective       `xml:"c:userDirectives"`
	External   string              `xml:"c:externalMetadata"`
}

type processingDirective struct {
	ContentType        string `xml:"c:contentType,attr"`
	OutputFormat       string `xml:"c:outputFormat,attr"`
	RelevanceScore     string `xml:"c:calculatedRelevanceScore,attr"`
	EnableMetadataType string `xml:"c:enableMetadataType,attr"`
}

type userDirective struct {
	AllowDistribution string `xml:"c:allowDistribution,attr"`
	AllowSearch       string `xml:"c:allowSearch,attr"`
	ExternalID        string `xml:"c:externalID,attr"`
	Submitter         string `xml:"c:submitter,attr"`
}

func (c *client) paramsXML(contentType, externalID string) (string, error) {
	p := params{
		C:   "http://s.opencalais.com/1/pred/",
		RDF: "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		Processing: processingDirective{
			ContentType:        contentType,
			OutputFormat:       c.cfg.OutputFormat,
			RelevanceScore:     "true",
			EnableMetadataType: "SocialTags",
		},
		User: userDirective{
			AllowDistribution: strconv.FormatBool(c.cfg.AllowDistribution),
			AllowSearch:       strconv.FormatBool(c.cfg.AllowSearch),
			ExternalID:        externalID,
			Submitter:         c.cfg.Submitter,
		},
	}
	out, err := xml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode paramsXML: %w", err)
	}
	return string(out), nil
}

// ---------- HTTP / retry helpers ----------

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "calais: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "..."
	}
	return fmt.Sprintf("calais http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) do(ctx context.Context, form url.Values) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	backoff := c.cfg.InitialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, form)
		if err == nil {
			return raw, nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Calais request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}

	return nil, errors.New("unreachable retry loop")
}

func (c *client) doOnce(ctx context.Context, form url.Values) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := readBody(resp)
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// readBody drains and closes resp.Body, gunzipping it when the server says
// it is gzip encoded. Setting Accept-Encoding by hand turns off the
// transport's own decompression.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(resp.Header.Get("Content-Encoding")), "gzip") {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("gunzip: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
