package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/alharis/haris/internal/haris/common/log"
	"github.com/alharis/haris/internal/haris/domain"
)

const (
	// DefaultTimeout bounds a single source download.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxSize caps a single source body.
	DefaultMaxSize = 64 * datasize.MB
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "haris-blocklist/1.0"
)

// ErrEmptyBody is returned when a source responds with no content.
var ErrEmptyBody = errors.New("empty body")

// ErrTooLarge is returned when a source exceeds the configured size limit.
var ErrTooLarge = errors.New("body exceeds size limit")

// StatusError is returned when a source answers with a status other than 200.
type StatusError struct {
	Expected int
	Got      int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code error: expected %d, got %d", e.Expected, e.Got)
}

// Options configures a Fetcher. Zero values fall back to the defaults.
type Options struct {
	Timeout   time.Duration
	MaxSize   datasize.ByteSize
	UserAgent string
	Client    *http.Client
	Logger    log.Logger
}

// Fetcher downloads raw list bodies. It holds no state between calls and
// never retries.
type Fetcher struct {
	timeout   time.Duration
	maxSize   datasize.ByteSize
	userAgent string
	client    *http.Client
	logger    log.Logger
}

// New returns a Fetcher built from opts.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		timeout:   opts.Timeout,
		maxSize:   opts.MaxSize,
		userAgent: opts.UserAgent,
		client:    opts.Client,
		logger:    opts.Logger,
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.maxSize == 0 {
		f.maxSize = DefaultMaxSize
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.logger == nil {
		f.logger = log.NewNoopLogger()
	}
	return f
}

// Fetch retrieves the body of src. Every failure is a *domain.SourceError and
// therefore matches domain.ErrSourceUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, src domain.SourceDescriptor) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	body, err := f.fetch(ctx, src)
	if err != nil {
		f.logger.Warn(map[string]any{
			"source": src.ID,
			"url":    src.URL,
			"error":  err,
		}, "source fetch failed")
		return nil, &domain.SourceError{SourceID: src.ID, URL: src.URL, Err: err}
	}
	f.logger.Debug(map[string]any{
		"source":   src.ID,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}, "source fetched")
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, src domain.SourceDescriptor) ([]byte, error) {
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	var rc io.ReadCloser
	switch u.Scheme {
	case "http", "https":
		rc, err = f.openHTTP(ctx, src.URL)
	case "file":
		rc, err = os.Open(u.Path)
	default:
		err = fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, err := readLimited(rc, f.maxSize)
	if err != nil {
		// A cancelled request surfaces as a read error; report the cause.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{Expected: http.StatusOK, Got: resp.StatusCode}
	}
	return resp.Body, nil
}

// readLimited reads at most limit bytes from r and fails if more remain.
func readLimited(r io.Reader, limit datasize.ByteSize) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, int64(limit.Bytes())+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if uint64(len(body)) > limit.Bytes() {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, limit.HR())
	}
	return body, nil
}
