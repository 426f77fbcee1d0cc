// Package fetch implements the resilient read chain (authenticated, public, direct, mock)
// and the write path with its single direct-base retry.
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
)

// Tiers, in the order the read chain tries them.
const (
	TierAuth   = "auth"
	TierPublic = "public"
	TierDirect = "direct"
	TierMock   = "mock"

	// TierPrimary is the first attempt of a write.
	TierPrimary = "primary"
)

const (
	defaultTimeout = 4 * time.Second
	maxBodySize    = 8 << 20
)

type Config struct {
	BaseURL       string
	PublicBaseURL string
	// DirectBaseURL bypasses the proxy. Empty disables the direct tier and the write retry.
	DirectBaseURL string
	Timeout       time.Duration
	// RateLimit in requests per second. Zero disables the limiter.
	RateLimit float64
	RateBurst int
}

// ConfigFrom maps the api section of the application config.
func ConfigFrom(api core.APIConfig) Config {
	return Config{
		BaseURL:       api.BaseURL,
		PublicBaseURL: api.PublicBaseURL,
		DirectBaseURL: api.DirectBaseURL,
		Timeout:       api.Timeout,
		RateLimit:     api.RateLimit,
		RateBurst:     api.RateBurst,
	}
}

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource returns the current bearer token, or "".
type TokenSource interface {
	Token() string
}

type Option func(*Engine)

func WithClient(c Doer) Option {
	return func(e *Engine) { e.client = c }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGuard shares a stale-response guard between engines.
func WithGuard(g *Guard) Option {
	return func(e *Engine) { e.guard = g }
}

type Engine struct {
	conf     Config
	client   Doer
	tokens   TokenSource
	logger   core.Logger
	recorder Recorder
	limiter  *rate.Limiter
	guard    *Guard
	now      func() time.Time

	hmu     sync.RWMutex
	headers http.Header
}

func NewEngine(conf Config, tokens TokenSource, logger core.Logger, opts ...Option) *Engine {
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")
	conf.PublicBaseURL = strings.TrimRight(conf.PublicBaseURL, "/")
	conf.DirectBaseURL = strings.TrimRight(conf.DirectBaseURL, "/")
	if conf.Timeout <= 0 {
		conf.Timeout = defaultTimeout
	}

	e := &Engine{
		conf:     conf,
		client:   &http.Client{},
		tokens:   tokens,
		logger:   logger,
		recorder: nopRecorder{},
		guard:    NewGuard(),
		now:      time.Now,
		headers:  make(http.Header),
	}
	if conf.RateLimit > 0 {
		burst := conf.RateBurst
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(conf.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetHeader adds a default header sent with every attempt.
func (e *Engine) SetHeader(key, value string) {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	e.headers.Set(key, value)
}

// ClearHeaders drops every default header. It is registered as a session clear hook.
func (e *Engine) ClearHeaders() {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	e.headers = make(http.Header)
}

// Headers returns a copy of the default headers.
func (e *Engine) Headers() http.Header {
	e.hmu.RLock()
	defer e.hmu.RUnlock()
	return e.headers.Clone()
}

func (e *Engine) token() string {
	if e.tokens == nil {
		return ""
	}
	return e.tokens.Token()
}

// Options of a read.
type Options struct {
	// UseAuth prepends the authenticated tier. It is skipped when no token is present.
	UseAuth bool
	Params  url.Values
	// Resource names the request in logs, metrics and errors. Defaults to the path.
	Resource string
	// Fallback is served, marked as mock, when every live tier failed. Nil means no mock tier.
	Fallback []core.Record
	// View enables the stale-response guard for the named view.
	View    string
	Loading Loading
}

// Fetch runs the read chain for path and returns the first usable page.
//
// The chain stops early on SessionExpiredError, ConnectionExhaustedError or cancellation of ctx.
// When every live tier answered 404 the result is an empty success.
func (e *Engine) Fetch(ctx context.Context, path string, opts Options) (paged.Result, error) {
	if opts.Loading != nil {
		opts.Loading.Start()
		defer opts.Loading.Done()
	}

	if opts.View == "" {
		return e.fetch(ctx, path, opts)
	}
	ticket := e.guard.Begin(opts.View)
	res, err := e.fetch(ctx, path, opts)
	if !e.guard.Current(opts.View, ticket) {
		e.logger.Debug("discarding stale response", map[string]interface{}{"view": opts.View, "path": path})
		if err != nil {
			return res, errors.Wrap(core.ErrStaleResponse, err.Error())
		}
		return res, core.ErrStaleResponse
	}
	return res, err
}

func (e *Engine) fetch(ctx context.Context, path string, opts Options) (paged.Result, error) {
	resource := opts.Resource
	if resource == "" {
		resource = path
	}

	var (
		failures []core.TierFailure
		notFound int
	)
	for _, t := range e.readTiers(opts.UseAuth) {
		res, err := e.read(ctx, t, resource, path, opts.Params)
		if err == nil {
			res.Mock = false
			res.Source = t.name
			return res, nil
		}
		if ctx.Err() != nil {
			return paged.Result{}, errors.Wrapf(ctx.Err(), "fetching %s", resource)
		}
		if core.IsSessionExpired(err) || core.IsConnectionExhausted(err) {
			e.logger.Error("fetch aborted", e.fields(t, resource, path), err)
			return paged.Result{}, err
		}
		e.logger.Warn("fetch tier failed", e.fields(t, resource, path), err)
		failures = append(failures, core.TierFailure{Tier: t.name, Err: err})
		if core.IsNotFound(err) {
			notFound++
		}
	}

	if len(failures) > 0 && notFound == len(failures) {
		return paged.Result{
			Success: true,
			Rows:    []core.Record{},
			Source:  failures[len(failures)-1].Tier,
		}, nil
	}

	if opts.Fallback != nil {
		rows := make([]core.Record, len(opts.Fallback))
		for i, r := range opts.Fallback {
			rows[i] = r.Clone()
		}
		e.recorder.ObserveMock(resource)
		e.logger.Warn("serving fallback data", map[string]interface{}{"resource": resource, "rows": len(rows)})
		return paged.Result{Success: true, Rows: rows, Count: len(rows), Mock: true, Source: TierMock}, nil
	}

	err := &core.AllTransportsFailedError{Resource: resource, Failures: failures}
	e.logger.Error("fetch failed", map[string]interface{}{"resource": resource, "path": path}, err)
	return paged.Result{}, err
}

// read is one tier attempt: the round trip plus normalization of the body.
func (e *Engine) read(ctx context.Context, t tier, resource, path string, params url.Values) (paged.Result, error) {
	start := e.now()
	resp, err := e.roundTrip(ctx, request{tier: t, method: http.MethodGet, path: path, params: params})
	if err == nil {
		var res paged.Result
		res, err = paged.Decode(resp.Body)
		if err == nil {
			e.observe(ctx, t.name, resource, start, nil)
			return res, nil
		}
		err = errors.Wrapf(err, "%s tier", t.name)
	}
	e.observe(ctx, t.name, resource, start, err)
	return paged.Result{}, err
}

func (e *Engine) readTiers(useAuth bool) []tier {
	tiers := make([]tier, 0, 3)
	if useAuth {
		if e.token() != "" {
			tiers = append(tiers, tier{name: TierAuth, base: e.conf.BaseURL, creds: credsRequired})
		} else {
			e.logger.Debug("no token, skipping the authenticated tier")
		}
	}
	tiers = append(tiers, tier{name: TierPublic, base: e.conf.PublicBaseURL, creds: credsNone})
	if e.conf.DirectBaseURL != "" {
		tiers = append(tiers, tier{name: TierDirect, base: e.conf.DirectBaseURL, creds: credsIfPresent})
	}
	return tiers
}

func (e *Engine) fields(t tier, resource, path string) map[string]interface{} {
	return map[string]interface{}{"tier": t.name, "resource": resource, "path": path}
}

func (e *Engine) observe(ctx context.Context, tierName, resource string, start time.Time, err error) {
	e.recorder.ObserveAttempt(tierName, resource, outcomeOf(ctx, err), e.now().Sub(start))
}

func outcomeOf(ctx context.Context, err error) string {
	var herr *core.HTTPError
	switch {
	case err == nil:
		return OutcomeOK
	case ctx.Err() != nil:
		return OutcomeCanceled
	case core.IsSessionExpired(err):
		return OutcomeSessionExpired
	case core.IsConnectionExhausted(err):
		return OutcomeExhausted
	case core.IsTransport(err):
		return OutcomeTransport
	case errors.As(err, &herr):
		if herr.Status >= 500 {
			return OutcomeServerError
		}
		return OutcomeClientError
	case core.IsValidation(err):
		return OutcomeClientError
	default:
		return OutcomeUnusable
	}
}
