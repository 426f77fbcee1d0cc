package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
	"github.com/micky-code/school-management-system-SMS--sub000/services/logger"
	"github.com/micky-code/school-management-system-SMS--sub000/tests"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

type attempt struct {
	tier, resource, outcome string
}

type fakeRecorder struct {
	mu       sync.Mutex
	attempts []attempt
	mocks    []string
}

func (r *fakeRecorder) ObserveAttempt(tier, resource, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt{tier, resource, outcome})
}

func (r *fakeRecorder) ObserveMock(resource string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mocks = append(r.mocks, resource)
}

const departments = `{"success":true,"data":[{"id":1,"name":"Computer Science"}],"total":1}`

var fallbackDepartments = []core.Record{
	{"id": float64(1), "name": "Computer Science", "code": "CS"},
	{"id": float64(2), "name": "Business Administration", "code": "BA"},
}

func newEngine(b *testutil.Backend, token string, opts ...fetch.Option) *fetch.Engine {
	return fetch.NewEngine(b.Config(), staticToken(token), logsvc.Nop(), opts...)
}

func TestFetch_authenticatedTier(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Primary, http.MethodGet, "/departments", testutil.JSON(departments))
	e := newEngine(b, "tok-1")

	res, err := e.Fetch(context.Background(), "/departments", fetch.Options{UseAuth: true})
	require.NoError(t, err)
	assert.Equal(t, fetch.TierAuth, res.Source)
	assert.False(t, res.Mock)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "Computer Science", res.Rows[0].String("name"))

	reqs := b.Requests(testutil.Primary)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer tok-1", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.Len(t, reqs[0].Header.Get("X-Request-ID"), 26)
	assert.Zero(t, b.Hits(testutil.Public))
}

func TestFetch_noTokenSkipsAuthenticatedTier(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Public, http.MethodGet, "/departments", testutil.JSON(departments))
	e := newEngine(b, "")

	res, err := e.Fetch(context.Background(), "/departments", fetch.Options{UseAuth: true})
	require.NoError(t, err)
	assert.Equal(t, fetch.TierPublic, res.Source)
	assert.Zero(t, b.Hits(testutil.Primary))
	assert.Empty(t, b.Requests(testutil.Public)[0].Header.Get("Authorization"))
}

func TestFetch_fallsThroughTiers(t *testing.T) {
	tests := []struct {
		name      string
		primary   testutil.Reply
		public    testutil.Reply
		direct    testutil.Reply
		wantTier  string
		wantHits  [3]int
		wantCount int
	}{
		{
			name:     "auth 500, public ok",
			primary:  testutil.Reply{Status: http.StatusInternalServerError, Body: `{"message":"boom"}`},
			public:   testutil.JSON(departments),
			wantTier: fetch.TierPublic,
			wantHits: [3]int{1, 1, 0},
		},
		{
			name:     "auth unusable html, public ok",
			primary:  testutil.Reply{Status: http.StatusOK, Body: "<html>proxy</html>"},
			public:   testutil.JSON(departments),
			wantTier: fetch.TierPublic,
			wantHits: [3]int{1, 1, 0},
		},
		{
			name:     "auth success false, public ok",
			primary:  testutil.JSON(`{"success":false,"message":"Database error"}`),
			public:   testutil.JSON(departments),
			wantTier: fetch.TierPublic,
			wantHits: [3]int{1, 1, 0},
		},
		{
			name:     "auth dropped, public 502, direct ok",
			primary:  testutil.Reply{Drop: true},
			public:   testutil.Reply{Status: http.StatusBadGateway},
			direct:   testutil.JSON(`[{"id":1,"name":"Computer Science"}]`),
			wantTier: fetch.TierDirect,
			wantHits: [3]int{1, 1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBackend(t)
			b.Handle(testutil.Primary, http.MethodGet, "/departments", tt.primary)
			b.Handle(testutil.Public, http.MethodGet, "/departments", tt.public)
			if tt.direct.Status != 0 || tt.direct.Body != "" {
				b.Handle(testutil.Direct, http.MethodGet, "/departments", tt.direct)
			}
			e := newEngine(b, "tok")

			res, err := e.Fetch(context.Background(), "/departments", fetch.Options{UseAuth: true, Fallback: fallbackDepartments})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, res.Source)
			assert.False(t, res.Mock)
			assert.Equal(t, 1, res.Count)
			assert.Equal(t, tt.wantHits, [3]int{b.Hits(testutil.Primary), b.Hits(testutil.Public), b.Hits(testutil.Direct)})
		})
	}
}

func TestFetch_sessionExpiredStopsChain(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Primary, http.MethodGet, "/students", testutil.Reply{Status: http.StatusUnauthorized, Body: `{"message":"jwt expired"}`})
	b.Handle(testutil.Public, http.MethodGet, "/students", testutil.JSON(`[]`))
	e := newEngine(b, "expired")

	_, err := e.Fetch(context.Background(), "/students", fetch.Options{UseAuth: true, Fallback: []core.Record{}})
	require.Error(t, err)
	assert.True(t, core.IsSessionExpired(err))
	assert.Zero(t, b.Hits(testutil.Public))
	assert.Zero(t, b.Hits(testutil.Direct))
}

func TestFetch_publicUnauthorizedIsATierFailure(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Public, http.MethodGet, "/students", testutil.Reply{Status: http.StatusUnauthorized})
	b.Handle(testutil.Direct, http.MethodGet, "/students", testutil.JSON(`{"rows":[{"id":4}],"count":30}`))
	e := newEngine(b, "")

	res, err := e.Fetch(context.Background(), "/students", fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, fetch.TierDirect, res.Source)
	assert.Equal(t, 30, res.Count)
}

func TestFetch_connectionExhaustedStopsChain(t *testing.T) {
	tests := []struct {
		name  string
		reply testutil.Reply
	}{
		{name: "500 too many connections", reply: testutil.Reply{Status: http.StatusInternalServerError, Body: `{"message":"ER_CON_COUNT_ERROR: Too many connections"}`}},
		{name: "200 success false", reply: testutil.JSON(`{"success":false,"error":"too many connections"}`)},
		{name: "postgres slots", reply: testutil.Reply{Status: http.StatusServiceUnavailable, Body: "FATAL: remaining connection slots are reserved"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewBackend(t)
			b.Handle(testutil.Primary, http.MethodGet, "/grades", tt.reply)
			rec := &fakeRecorder{}
			e := newEngine(b, "tok", fetch.WithRecorder(rec))

			_, err := e.Fetch(context.Background(), "/grades", fetch.Options{UseAuth: true, Fallback: []core.Record{{"id": 1}}})
			require.Error(t, err)
			assert.True(t, core.IsConnectionExhausted(err))
			assert.Zero(t, b.Hits(testutil.Public))
			assert.Empty(t, rec.mocks)
			assert.Equal(t, []attempt{{fetch.TierAuth, "/grades", fetch.OutcomeExhausted}}, rec.attempts)
		})
	}
}

func TestFetch_mockFallback(t *testing.T) {
	b := testutil.NewBackend(t)
	for _, srv := range []string{testutil.Primary, testutil.Public, testutil.Direct} {
		b.Default(srv, testutil.Reply{Status: http.StatusInternalServerError})
	}
	rec := &fakeRecorder{}
	e := newEngine(b, "tok", fetch.WithRecorder(rec))

	res, err := e.Fetch(context.Background(), "/departments", fetch.Options{
		UseAuth:  true,
		Resource: "departments",
		Fallback: fallbackDepartments,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Mock)
	assert.Equal(t, fetch.TierMock, res.Source)
	assert.Equal(t, 2, res.Count)
	if diff := cmp.Diff(fallbackDepartments, res.Rows); diff != "" {
		t.Errorf("mock rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"departments"}, rec.mocks)
	assert.Len(t, rec.attempts, 3)

	res.Rows[0]["name"] = "mutated"
	assert.Equal(t, "Computer Science", fallbackDepartments[0]["name"])
}

func TestFetch_allTransportsFailed(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Down(testutil.Primary)
	b.Down(testutil.Public)
	b.Default(testutil.Direct, testutil.Reply{Status: http.StatusBadGateway})
	e := newEngine(b, "tok")

	_, err := e.Fetch(context.Background(), "/programs", fetch.Options{UseAuth: true, Resource: "programs"})
	require.Error(t, err)

	var all *core.AllTransportsFailedError
	require.True(t, errors.As(err, &all))
	assert.Equal(t, "programs", all.Resource)
	require.Len(t, all.Failures, 3)
	assert.True(t, core.IsTransport(all.Failures[0].Err))
	assert.True(t, core.IsTransport(all.Failures[1].Err))

	var herr *core.HTTPError
	require.True(t, errors.As(all.Last(), &herr))
	assert.Equal(t, http.StatusBadGateway, herr.Status)
}

func TestFetch_notFoundEverywhereIsEmpty(t *testing.T) {
	b := testutil.NewBackend(t)
	e := newEngine(b, "tok")

	res, err := e.Fetch(context.Background(), "/grades/student/42", fetch.Options{UseAuth: true, Fallback: []core.Record{{"id": 1}}})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.False(t, res.Mock)
}

func TestFetch_params(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Public, http.MethodGet, "/students", testutil.JSON(`[]`))
	e := newEngine(b, "")

	params := url.Values{"page": {"2"}, "limit": {"10"}, "search": {"ali"}}
	_, err := e.Fetch(context.Background(), "/students", fetch.Options{Params: params})
	require.NoError(t, err)
	assert.Equal(t, "limit=10&page=2&search=ali", b.Requests(testutil.Public)[0].Query)
}

func TestFetch_attemptTimeout(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Primary, http.MethodGet, "/exams", testutil.Reply{Delay: 2 * time.Second, Body: `[]`})
	b.Handle(testutil.Public, http.MethodGet, "/exams", testutil.JSON(`[{"id":1}]`))
	conf := b.Config()
	conf.Timeout = 100 * time.Millisecond
	e := fetch.NewEngine(conf, staticToken("tok"), logsvc.Nop())

	res, err := e.Fetch(context.Background(), "/exams", fetch.Options{UseAuth: true})
	require.NoError(t, err)
	assert.Equal(t, fetch.TierPublic, res.Source)
}

func TestFetch_canceled(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Default(testutil.Primary, testutil.Reply{Delay: 2 * time.Second})
	e := newEngine(b, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.Fetch(ctx, "/students", fetch.Options{UseAuth: true, Fallback: []core.Record{{"id": 1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Zero(t, b.Hits(testutil.Public))
}

func TestFetch_loadingReleased(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Public, http.MethodGet, "/ok", testutil.JSON(`[]`))
	b.Handle(testutil.Primary, http.MethodGet, "/expired", testutil.Reply{Status: http.StatusUnauthorized})
	e := newEngine(b, "tok")

	var loading fetch.Indicator
	_, err := e.Fetch(context.Background(), "/ok", fetch.Options{Loading: &loading})
	require.NoError(t, err)
	assert.False(t, loading.Active())

	_, err = e.Fetch(context.Background(), "/expired", fetch.Options{UseAuth: true, Loading: &loading})
	require.Error(t, err)
	assert.False(t, loading.Active())

	_, err = e.Fetch(context.Background(), "/missing", fetch.Options{Loading: &loading})
	require.NoError(t, err)
	assert.Zero(t, loading.InFlight())
}

func TestFetch_staleResponse(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Public, http.MethodGet, "/slow", testutil.Reply{Delay: 300 * time.Millisecond, Body: `[{"id":1}]`})
	b.Handle(testutil.Public, http.MethodGet, "/fast", testutil.JSON(`[{"id":2}]`))
	e := newEngine(b, "")

	slow := make(chan error, 1)
	go func() {
		_, err := e.Fetch(context.Background(), "/slow", fetch.Options{View: "students"})
		slow <- err
	}()
	require.Eventually(t, func() bool { return b.Hits(testutil.Public) == 1 }, time.Second, 5*time.Millisecond)

	res, err := e.Fetch(context.Background(), "/fast", fetch.Options{View: "students"})
	require.NoError(t, err)
	assert.Equal(t, "2", res.Rows[0].IDString())

	assert.True(t, errors.Is(<-slow, core.ErrStaleResponse))
}

func TestFetch_staleResponseKeepsCause(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Handle(testutil.Public, http.MethodGet, "/broken", testutil.Reply{Delay: 300 * time.Millisecond, Status: http.StatusServiceUnavailable})
	b.Handle(testutil.Direct, http.MethodGet, "/broken", testutil.Reply{Status: http.StatusServiceUnavailable})
	b.Handle(testutil.Public, http.MethodGet, "/fast", testutil.JSON(`[{"id":2}]`))
	e := newEngine(b, "")

	slow := make(chan error, 1)
	go func() {
		_, err := e.Fetch(context.Background(), "/broken", fetch.Options{View: "students"})
		slow <- err
	}()
	require.Eventually(t, func() bool { return b.Hits(testutil.Public) == 1 }, time.Second, 5*time.Millisecond)

	_, err := e.Fetch(context.Background(), "/fast", fetch.Options{View: "students"})
	require.NoError(t, err)

	err = <-slow
	assert.True(t, errors.Is(err, core.ErrStaleResponse))
	assert.Contains(t, err.Error(), "all transports failed for /broken")
}

func TestEngine_headers(t *testing.T) {
	b := testutil.NewBackend(t)
	b.Default(testutil.Public, testutil.JSON(`[]`))
	e := newEngine(b, "")

	e.SetHeader("X-School-Id", "7")
	_, err := e.Fetch(context.Background(), "/a", fetch.Options{})
	require.NoError(t, err)
	assert.Equal(t, "7", b.Requests(testutil.Public)[0].Header.Get("X-School-Id"))

	e.ClearHeaders()
	assert.Empty(t, e.Headers())
	_, err = e.Fetch(context.Background(), "/a", fetch.Options{})
	require.NoError(t, err)
	assert.Empty(t, b.Requests(testutil.Public)[1].Header.Get("X-School-Id"))
}
