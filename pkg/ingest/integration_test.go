package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twscraper/pkg/auth"
	"twscraper/pkg/config"
	"twscraper/pkg/logger"
	"twscraper/pkg/metrics"
	"twscraper/pkg/ratelimit"
	"twscraper/pkg/store"
	"twscraper/pkg/twitter"
	"twscraper/pkg/ui"
)

// mockTwitterServer serves verify_credentials and a timeline paged by max_id.
// The first timeline request is throttled once.
type mockTwitterServer struct {
	server *httptest.Server

	mu        sync.Mutex
	pages     map[string]string
	throttled bool
	maxIDs    []string
}

func newMockTwitterServer(t *testing.T, pages map[string]string) *mockTwitterServer {
	t.Helper()
	m := &mockTwitterServer{pages: pages}

	mux := http.NewServeMux()
	mux.HandleFunc("/account/verify_credentials.json", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"code":32,"message":"Could not authenticate you."}]}`)
			return
		}
		fmt.Fprint(w, `{"id":7,"id_str":"7","screen_name":"archiver"}`)
	})
	mux.HandleFunc("/statuses/user_timeline.json", m.handleTimeline)

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockTwitterServer) handleTimeline(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	maxID := r.URL.Query().Get("max_id")
	m.maxIDs = append(m.maxIDs, maxID)

	if !m.throttled {
		m.throttled = true
		w.Header().Set(ratelimit.HeaderRemaining, "0")
		w.Header().Set(ratelimit.HeaderReset, strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`)
		return
	}

	body, ok := m.pages[maxID]
	if !ok {
		body = "[]"
	}
	fmt.Fprint(w, body)
}

func (m *mockTwitterServer) requestedMaxIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.maxIDs...)
}

func statusJSON(id int64, user string, repost bool) string {
	s := fmt.Sprintf(`{"id":%d,"id_str":"%d","created_at":"Wed Oct 10 20:19:24 +0000 2018","text":"tweet %d","user":{"screen_name":%q}`, id, id, id, user)
	if repost {
		s += `,"retweeted_status":{"id":1,"text":"original"}`
	}
	return s + "}"
}

// counterValue finds a counter sample by name and label values
func counterValue(t *testing.T, r *metrics.Recorder, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

func TestEndToEndArchive(t *testing.T) {
	api := newMockTwitterServer(t, map[string]string{
		"": "[" + strings.Join([]string{
			statusJSON(500, "alice", false),
			statusJSON(400, "alice", true),
			statusJSON(300, "alice", false),
		}, ",") + "]",
		"299": "[" + statusJSON(200, "alice", false) + "," + statusJSON(100, "alice", false) + "]",
	})

	log := logger.NewTestLogger()
	recorder := metrics.NewRecorder()

	var waits []time.Duration
	limiter := ratelimit.NewWindow(
		ratelimit.WithSleep(func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}),
		ratelimit.WithOnWait(func(endpoint string, d time.Duration) {
			recorder.RateLimitWait(endpoint, d)
		}),
	)

	cfg := config.DefaultConfig().Twitter
	cfg.BaseURL = api.server.URL
	client := twitter.NewClient(cfg, log, twitter.WithLimiter(limiter), twitter.WithObserver(recorder))

	out := &bytes.Buffer{}
	driver := NewDriver(StoreOpener(log), NewTwitterSource(client), ui.NewConsole(out),
		WithRecorder(recorder), WithLogger(log))

	path := filepath.Join(t.TempDir(), "tweets.db")
	res, err := driver.Run(context.Background(), Options{
		Account:  "alice",
		Location: path,
		Credentials: auth.Credentials{
			APIKey:            "key",
			APISecret:         "secret",
			AccessToken:       "token",
			AccessTokenSecret: "token-secret",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 4, res.Written)
	assert.Equal(t, "....\n\n* done: 4 tweet(s)\n", out.String()[strings.Index(out.String(), "...."):])

	// the throttled first page is re-sent, then paging continues below the oldest raw id
	assert.Equal(t, []string{"", "", "299", "99"}, api.requestedMaxIDs())
	require.Len(t, waits, 1)

	s, err := store.Open(context.Background(), path, logger.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	minID, ok, err := s.MinKnownID(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(100), minID)

	assert.Equal(t, 1.0, counterValue(t, recorder, "twscraper_api_requests_total",
		map[string]string{"endpoint": twitter.UserTimelineEndpoint, "status": "429"}))
	assert.Equal(t, 3.0, counterValue(t, recorder, "twscraper_api_requests_total",
		map[string]string{"endpoint": twitter.UserTimelineEndpoint, "status": "200"}))
	assert.Equal(t, 1.0, counterValue(t, recorder, "twscraper_rate_limit_waits_total",
		map[string]string{"endpoint": twitter.UserTimelineEndpoint}))
	assert.Equal(t, 4.0, counterValue(t, recorder, "twscraper_posts_written_total",
		map[string]string{"result": "inserted"}))
}

func TestEndToEndMissingCredentials(t *testing.T) {
	api := newMockTwitterServer(t, nil)

	cfg := config.DefaultConfig().Twitter
	cfg.BaseURL = api.server.URL
	client := twitter.NewClient(cfg, logger.NewNopLogger())

	out := &bytes.Buffer{}
	driver := NewDriver(StoreOpener(logger.NewNopLogger()), NewTwitterSource(client), ui.NewConsole(out),
		WithLogger(logger.NewNopLogger()))

	res, err := driver.Run(context.Background(), Options{
		Account:  "alice",
		Location: filepath.Join(t.TempDir(), "tweets.db"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
	assert.Equal(t, StateAborted, res.State)
	assert.Empty(t, api.requestedMaxIDs())
	assert.True(t, strings.HasSuffix(out.String(), "* done: 0 tweet(s)\n"))
}
