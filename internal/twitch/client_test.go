package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *mockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// fakeTwitch serves the token endpoint at /oauth2/token and delegates
// everything under /helix/ to api
type fakeTwitch struct {
	server        *httptest.Server
	tokenRequests atomic.Int32
	apiRequests   atomic.Int32
	tokenQuery    chan map[string]string
	expiresIn     int64
	accessToken   string
	tokenGate     chan struct{}
}

func newFakeTwitch(t *testing.T, api http.HandlerFunc, configure ...func(*fakeTwitch)) *fakeTwitch {
	t.Helper()

	f := &fakeTwitch{
		tokenQuery:  make(chan map[string]string, 16),
		expiresIn:   100,
		accessToken: "A",
	}
	for _, fn := range configure {
		fn(f)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenRequests.Add(1)
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if f.tokenGate != nil {
			<-f.tokenGate
		}

		q := r.URL.Query()
		f.tokenQuery <- map[string]string{
			"client_id":     q.Get("client_id"),
			"client_secret": q.Get("client_secret"),
			"grant_type":    q.Get("grant_type"),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  f.accessToken,
			"refresh_token": "R",
			"expires_in":    f.expiresIn,
			"token_type":    "bearer",
		})
	})
	mux.HandleFunc("/helix/", func(w http.ResponseWriter, r *http.Request) {
		f.apiRequests.Add(1)
		api(w, r)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTwitch) config(clock Clock) Config {
	return Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		BaseURL:      f.server.URL + "/helix",
		TokenURL:     f.server.URL + "/oauth2/token",
		Clock:        clock,
	}
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func TestNew_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantField string
	}{
		{
			name:   "empty config",
			config: Config{},
		},
		{
			name:      "missing client id",
			config:    Config{ClientSecret: "secret"},
			wantField: "ClientID",
		},
		{
			name:      "missing client secret",
			config:    Config{ClientID: "id"},
			wantField: "ClientSecret",
		},
		{
			name:      "overrides without credentials",
			config:    Config{AutoAuthorize: Bool(false)},
			wantField: "ClientID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, ErrConfiguration)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(Config{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)

	assert.True(t, client.settings.autoAuthorize)
	assert.Equal(t, DefaultPrematureExpiration, client.settings.prematureExpiration)
	assert.Equal(t, DefaultBaseURL, client.settings.baseURL)
	assert.Equal(t, DefaultTokenURL, client.settings.tokenURL)
	assert.Equal(t, DefaultHTTPTimeout, client.httpClient.Timeout)

	assert.Nil(t, client.Token())
	assert.False(t, client.IsAuthorized())
}

func TestNew_CallerOverridesWin(t *testing.T) {
	client, err := New(Config{
		ClientID:            "id",
		ClientSecret:        "secret",
		AutoAuthorize:       Bool(false),
		PrematureExpiration: Duration(0),
		BaseURL:             "http://localhost/helix",
	})
	require.NoError(t, err)

	assert.False(t, client.settings.autoAuthorize)
	assert.Equal(t, time.Duration(0), client.settings.prematureExpiration)
	assert.Equal(t, "http://localhost/helix", client.settings.baseURL)
	assert.Equal(t, DefaultTokenURL, client.settings.tokenURL)
}

func TestClient_Authorize(t *testing.T) {
	var gotAuth atomic.Value
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		assert.Equal(t, "test-client-id", r.Header.Get("Client-Id"))
		writeJSON(w, `{"data":[]}`)
	})
	clock := newMockClock()

	client, err := New(fake.config(clock))
	require.NoError(t, err)

	expiry, err := client.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, clock.Now().Add(100*time.Second), expiry)

	query := <-fake.tokenQuery
	assert.Equal(t, "test-client-id", query["client_id"])
	assert.Equal(t, "test-client-secret", query["client_secret"])
	assert.Equal(t, "client_credentials", query["grant_type"])

	token := client.Token()
	require.NotNil(t, token)
	assert.Equal(t, "A", token.AccessToken)
	assert.Equal(t, "R", token.RefreshToken)
	assert.Equal(t, expiry, token.Expiry)
	assert.True(t, client.IsAuthorized())

	_, err = client.GetAPIData(context.Background(), "users?login=foo")
	require.NoError(t, err)
	assert.Equal(t, "Bearer A", gotAuth.Load())
	assert.Equal(t, int32(1), fake.tokenRequests.Load())
}

func TestClient_Authorize_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	tokenURL := server.URL + "/oauth2/token"
	server.Close()

	client, err := New(Config{
		ClientID:     "id",
		ClientSecret: "super-secret",
		TokenURL:     tokenURL,
	})
	require.NoError(t, err)

	_, err = client.Authorize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotContains(t, err.Error(), "super-secret")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.MethodPost, netErr.Method)

	assert.Nil(t, client.Token())
	assert.False(t, client.IsAuthorized())
}

func TestClient_Authorize_RejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, `{"status":400,"message":"invalid client secret"}`)
	}))
	defer server.Close()

	client, err := New(Config{ClientID: "id", ClientSecret: "secret", TokenURL: server.URL})
	require.NoError(t, err)

	var events []Event
	client.On(EventLogError, func(ev Event) { events = append(events, ev) })

	_, err = client.Authorize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPIResponse)

	var apiErr *APIResponseError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "invalid client secret")

	assert.Len(t, events, 1)
	assert.Nil(t, client.Token())
}

func TestClient_Authorize_CallerContextCancelled(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":[]}`)
	}, func(f *fakeTwitch) { f.tokenGate = gate })

	client, err := New(fake.config(newMockClock()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Authorize(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_IsAuthorized_Boundaries(t *testing.T) {
	clock := newMockClock()
	margin := DefaultPrematureExpiration

	tests := []struct {
		name   string
		token  *oauth2.Token
		expect bool
	}{
		{
			name:   "no token",
			token:  nil,
			expect: false,
		},
		{
			name:   "empty access token",
			token:  &oauth2.Token{Expiry: clock.Now().Add(time.Hour)},
			expect: false,
		},
		{
			name:   "expires exactly at now plus margin",
			token:  &oauth2.Token{AccessToken: "A", Expiry: clock.Now().Add(margin)},
			expect: false,
		},
		{
			name:   "expires one millisecond before now plus margin",
			token:  &oauth2.Token{AccessToken: "A", Expiry: clock.Now().Add(margin - time.Millisecond)},
			expect: false,
		},
		{
			name:   "expires one millisecond after now plus margin",
			token:  &oauth2.Token{AccessToken: "A", Expiry: clock.Now().Add(margin + time.Millisecond)},
			expect: true,
		},
		{
			name:   "already expired",
			token:  &oauth2.Token{AccessToken: "A", Expiry: clock.Now().Add(-time.Hour)},
			expect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(Config{ClientID: "id", ClientSecret: "secret", Clock: clock})
			require.NoError(t, err)

			client.setToken(tt.token)
			assert.Equal(t, tt.expect, client.IsAuthorized())
		})
	}
}

func TestClient_AutoAuthorize_RenewsBeforeExpiry(t *testing.T) {
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":[]}`)
	})
	clock := newMockClock()

	client, err := New(fake.config(clock))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = client.GetAPIData(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenRequests.Load())

	// Still fresh: 100s lifetime, 10s margin
	clock.Advance(80 * time.Second)
	_, err = client.GetAPIData(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.tokenRequests.Load())

	// Inside the margin
	clock.Advance(15 * time.Second)
	_, err = client.GetAPIData(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.tokenRequests.Load())
	assert.Equal(t, int32(3), fake.apiRequests.Load())
}

func TestClient_AutoAuthorizeDisabled(t *testing.T) {
	var gotAuth atomic.Value
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, `{"data":[]}`)
	})

	cfg := fake.config(newMockClock())
	cfg.AutoAuthorize = Bool(false)
	client, err := New(cfg)
	require.NoError(t, err)

	_, err = client.GetAPIData(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, int32(0), fake.tokenRequests.Load())
	assert.Equal(t, "", gotAuth.Load())
}

func TestClient_ConcurrentRequestsAuthorizeOnce(t *testing.T) {
	gate := make(chan struct{})
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":[]}`)
	}, func(f *fakeTwitch) {
		f.expiresIn = 3600
		f.tokenGate = gate
	})

	client, err := New(fake.config(newMockClock()))
	require.NoError(t, err)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GetAPIData(context.Background(), "users")
			errs <- err
		}()
	}

	// Let every caller reach the guard before the token is issued
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fake.tokenRequests.Load())
	assert.Equal(t, int32(callers), fake.apiRequests.Load())
}

func TestClient_SendAPIRequest_InvalidBodies(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantInBody string
	}{
		{name: "missing data", status: http.StatusOK, body: `{}`, wantInBody: "{}"},
		{name: "null data", status: http.StatusOK, body: `{"data":null}`, wantInBody: `{"data":null}`},
		{name: "error field", status: http.StatusUnauthorized, body: `{"error":"Unauthorized","status":401,"message":"Invalid OAuth token"}`, wantInBody: `"error":"Unauthorized"`},
		{name: "empty body", status: http.StatusOK, body: ``, wantInBody: "<empty body>"},
		{name: "json null", status: http.StatusOK, body: `null`, wantInBody: "null"},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantInBody: "<html>bad gateway</html>"},
		{name: "pretty printed is compacted", status: http.StatusOK, body: "{\n  \"foo\": 1\n}", wantInBody: `{"foo":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			client, err := New(fake.config(newMockClock()))
			require.NoError(t, err)

			var errorEvents []Event
			client.On(EventLogError, func(ev Event) { errorEvents = append(errorEvents, ev) })

			data, err := client.GetAPIData(context.Background(), "users?login=foo")
			require.Error(t, err)
			assert.Nil(t, data)
			assert.ErrorIs(t, err, ErrAPIResponse)

			var apiErr *APIResponseError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, apiErr.Message, "Got an unexpected response body from Twitch API: ")
			assert.Contains(t, apiErr.Message, tt.wantInBody)

			require.Len(t, errorEvents, 1)
			assert.Equal(t, LevelError, errorEvents[0].Level)
			assert.Equal(t, apiErr.Message, errorEvents[0].Message)
		})
	}
}

func TestClient_SendAPIRequest(t *testing.T) {
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/helix/streams", r.URL.Path)
		w.Header().Set("Ratelimit-Remaining", "799")
		writeJSON(w, `{"data":[{"id":"1"}],"pagination":{"cursor":"abc"}}`)
	})
	client, err := New(fake.config(newMockClock()))
	require.NoError(t, err)

	var infoEvents []Event
	client.On(EventLogInfo, func(ev Event) { infoEvents = append(infoEvents, ev) })

	resp, err := client.SendAPIRequest(context.Background(), "/streams?first=1")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "799", resp.Header.Get("Ratelimit-Remaining"))
	assert.Equal(t, fake.server.URL+"/helix/streams?first=1", resp.URL)
	assert.JSONEq(t, `[{"id":"1"}]`, string(resp.Body.Data))
	assert.JSONEq(t, `{"cursor":"abc"}`, string(resp.Body.Pagination))

	require.Len(t, infoEvents, 1)
	assert.Equal(t, "GET "+fake.server.URL+"/helix/streams?first=1", infoEvents[0].Message)
	assert.True(t, strings.HasPrefix(infoEvents[0].RequestID, "req_"))
	assert.Equal(t, EventLogInfo, infoEvents[0].Type)
}

func TestClient_SendAPIRequest_NetworkError(t *testing.T) {
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":[]}`)
	})
	client, err := New(fake.config(newMockClock()))
	require.NoError(t, err)

	_, err = client.Authorize(context.Background())
	require.NoError(t, err)

	client.settings.baseURL = "http://127.0.0.1:1/helix"
	_, err = client.GetAPIData(context.Background(), "users")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_EventHandlerPanicIsContained(t *testing.T) {
	fake := newFakeTwitch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":[]}`)
	})
	client, err := New(fake.config(newMockClock()))
	require.NoError(t, err)

	called := false
	client.On(EventLogInfo, func(Event) { panic("listener failure") })
	client.On(EventLogInfo, func(Event) { called = true })
	client.On(EventLogInfo, nil)

	_, err = client.GetAPIData(context.Background(), "users")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEventTypeFor(t *testing.T) {
	assert.Equal(t, EventLogInfo, EventTypeFor(LevelInfo))
	assert.Equal(t, EventLogWarn, EventTypeFor(LevelWarn))
	assert.Equal(t, EventLogError, EventTypeFor(LevelError))
}
