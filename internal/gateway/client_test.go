package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu     sync.Mutex
	token  string
	clears int
}

func (f *fakeSource) Token() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeSource) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.clears++
}

func (f *fakeSource) ClearToken(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == "" || f.token != token {
		return false
	}
	f.token = ""
	f.clears++
	return true
}

func (f *fakeSource) set(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

type recordedRequest struct {
	method        string
	path          string
	query         string
	authorization string
	requestID     string
	body          map[string]any
}

type stubAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newStubAPI(t *testing.T, status int, body string) (*stubAPI, *httptest.Server) {
	t.Helper()
	api := &stubAPI{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method:        r.Method,
			path:          r.URL.Path,
			query:         r.URL.RawQuery,
			authorization: r.Header.Get("Authorization"),
			requestID:     r.Header.Get("X-Request-ID"),
		}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		api.mu.Lock()
		api.requests = append(api.requests, rec)
		status, body := api.status, api.body
		api.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *stubAPI) last(t *testing.T) recordedRequest {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		t.Fatalf("expected a request")
	}
	return a.requests[len(a.requests)-1]
}

func (a *stubAPI) respond(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status, a.body = status, body
}

func (a *stubAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func TestClient_AttachesCurrentToken(t *testing.T) {
	api, srv := newStubAPI(t, http.StatusOK, `[]`)
	source := &fakeSource{}
	client := New(srv.URL+"/api/v1", source)

	if _, err := client.GetPosts(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("get posts: %v", err)
	}
	if got := api.last(t).authorization; got != "" {
		t.Fatalf("expected no Authorization header, got %q", got)
	}

	source.mu.Lock()
	source.token = "tok-1"
	source.mu.Unlock()
	if _, err := client.GetPosts(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("get posts: %v", err)
	}
	if got := api.last(t).authorization; got != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", got)
	}

	source.Clear()
	if _, err := client.GetPosts(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("get posts: %v", err)
	}
	if got := api.last(t).authorization; got != "" {
		t.Fatalf("expected no Authorization header after clear, got %q", got)
	}
}

func TestClient_StampsRequestID(t *testing.T) {
	api, srv := newStubAPI(t, http.StatusOK, `[]`)
	client := New(srv.URL, &fakeSource{})

	if _, err := client.GetPosts(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("get posts: %v", err)
	}
	first := api.last(t).requestID
	if _, err := client.GetPosts(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("get posts: %v", err)
	}
	second := api.last(t).requestID
	if first == "" || second == "" || first == second {
		t.Fatalf("expected distinct request ids, got %q and %q", first, second)
	}
}

func TestClient_GetPostsDefaultsAndValidation(t *testing.T) {
	api, srv := newStubAPI(t, http.StatusOK, `null`)
	client := New(srv.URL, &fakeSource{})

	posts, err := client.GetPosts(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("get posts: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", posts)
	}
	if got := api.last(t); got.path != "/posts" || got.query != "limit=10&offset=0" {
		t.Fatalf("unexpected request: %+v", got)
	}

	for _, opts := range []ListOptions{{Limit: -1}, {Limit: 101}, {Limit: 5, Offset: -1}} {
		if _, err := client.GetPosts(context.Background(), opts); !errors.Is(err, ErrValidation) {
			t.Fatalf("%+v: expected ErrValidation, got %v", opts, err)
		}
	}
	if api.count() != 1 {
		t.Fatalf("expected validation failures to skip the network, got %d requests", api.count())
	}
}

func TestClient_LocalValidationSkipsNetwork(t *testing.T) {
	api, srv := newStubAPI(t, http.StatusOK, `{}`)
	client := New(srv.URL, &fakeSource{token: "tok"})
	ctx := context.Background()

	checks := []error{
		func() error { _, err := client.Register(ctx, "al", "secret1"); return err }(),
		func() error { _, err := client.Register(ctx, "alice", "123"); return err }(),
		func() error { _, err := client.Login(ctx, "", "secret1"); return err }(),
		func() error { _, err := client.GetPost(ctx, 0); return err }(),
		func() error { _, err := client.CreatePost(ctx, "Hi", "body"); return err }(),
		func() error { _, err := client.CreatePost(ctx, "Hello", "  "); return err }(),
		func() error { _, err := client.UpdatePost(ctx, -1, "Hello", "body"); return err }(),
	}
	for i, err := range checks {
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("check %d: expected ErrValidation, got %v", i, err)
		}
	}
	if api.count() != 0 {
		t.Fatalf("expected no requests, got %d", api.count())
	}
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusBadRequest, `{"error":"invalid request"}`, ErrValidation, "invalid request"},
		{http.StatusNotFound, `{"error":"post not found"}`, ErrNotFound, "post not found"},
		{http.StatusForbidden, `{"error":"nope"}`, ErrForbidden, "nope"},
		{http.StatusConflict, `{"error":"username already exists"}`, ErrConflict, "username already exists"},
		{http.StatusInternalServerError, `oops`, ErrNetwork, "oops"},
	}
	for _, tc := range cases {
		_, srv := newStubAPI(t, tc.status, tc.body)
		client := New(srv.URL, &fakeSource{})

		_, err := client.GetPost(context.Background(), 1)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != tc.status || apiErr.Message != tc.msg {
			t.Fatalf("status %d: unexpected error %+v", tc.status, apiErr)
		}
	}
}

func TestClient_UndecodableBodyIsNetwork(t *testing.T) {
	_, srv := newStubAPI(t, http.StatusOK, `{"id": "not-a-number"`)
	client := New(srv.URL, &fakeSource{})

	if _, err := client.GetPost(context.Background(), 1); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_TransportFailureIsNetwork(t *testing.T) {
	_, srv := newStubAPI(t, http.StatusOK, `[]`)
	addr := srv.URL
	srv.Close()
	client := New(addr, &fakeSource{}, WithTimeout(time.Second))

	if _, err := client.GetPosts(context.Background(), ListOptions{}); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_UnauthorizedClearsOnlyForTokenOperations(t *testing.T) {
	_, srv := newStubAPI(t, http.StatusUnauthorized, `{"error":"invalid token"}`)
	source := &fakeSource{token: "stale"}
	client := New(srv.URL, source)

	if _, err := client.Login(context.Background(), "alice", "wrong1"); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if source.clears != 0 {
		t.Fatalf("login 401 must not clear the session")
	}

	if _, err := client.GetMyPosts(context.Background()); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if source.clears != 1 {
		t.Fatalf("expected one clear, got %d", source.clears)
	}
	if _, ok := source.Token(); ok {
		t.Fatalf("expected session cleared")
	}

	source.token = "stale"
	if _, err := client.CreatePost(context.Background(), "Hello", "World"); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	source.token = "stale"
	if _, err := client.UpdatePost(context.Background(), 1, "Hello", "World"); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if source.clears != 3 {
		t.Fatalf("expected three clears, got %d", source.clears)
	}

	if _, err := client.GetMyPosts(context.Background()); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth without credential, got %v", err)
	}
	if source.clears != 3 {
		t.Fatalf("a request sent without credential must not clear, got %d clears", source.clears)
	}
}

func TestClient_LateUnauthorizedKeepsNewerSession(t *testing.T) {
	source := &fakeSource{token: "old"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Un login nuevo termina mientras la request con el token viejo sigue en vuelo.
		source.set("fresh")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	t.Cleanup(srv.Close)
	client := New(srv.URL, source)

	if _, err := client.GetMyPosts(context.Background()); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if token, ok := source.Token(); !ok || token != "fresh" {
		t.Fatalf("expected newer session to survive, got %q", token)
	}
	if source.clears != 0 {
		t.Fatalf("expected no clears, got %d", source.clears)
	}
}

func TestClient_RedirectDoesNotLeakCredential(t *testing.T) {
	var (
		mu         sync.Mutex
		leakedAuth string
		hits       int
	)
	foreign := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		leakedAuth = r.Header.Get("Authorization")
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(foreign.Close)

	var apiAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		apiAuth = r.Header.Get("Authorization")
		mu.Unlock()
		http.Redirect(w, r, foreign.URL+"/steal", http.StatusFound)
	}))
	t.Cleanup(api.Close)

	client := New(api.URL+"/api/v1", &fakeSource{token: "secret-token"})
	if _, err := client.GetMyPosts(context.Background()); err != nil {
		t.Fatalf("get my posts: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if apiAuth != "Bearer secret-token" {
		t.Fatalf("expected credential on the api origin, got %q", apiAuth)
	}
	if hits != 1 {
		t.Fatalf("expected redirect to reach the foreign server, got %d hits", hits)
	}
	if leakedAuth != "" {
		t.Fatalf("credential leaked to foreign origin: %q", leakedAuth)
	}
}

func TestBearerTransport_SameOrigin(t *testing.T) {
	tr := newBearerTransport(http.DefaultTransport, &fakeSource{}, "https://plog.example.com/api/v1")
	cases := map[string]bool{
		"https://plog.example.com/api/v1/posts": true,
		"https://PLOG.example.com/other":        true,
		"http://plog.example.com/api/v1/posts":  false,
		"https://plog.example.com:8443/api/v1":  false,
		"https://evil.example.com/api/v1/posts": false,
	}
	for raw, want := range cases {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got := tr.sameOrigin(u); got != want {
			t.Fatalf("%s: expected %v, got %v", raw, want, got)
		}
	}
}

func TestClient_LogoutClearsRegardless(t *testing.T) {
	api, srv := newStubAPI(t, http.StatusNoContent, ``)
	source := &fakeSource{token: "tok"}
	client := New(srv.URL, source)

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := api.last(t); got.method != http.MethodPost || got.path != "/logout" || got.authorization != "Bearer tok" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if _, ok := source.Token(); ok {
		t.Fatalf("expected session cleared")
	}

	api.respond(http.StatusUnauthorized, `{"error":"token revoked"}`)
	source.token = "revoked"
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout with rejected token: %v", err)
	}

	addr := srv.URL
	srv.Close()
	offline := New(addr, source)
	source.token = "tok"
	if err := offline.Logout(context.Background()); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if _, ok := source.Token(); ok {
		t.Fatalf("expected session cleared after failed logout")
	}
}

func TestClient_RegisterAndLoginBodies(t *testing.T) {
	api, srv := newStubAPI(t, http.StatusOK, `{"access_token":"tok-9","user":{"id":4,"username":"alice"}}`)
	client := New(srv.URL, &fakeSource{})

	res, err := client.Login(context.Background(), "alice", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken != "tok-9" || res.User.ID != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := api.last(t).body; got["username"] != "alice" || got["password"] != "secret1" {
		t.Fatalf("unexpected body: %v", got)
	}

	api.respond(http.StatusOK, `{"user":{"id":4}}`)
	if _, err := client.Login(context.Background(), "alice", "secret1"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork for missing token, got %v", err)
	}
}

func TestClient_HonorsContextCancellation(t *testing.T) {
	_, srv := newStubAPI(t, http.StatusOK, `[]`)
	client := New(srv.URL, &fakeSource{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetPosts(ctx, ListOptions{})
	if !errors.Is(err, ErrNetwork) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled network error, got %v", err)
	}
}

func TestNew_KeepsCallerTransport(t *testing.T) {
	called := false
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		if r.Header.Get("Authorization") != "Bearer abc" {
			t.Errorf("expected bearer header, got %q", r.Header.Get("Authorization"))
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       http.NoBody,
			Header:     http.Header{},
			Request:    r,
		}, nil
	})}
	client := New("http://plog.test/api/v1/", &fakeSource{token: "abc"}, WithHTTPClient(hc))

	if client.BaseURL() != "http://plog.test/api/v1" {
		t.Fatalf("unexpected base url %q", client.BaseURL())
	}
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !called {
		t.Fatalf("expected caller transport to be used")
	}
	if _, ok := hc.Transport.(*bearerTransport); ok {
		t.Fatalf("caller http.Client must not be mutated")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
