package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// TokenSource entrega la credencial vigente y permite descartarla.
// ClearToken solo descarta si la credencial vigente sigue siendo token.
type TokenSource interface {
	Token() (string, bool)
	Clear()
	ClearToken(token string) bool
}

type sentCredentialKey struct{}

// sentCredential registra el token que efectivamente viajó en una request.
type sentCredential struct {
	token string
}

func withSentCredential(ctx context.Context) (context.Context, *sentCredential) {
	sc := &sentCredential{}
	return context.WithValue(ctx, sentCredentialKey{}, sc), sc
}

// bearerTransport agrega Authorization y X-Request-ID a cada request saliente.
// El token se lee en cada round trip y solo se envía al origen del API.
type bearerTransport struct {
	base   http.RoundTripper
	source TokenSource
	scheme string
	host   string
}

func newBearerTransport(base http.RoundTripper, source TokenSource, baseURL string) *bearerTransport {
	t := &bearerTransport{base: base, source: source}
	if u, err := url.Parse(baseURL); err == nil {
		t.scheme = strings.ToLower(u.Scheme)
		t.host = strings.ToLower(u.Host)
	}
	return t
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Del("Authorization")
	if t.sameOrigin(out.URL) && t.source != nil {
		if token, ok := t.source.Token(); ok && token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
			if sc, ok := req.Context().Value(sentCredentialKey{}).(*sentCredential); ok {
				sc.token = token
			}
		}
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	return t.base.RoundTrip(out)
}

func (t *bearerTransport) sameOrigin(u *url.URL) bool {
	if u == nil || t.host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, t.scheme) && strings.EqualFold(u.Host, t.host)
}
