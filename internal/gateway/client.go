package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client es el punto único de acceso al backend de Plog.
type Client struct {
	baseURL string
	source  TokenSource
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

// WithHTTPClient reemplaza el http.Client base. Su transporte queda envuelto
// por el transporte bearer.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.http = &cp
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New construye el gateway sobre una dirección base ya resuelta.
func New(baseURL string, source TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		source:  source,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = newBearerTransport(base, source, c.baseURL)
	return c
}

// BaseURL devuelve la dirección base fijada al construir el cliente.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error string `json:"error"`
}

// doJSON ejecuta una request JSON y decodifica la respuesta en out.
// Si requiresAuth y el backend responde 401 a la credencial enviada, la sesión
// se limpia antes de devolver el error, salvo que ya tenga otro token.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, requiresAuth bool) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return networkError(fmt.Errorf("marshal request: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	}

	ctx, sent := withSentCredential(ctx)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return networkError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return networkError(fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(fmt.Errorf("read response: %w", err))
	}
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
		if resp.StatusCode == http.StatusUnauthorized && requiresAuth && c.source != nil && sent.token != "" {
			if c.source.ClearToken(sent.token) {
				c.logger.Info("session rejected by api, credential cleared", zap.String("path", path))
			} else {
				c.logger.Debug("stale credential rejected, session already replaced", zap.String("path", path))
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{
			Kind:       ErrNetwork,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unmarshal response: %w", err),
		}
	}
	return nil
}

func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(body))
}
