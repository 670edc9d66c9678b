package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"plog/internal/domain"
)

// LoginResult es la respuesta de POST /login.
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	User        domain.User `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register crea una cuenta. No autentica; el llamador debe hacer Login después.
func (c *Client) Register(ctx context.Context, username, password string) (domain.User, error) {
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return domain.User{}, validationError("username must be between 3 and 50 characters")
	}
	if utf8.RuneCountInString(password) < 6 {
		return domain.User{}, validationError("password must be at least 6 characters")
	}

	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/register", credentials{username, password}, &user, false); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login devuelve el token emitido por el backend. Guardarlo en la sesión
// es responsabilidad del llamador.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return LoginResult{}, validationError("username and password are required")
	}

	var res LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/login", credentials{username, password}, &res, false); err != nil {
		return LoginResult{}, err
	}
	if res.AccessToken == "" {
		return LoginResult{}, networkError(errors.New("login response without access_token"))
	}
	return res, nil
}

// Logout pide al backend revocar el token y limpia la sesión en cualquier caso.
// Un 401 cuenta como éxito: el token ya no era válido.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/logout", nil, nil, false)
	if c.source != nil {
		c.source.Clear()
	}
	if errors.Is(err, ErrAuth) {
		return nil
	}
	return err
}
