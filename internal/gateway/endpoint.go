package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"plog/internal/config"
)

const (
	localBaseURL = "http://localhost:8080/api/v1"
	apiPrefix    = "/api/v1"
)

var ErrInvalidOrigin = errors.New("invalid origin")

// ResolveBaseURL devuelve la dirección base del API según el modo.
// En modo deployed usa solo scheme y host del origen.
func ResolveBaseURL(mode config.Mode, origin string) (string, error) {
	switch mode {
	case config.ModeLocal:
		return localBaseURL, nil
	case config.ModeDeployed:
		u, err := url.Parse(strings.TrimSpace(origin))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
		}
		return u.Scheme + "://" + u.Host + apiPrefix, nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrInvalidMode, mode)
	}
}
