package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"plog/internal/domain"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ListOptions pagina GET /posts. Limit cero usa el valor por defecto.
type ListOptions struct {
	Limit  int
	Offset int
}

type postInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (c *Client) GetPosts(ctx context.Context, opts ListOptions) ([]domain.Post, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 || limit > maxLimit {
		return nil, validationError("limit must be between 1 and 100")
	}
	if opts.Offset < 0 {
		return nil, validationError("offset must not be negative")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(opts.Offset))

	posts := []domain.Post{}
	if err := c.doJSON(ctx, http.MethodGet, "/posts?"+q.Encode(), nil, &posts, false); err != nil {
		return nil, err
	}
	return nonNil(posts), nil
}

func (c *Client) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	if id <= 0 {
		return domain.Post{}, validationError("post id must be positive")
	}
	var post domain.Post
	if err := c.doJSON(ctx, http.MethodGet, postPath(id), nil, &post, false); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

// GetMyPosts lista los posts del usuario autenticado.
func (c *Client) GetMyPosts(ctx context.Context) ([]domain.Post, error) {
	posts := []domain.Post{}
	if err := c.doJSON(ctx, http.MethodGet, "/my-posts", nil, &posts, true); err != nil {
		return nil, err
	}
	return nonNil(posts), nil
}

func (c *Client) CreatePost(ctx context.Context, title, content string) (domain.Post, error) {
	if err := validatePost(title, content); err != nil {
		return domain.Post{}, err
	}
	var post domain.Post
	if err := c.doJSON(ctx, http.MethodPost, "/posts", postInput{title, content}, &post, true); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int64, title, content string) (domain.Post, error) {
	if id <= 0 {
		return domain.Post{}, validationError("post id must be positive")
	}
	if err := validatePost(title, content); err != nil {
		return domain.Post{}, err
	}
	var post domain.Post
	if err := c.doJSON(ctx, http.MethodPut, postPath(id), postInput{title, content}, &post, true); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func validatePost(title, content string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(title)); n < 3 || n > 255 {
		return validationError("title must be between 3 and 255 characters")
	}
	if strings.TrimSpace(content) == "" {
		return validationError("content is required")
	}
	return nil
}

func postPath(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}

// nonNil cubre el caso de un body "null".
func nonNil(posts []domain.Post) []domain.Post {
	if posts == nil {
		return []domain.Post{}
	}
	return posts
}
