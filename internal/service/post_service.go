package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"plog/internal/domain"
	"plog/internal/repository"
)

// PostService aplica reglas de negocio sobre posts: validación y propiedad.
type PostService struct {
	logger *zap.Logger
	posts  repository.PostRepository
}

func NewPostService(logger *zap.Logger, posts repository.PostRepository) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{logger: logger, posts: posts}
}

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrNotPostOwner     = errors.New("post belongs to another user")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidContent   = errors.New("invalid content")
	ErrInvalidPaginator = errors.New("invalid pagination")
)

const (
	minTitleLen = 3
	maxTitleLen = 255
	maxPageSize = 100
)

func (s *PostService) List(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if s.posts == nil {
		return nil, errors.New("post service not configured")
	}
	if limit < 1 || limit > maxPageSize || offset < 0 {
		return nil, ErrInvalidPaginator
	}
	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (domain.Post, error) {
	if s.posts == nil {
		return domain.Post{}, errors.New("post service not configured")
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, err
	}
	return post, nil
}

func (s *PostService) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	if s.posts == nil {
		return nil, errors.New("post service not configured")
	}
	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

// Create publica un post a nombre del usuario autenticado.
func (s *PostService) Create(ctx context.Context, userID int64, username, title, content string) (domain.Post, error) {
	if s.posts == nil {
		return domain.Post{}, errors.New("post service not configured")
	}
	title, content, err := validatePost(title, content)
	if err != nil {
		return domain.Post{}, err
	}

	now := time.Now().UTC()
	created, err := s.posts.Create(ctx, domain.Post{
		UserID:         userID,
		AuthorUsername: username,
		Title:          title,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return domain.Post{}, err
	}
	if created.AuthorUsername == "" {
		created.AuthorUsername = username
	}
	s.logger.Info("post created", zap.Int64("post_id", created.ID), zap.Int64("user_id", userID))
	return created, nil
}

// Update reemplaza título y contenido. Solo el autor puede editar su post.
func (s *PostService) Update(ctx context.Context, userID, id int64, title, content string) (domain.Post, error) {
	if s.posts == nil {
		return domain.Post{}, errors.New("post service not configured")
	}
	title, content, err := validatePost(title, content)
	if err != nil {
		return domain.Post{}, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	if existing.UserID != userID {
		return domain.Post{}, ErrNotPostOwner
	}

	existing.Title = title
	existing.Content = content
	existing.UpdatedAt = time.Now().UTC()
	updated, err := s.posts.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Post{}, ErrPostNotFound
		}
		return domain.Post{}, err
	}
	s.logger.Info("post updated", zap.Int64("post_id", updated.ID), zap.Int64("user_id", userID))
	return updated, nil
}

func validatePost(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return "", "", ErrInvalidTitle
	}
	if strings.TrimSpace(content) == "" {
		return "", "", ErrInvalidContent
	}
	return title, content, nil
}
