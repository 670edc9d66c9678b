package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"plog/internal/domain"
)

// MemoryUserRepository guarda usuarios en memoria. Se usa sin DATABASE_URL y en tests.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]domain.User
	byUsername map[string]int64
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[int64]domain.User),
		byUsername: make(map[string]int64),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[user.Username]; exists {
		return domain.User{}, ErrDuplicate
	}
	r.nextID++
	user.ID = r.nextID
	r.byID[user.ID] = user
	r.byUsername[user.Username] = user.ID
	return user, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

// MemoryPostRepository guarda posts en memoria.
type MemoryPostRepository struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]domain.Post
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: make(map[int64]domain.Post)}
}

func (r *MemoryPostRepository) Create(_ context.Context, post domain.Post) (domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	r.posts[post.ID] = post
	return post, nil
}

func (r *MemoryPostRepository) GetByID(_ context.Context, id int64) (domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[id]
	if !ok {
		return domain.Post{}, pgx.ErrNoRows
	}
	return post, nil
}

func (r *MemoryPostRepository) List(_ context.Context, limit, offset int) ([]domain.Post, error) {
	all := r.sorted(func(domain.Post) bool { return true })
	if offset >= len(all) {
		return []domain.Post{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *MemoryPostRepository) ListByUser(_ context.Context, userID int64) ([]domain.Post, error) {
	return r.sorted(func(p domain.Post) bool { return p.UserID == userID }), nil
}

func (r *MemoryPostRepository) Update(_ context.Context, post domain.Post) (domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.posts[post.ID]
	if !ok {
		return domain.Post{}, pgx.ErrNoRows
	}
	current.Title = post.Title
	current.Content = post.Content
	current.UpdatedAt = post.UpdatedAt
	r.posts[post.ID] = current
	return current, nil
}

func (r *MemoryPostRepository) sorted(keep func(domain.Post) bool) []domain.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := []domain.Post{}
	for _, p := range r.posts {
		if keep(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}
