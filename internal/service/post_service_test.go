package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"plog/internal/repository"
)

func TestPostService_CreateAndGet(t *testing.T) {
	svc := NewPostService(nil, repository.NewMemoryPostRepository())
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, "alice", "  Hello  ", "World")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.ID == 0 || post.Title != "Hello" || post.AuthorUsername != "alice" {
		t.Fatalf("unexpected post: %+v", post)
	}

	got, err := svc.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "World" || got.UserID != 1 {
		t.Fatalf("unexpected post: %+v", got)
	}

	if _, err := svc.Get(ctx, 99); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_CreateValidation(t *testing.T) {
	svc := NewPostService(nil, repository.NewMemoryPostRepository())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, "alice", "Hi", "body"); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle for short title, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, "alice", strings.Repeat("t", 256), "body"); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle for long title, got %v", err)
	}
	if _, err := svc.Create(ctx, 1, "alice", "Title", "   "); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected ErrInvalidContent, got %v", err)
	}
}

func TestPostService_ListPagination(t *testing.T) {
	svc := NewPostService(nil, repository.NewMemoryPostRepository())
	ctx := context.Background()

	empty, err := svc.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}

	for _, title := range []string{"First", "Second", "Third"} {
		if _, err := svc.Create(ctx, 1, "alice", title, "body"); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := svc.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].Title != "Third" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	page, err = svc.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].Title != "First" {
		t.Fatalf("unexpected second page: %+v", page)
	}

	for _, tc := range []struct{ limit, offset int }{{0, 0}, {101, 0}, {10, -1}} {
		if _, err := svc.List(ctx, tc.limit, tc.offset); !errors.Is(err, ErrInvalidPaginator) {
			t.Fatalf("expected ErrInvalidPaginator for %+v, got %v", tc, err)
		}
	}
}

func TestPostService_ListByUser(t *testing.T) {
	svc := NewPostService(nil, repository.NewMemoryPostRepository())
	ctx := context.Background()

	if _, err := svc.Create(ctx, 1, "alice", "Mine", "body"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, 2, "bob", "Yours", "body"); err != nil {
		t.Fatalf("create: %v", err)
	}

	posts, err := svc.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Mine" {
		t.Fatalf("unexpected posts: %+v", posts)
	}

	none, err := svc.ListByUser(ctx, 3)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", none)
	}
}

func TestPostService_UpdateOwnership(t *testing.T) {
	svc := NewPostService(nil, repository.NewMemoryPostRepository())
	ctx := context.Background()

	post, err := svc.Create(ctx, 1, "alice", "Original", "body")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, 1, post.ID, "Edited", "new body")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Edited" || updated.Content != "new body" {
		t.Fatalf("unexpected post: %+v", updated)
	}
	if updated.UpdatedAt.Before(post.UpdatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}

	if _, err := svc.Update(ctx, 2, post.ID, "Hijack", "body"); !errors.Is(err, ErrNotPostOwner) {
		t.Fatalf("expected ErrNotPostOwner, got %v", err)
	}
	if _, err := svc.Update(ctx, 1, 999, "Missing", "body"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if _, err := svc.Update(ctx, 1, post.ID, "", "body"); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}
