package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plog/internal/domain"
)

// PostRepository define el contrato de persistencia para posts.
// Los listados se ordenan del más nuevo al más viejo.
type PostRepository interface {
	Create(ctx context.Context, post domain.Post) (domain.Post, error)
	GetByID(ctx context.Context, id int64) (domain.Post, error)
	List(ctx context.Context, limit, offset int) ([]domain.Post, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Post, error)
	Update(ctx context.Context, post domain.Post) (domain.Post, error)
}

type PgPostRepository struct {
	pool *pgxpool.Pool
}

func NewPgPostRepository(pool *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{pool: pool}
}

const postColumns = `
	p.id, p.user_id, u.username, p.title, p.content, p.created_at, p.updated_at
`

func (r *PgPostRepository) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	const query = `
		INSERT INTO posts (user_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		post.UserID,
		post.Title,
		post.Content,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return domain.Post{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PgPostRepository) GetByID(ctx context.Context, id int64) (domain.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	var p domain.Post
	err := scanPost(r.pool.QueryRow(ctx, query, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, err
	}
	return p, err
}

func (r *PgPostRepository) List(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PgPostRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (r *PgPostRepository) Update(ctx context.Context, post domain.Post) (domain.Post, error) {
	const query = `
		UPDATE posts
		SET title = $2, content = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Content,
		post.UpdatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Post{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, post.ID)
}

func scanPost(row pgx.Row, p *domain.Post) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.AuthorUsername,
		&p.Title,
		&p.Content,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func collectPosts(rows pgx.Rows) ([]domain.Post, error) {
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		var p domain.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
