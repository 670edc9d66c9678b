package domain

import "time"

// Post es una entrada del blog. El servidor es la fuente de verdad.
type Post struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	AuthorUsername string    `json:"author_username,omitempty"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
