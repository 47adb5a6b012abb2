// Package announcement stores the notices admins post for students.
package announcement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("announcement not found")
	ErrInvalidInput = errors.New("title and content are required")
)

// Announcement is one notice.
type Announcement struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence used by Service.
type Store interface {
	List(ctx context.Context) ([]Announcement, error)
	Create(ctx context.Context, a Announcement) (Announcement, error)
	Update(ctx context.Context, a Announcement) (Announcement, error)
	Delete(ctx context.Context, id int64) error
}

// Repository persists announcements in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// List returns every announcement, newest first.
func (r *Repository) List(ctx context.Context) ([]Announcement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, created_at FROM announcements ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []Announcement{}
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// Create inserts a.
func (r *Repository) Create(ctx context.Context, a Announcement) (Announcement, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO announcements (title, content) VALUES ($1, $2)
		RETURNING id, created_at
	`, a.Title, a.Content).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// Update replaces title and content.
func (r *Repository) Update(ctx context.Context, a Announcement) (Announcement, error) {
	err := r.db.QueryRowContext(ctx, `
		UPDATE announcements SET title = $2, content = $3 WHERE id = $1
		RETURNING created_at
	`, a.ID, a.Title, a.Content).Scan(&a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Announcement{}, ErrNotFound
	}
	if err != nil {
		return Announcement{}, err
	}
	return a, nil
}

// Delete removes an announcement.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Service validates announcement writes.
type Service struct {
	store Store
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]Announcement, error) {
	return s.store.List(ctx)
}

func (s *Service) Create(ctx context.Context, title, content string) (Announcement, error) {
	a, err := build(0, title, content)
	if err != nil {
		return Announcement{}, err
	}
	return s.store.Create(ctx, a)
}

func (s *Service) Update(ctx context.Context, id int64, title, content string) (Announcement, error) {
	a, err := build(id, title, content)
	if err != nil {
		return Announcement{}, err
	}
	return s.store.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func build(id int64, title, content string) (Announcement, error) {
	a := Announcement{ID: id, Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	if a.Title == "" || a.Content == "" {
		return Announcement{}, ErrInvalidInput
	}
	if len(a.Title) > 200 {
		return Announcement{}, fmt.Errorf("%w: title is longer than 200 bytes", ErrInvalidInput)
	}
	return a, nil
}
