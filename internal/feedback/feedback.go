// Package feedback collects student ratings and lets admins triage them.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statuses.
const (
	StatusPending  = "Pending"
	StatusReviewed = "Reviewed"
)

var (
	ErrNotFound      = errors.New("feedback not found")
	ErrInvalidInput  = errors.New("invalid feedback")
	ErrInvalidStatus = errors.New("invalid feedback status")
)

// Feedback is one submission. FullName is filled in admin listings only.
type Feedback struct {
	ID        int64     `json:"feedback_id"`
	UserID    int64     `json:"user_id"`
	FullName  string    `json:"full_name,omitempty"`
	Category  string    `json:"category"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence used by Service.
type Store interface {
	Create(ctx context.Context, f Feedback) (Feedback, error)
	ListByUser(ctx context.Context, userID int64) ([]Feedback, error)
	ListByStatus(ctx context.Context, status string) ([]Feedback, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// Service validates and routes feedback.
type Service struct {
	store Store
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Submit stores a new pending feedback of userID.
func (s *Service) Submit(ctx context.Context, userID int64, category string, stars int, comment string) (Feedback, error) {
	f := Feedback{
		UserID:   userID,
		Category: strings.TrimSpace(category),
		Stars:    stars,
		Comment:  strings.TrimSpace(comment),
		Status:   StatusPending,
	}
	if f.Category == "" || f.Comment == "" {
		return Feedback{}, fmt.Errorf("%w: category and comment are required", ErrInvalidInput)
	}
	if f.Stars < 1 || f.Stars > 5 {
		return Feedback{}, fmt.Errorf("%w: stars must be between 1 and 5", ErrInvalidInput)
	}
	return s.store.Create(ctx, f)
}

// Mine returns the feedback of userID, newest first.
func (s *Service) Mine(ctx context.Context, userID int64) ([]Feedback, error) {
	return s.store.ListByUser(ctx, userID)
}

// Pending returns every feedback awaiting review.
func (s *Service) Pending(ctx context.Context) ([]Feedback, error) {
	return s.store.ListByStatus(ctx, StatusPending)
}

// SetStatus moves a feedback to status.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case StatusPending, StatusReviewed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.store.SetStatus(ctx, id, status)
}
