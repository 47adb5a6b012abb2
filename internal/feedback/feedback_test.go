package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	items []Feedback
}

func (m *memStore) Create(_ context.Context, f Feedback) (Feedback, error) {
	f.ID = int64(len(m.items) + 1)
	m.items = append(m.items, f)
	return f, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]Feedback, error) {
	var res []Feedback
	for _, f := range m.items {
		if f.UserID == userID {
			res = append(res, f)
		}
	}
	return res, nil
}

func (m *memStore) ListByStatus(_ context.Context, status string) ([]Feedback, error) {
	var res []Feedback
	for _, f := range m.items {
		if f.Status == status {
			res = append(res, f)
		}
	}
	return res, nil
}

func (m *memStore) SetStatus(_ context.Context, id int64, status string) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func TestSubmit_Validation(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
		stars    int
		comment  string
	}{
		{"no category", "", 4, "good"},
		{"no comment", "Food", 4, " "},
		{"zero stars", "Food", 0, "bad"},
		{"six stars", "Food", 6, "great"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, 1, tt.category, tt.stars, tt.comment)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestTriage(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	f, err := svc.Submit(ctx, 1, "Hygiene", 2, "Plates were wet")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, f.Status)
	_, err = svc.Submit(ctx, 2, "Food", 5, "Great paneer")
	require.NoError(t, err)

	mine, err := svc.Mine(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.SetStatus(ctx, f.ID, StatusReviewed))
	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].UserID)

	assert.True(t, errors.Is(svc.SetStatus(ctx, f.ID, "Done"), ErrInvalidStatus))
	assert.True(t, errors.Is(svc.SetStatus(ctx, 42, StatusReviewed), ErrNotFound))
}
