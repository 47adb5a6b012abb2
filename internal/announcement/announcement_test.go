package announcement

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	items []Announcement
	next  int64
}

func (m *memStore) List(context.Context) ([]Announcement, error) {
	res := make([]Announcement, 0, len(m.items))
	for i := len(m.items) - 1; i >= 0; i-- {
		res = append(res, m.items[i])
	}
	return res, nil
}

func (m *memStore) Create(_ context.Context, a Announcement) (Announcement, error) {
	m.next++
	a.ID = m.next
	a.CreatedAt = time.Now()
	m.items = append(m.items, a)
	return a, nil
}

func (m *memStore) Update(_ context.Context, a Announcement) (Announcement, error) {
	for i := range m.items {
		if m.items[i].ID == a.ID {
			a.CreatedAt = m.items[i].CreatedAt
			m.items[i] = a
			return a, nil
		}
	}
	return Announcement{}, ErrNotFound
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func TestService(t *testing.T) {
	svc := NewService(&memStore{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "  ", "body")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.Create(ctx, strings.Repeat("x", 201), "body")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	first, err := svc.Create(ctx, "Holiday", "Mess closed on Friday")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Special dinner", "Biryani tonight")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Special dinner", list[0].Title)

	updated, err := svc.Update(ctx, first.ID, "Holiday", "Mess closed on Saturday")
	require.NoError(t, err)
	assert.Equal(t, "Mess closed on Saturday", updated.Content)

	_, err = svc.Update(ctx, 99, "t", "c")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, first.ID), ErrNotFound))
}
