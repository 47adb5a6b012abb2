package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messmate/internal/expense"
	"messmate/internal/meal"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_MarkMealChargesWhenFlagFlips(t *testing.T) {
	repo, mock := newMockRepo(t)
	charge := expense.MealCharge(5, "2026-03-11", meal.Lunch, 120)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO attendance .* ON CONFLICT \(user_id, date\) DO NOTHING`).
		WithArgs(int64(5), "2026-03-11").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE attendance SET lunch = TRUE\s+WHERE .* AND lunch = FALSE`).
		WithArgs(int64(5), "2026-03-11").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO expenses`).
		WithArgs(int64(5), "lunch meal", int64(120), expense.CategoryRegularMeals, "2026-03-11").
		WillReturnRows(sqlmock.NewRows([]string{"expense_id", "created_at"}).AddRow(int64(9), time.Now()))
	mock.ExpectCommit()

	charged, err := repo.MarkMeal(context.Background(), 5, "2026-03-11", meal.Lunch, charge)
	require.NoError(t, err)
	assert.True(t, charged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkMealAlreadyMarkedSkipsCharge(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO attendance`).
		WithArgs(int64(5), "2026-03-11").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE attendance SET dinner = TRUE`).
		WithArgs(int64(5), "2026-03-11").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	charged, err := repo.MarkMeal(context.Background(), 5, "2026-03-11", meal.Dinner,
		expense.MealCharge(5, "2026-03-11", meal.Dinner, 90))
	require.NoError(t, err)
	assert.False(t, charged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkMealRollsBackOnChargeError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO attendance`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE attendance SET breakfast = TRUE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO expenses`).WillReturnError(boom)
	mock.ExpectRollback()

	charged, err := repo.MarkMeal(context.Background(), 5, "2026-03-11", meal.Breakfast,
		expense.MealCharge(5, "2026-03-11", meal.Breakfast, 40))
	assert.ErrorIs(t, err, boom)
	assert.False(t, charged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
