package repository

import (
	"context"
	"testing"

	"github.com/nimasrn/donation-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db.DB)
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.User{
			Name:         "Alice",
			Email:        "alice@example.com",
			PasswordHash: "hash",
		})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.User{
			Name:         "Other Alice",
			Email:        "alice@example.com",
			PasswordHash: "hash2",
		})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})
}

func TestUserRepository_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.User{
		Name:         "Bob",
		Email:        "bob@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", got.Email)
	})

	t.Run("by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
