package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/model"
)

func TestUserCreateAndLookup(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	u := model.User{LineID: "U123", Name: "Chen", Phone: "0911222333", License: "ABC-1234", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(ctx, &u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byLine, err := repo.GetByLineID(ctx, "U123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byLine.ID)

	dup := model.User{LineID: "U123", Name: "Other", Phone: "0911222334", Role: model.RoleCustomer}
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	_, err = repo.GetByLineID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserDelete(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	u := seedUser(t, db, "line-del")
	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), sql.ErrNoRows)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := openTestDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	u := seedUser(t, db, "line-tok")
	exp := time.Now().UTC().Add(time.Hour)
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, "hash-1", exp))

	uid, err := tokens.ValidateRefresh(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	require.NoError(t, tokens.RevokeByHash(ctx, "hash-1"))
	_, err = tokens.ValidateRefresh(ctx, "hash-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// expired tokens fail validation even when not revoked
	require.NoError(t, tokens.StoreRefresh(ctx, u.ID, "hash-2", time.Now().UTC().Add(-time.Minute)))
	_, err = tokens.ValidateRefresh(ctx, "hash-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
