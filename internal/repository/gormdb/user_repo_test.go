package gormdb_test

import (
	"context"
	"testing"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := testDB.Repositories().User
	ctx := context.Background()

	first := &domain.User{Username: "testuser", Email: "Test@Example.com", PasswordHash: "hash1"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.Equal(t, "test@example.com", first.Email)

	tests := []struct {
		name    string
		user    *domain.User
		wantErr error
	}{
		{
			name:    "duplicate username",
			user:    &domain.User{Username: "testuser", Email: "other@example.com", PasswordHash: "hash2"},
			wantErr: domain.ErrConflict,
		},
		{
			name:    "duplicate email ignoring case",
			user:    &domain.User{Username: "another", Email: "TEST@example.com", PasswordHash: "hash2"},
			wantErr: domain.ErrConflict,
		},
		{
			name:    "short username",
			user:    &domain.User{Username: "ab", Email: "ab@example.com", PasswordHash: "hash"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "bad email",
			user:    &domain.User{Username: "bademail", Email: "nope", PasswordHash: "hash"},
			wantErr: domain.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// The first user is untouched by the failed inserts.
	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "testuser", got.Username)
	assert.Equal(t, "hash1", got.PasswordHash)
}

func TestUserRepository_Find(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := testDB.Repositories()
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithUsername("finder").
		WithEmail("finder@example.com").
		Build(t, repos)
	atUser, _ := testutil.NewUserBuilder().
		WithUsername("bob@home").
		WithEmail("bob@example.com").
		Build(t, repos)

	tests := []struct {
		name   string
		find   func() (*domain.User, error)
		wantID *uuid.UUID
	}{
		{"by id", func() (*domain.User, error) { return repos.User.FindByID(ctx, user.ID) }, &user.ID},
		{"by username", func() (*domain.User, error) { return repos.User.FindByUsername(ctx, "finder") }, &user.ID},
		{"by email", func() (*domain.User, error) { return repos.User.FindByEmail(ctx, "FINDER@example.com") }, &user.ID},
		{"login by username", func() (*domain.User, error) { return repos.User.FindByLogin(ctx, "finder") }, &user.ID},
		{"login by email", func() (*domain.User, error) { return repos.User.FindByLogin(ctx, "finder@example.com") }, &user.ID},
		{"login by username containing @", func() (*domain.User, error) { return repos.User.FindByLogin(ctx, "bob@home") }, &atUser.ID},
		{"login by email of that user", func() (*domain.User, error) { return repos.User.FindByLogin(ctx, "Bob@Example.com") }, &atUser.ID},
		{"login unknown", func() (*domain.User, error) { return repos.User.FindByLogin(ctx, "nobody@example.com") }, nil},
		{"missing id", func() (*domain.User, error) { return repos.User.FindByID(ctx, uuid.New()) }, nil},
		{"missing username", func() (*domain.User, error) { return repos.User.FindByUsername(ctx, "nobody") }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.find()
			require.NoError(t, err)
			if tt.wantID == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.wantID, got.ID)
		})
	}
}

func TestUserRepository_Update(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := testDB.Repositories()
	ctx := context.Background()

	alice, _ := testutil.NewUserBuilder().WithUsername("alice").Build(t, repos)
	bob, _ := testutil.NewUserBuilder().WithUsername("bob").Build(t, repos)

	hash := "newhash"
	updated, err := repos.User.Update(ctx, alice.ID, domain.UserUpdate{PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "newhash", updated.PasswordHash)
	assert.False(t, updated.UpdatedAt.Before(alice.UpdatedAt))

	taken := bob.Username
	_, err = repos.User.Update(ctx, alice.ID, domain.UserUpdate{Username: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repos.User.Update(ctx, uuid.New(), domain.UserUpdate{PasswordHash: &hash})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_Delete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := testDB.Repositories()
	ctx := context.Background()

	owner, _ := testutil.NewUserBuilder().Build(t, repos)
	loner, _ := testutil.NewUserBuilder().Build(t, repos)
	testutil.NewProjectBuilder(owner).Build(t, repos)

	err := repos.User.Delete(ctx, owner.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, repos.User.Delete(ctx, loner.ID))
	got, err := repos.User.FindByID(ctx, loner.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repos.User.Delete(ctx, loner.ID), domain.ErrNotFound)
}
