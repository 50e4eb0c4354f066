package service_test

import (
	"context"
	"testing"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/service"
	"github.com/dom/worknest/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Lifecycle(t *testing.T) {
	services, testDB := testutil.NewTestServices(t)
	repos := testDB.Repositories()
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, repos)

	project, err := services.Projects.Create(ctx, service.CreateProjectInput{
		Name:      " Website ",
		CreatedBy: user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Website", project.Name)
	assert.False(t, project.Archived)

	archived, err := services.Projects.Archive(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)

	visible, err := services.Projects.List(ctx, domain.ProjectListOptions{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := services.Projects.List(ctx, domain.ProjectListOptions{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	restored, err := services.Projects.Unarchive(ctx, project.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)

	require.NoError(t, services.Projects.Delete(ctx, project.ID))
	_, err = services.Projects.Get(ctx, project.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectService_Errors(t *testing.T) {
	services, testDB := testutil.NewTestServices(t)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.Repositories())

	_, err := services.Projects.Create(ctx, service.CreateProjectInput{Name: "", CreatedBy: user.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = services.Projects.Archive(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, services.Projects.Delete(ctx, uuid.New()), domain.ErrNotFound)
}
