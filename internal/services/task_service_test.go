package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girishiitm/synergysphere/internal/models"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
)

func newTaskFixture(t *testing.T) (*TaskService, *ProjectService, *NotificationService, *fixtureUsers) {
	t.Helper()

	db := openTestDB(t)
	notifications, err := NewNotificationService(db)
	require.NoError(t, err)
	projects, err := NewProjectService(db, notifications)
	require.NoError(t, err)
	tasks, err := NewTaskService(db, projects, notifications)
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner", "owner@example.com")
	editor := createTestUser(t, db, "editor", "editor@example.com")
	viewer := createTestUser(t, db, "viewer", "viewer@example.com")
	project := createTestProject(t, projects, owner.ID, "Apollo")

	ctx := context.Background()
	_, err = projects.AddMember(ctx, owner.ID, project.ID, AddMemberInput{UserID: editor.ID, Role: models.ProjectRoleEditor})
	require.NoError(t, err)
	_, err = projects.AddMember(ctx, owner.ID, project.ID, AddMemberInput{UserID: viewer.ID, Role: models.ProjectRoleViewer})
	require.NoError(t, err)

	return tasks, projects, notifications, &fixtureUsers{
		owner:   owner,
		editor:  editor,
		viewer:  viewer,
		project: project,
	}
}

type fixtureUsers struct {
	owner   *models.User
	editor  *models.User
	viewer  *models.User
	project *models.Project
}

func TestTaskCreateAndList(t *testing.T) {
	tasks, _, _, fx := newTaskFixture(t)
	ctx := context.Background()

	created, err := tasks.Create(ctx, fx.editor.ID, fx.project.ID, CreateTaskInput{
		Title:    "Write launch checklist",
		Priority: 2,
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, created.Status)

	listed, err := tasks.ListForProject(ctx, fx.viewer.ID, ListTasksInput{ProjectID: fx.project.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)
}

func TestTaskViewerCannotWrite(t *testing.T) {
	tasks, _, _, fx := newTaskFixture(t)
	ctx := context.Background()

	_, err := tasks.Create(ctx, fx.viewer.ID, fx.project.ID, CreateTaskInput{Title: "Nope"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	created, err := tasks.Create(ctx, fx.owner.ID, fx.project.ID, CreateTaskInput{Title: "Real task"})
	require.NoError(t, err)

	require.ErrorIs(t, tasks.Delete(ctx, fx.viewer.ID, created.ID), apperrors.ErrForbidden)
}

func TestTaskStatusTransitions(t *testing.T) {
	tasks, _, _, fx := newTaskFixture(t)
	ctx := context.Background()

	created, err := tasks.Create(ctx, fx.owner.ID, fx.project.ID, CreateTaskInput{Title: "Ship it"})
	require.NoError(t, err)

	status := models.TaskStatusInProgress
	updated, err := tasks.Update(ctx, fx.editor.ID, created.ID, UpdateTaskInput{Status: &status})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusInProgress, updated.Status)

	bogus := "archived"
	_, err = tasks.Update(ctx, fx.editor.ID, created.ID, UpdateTaskInput{Status: &bogus})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestTaskAssignmentNotifies(t *testing.T) {
	tasks, _, notifications, fx := newTaskFixture(t)
	ctx := context.Background()

	created, err := tasks.Create(ctx, fx.owner.ID, fx.project.ID, CreateTaskInput{
		Title:      "Review designs",
		AssigneeID: &fx.editor.ID,
	})
	require.NoError(t, err)
	require.Equal(t, fx.editor.ID, *created.AssigneeID)

	rows, err := notifications.ListForUser(ctx, ListNotificationsInput{UserID: fx.editor.ID})
	require.NoError(t, err)

	var assigned int
	for _, row := range rows {
		if row.Type == "task.assigned" {
			assigned++
		}
	}
	require.Equal(t, 1, assigned)
}

func TestTaskAssigneeMustBeMember(t *testing.T) {
	tasks, _, _, fx := newTaskFixture(t)
	ctx := context.Background()

	outsider := "not-a-member"
	_, err := tasks.Create(ctx, fx.owner.ID, fx.project.ID, CreateTaskInput{
		Title:      "Impossible",
		AssigneeID: &outsider,
	})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestTaskGetRequiresMembership(t *testing.T) {
	tasks, _, _, fx := newTaskFixture(t)
	ctx := context.Background()

	created, err := tasks.Create(ctx, fx.owner.ID, fx.project.ID, CreateTaskInput{Title: "Private"})
	require.NoError(t, err)

	_, err = tasks.Get(ctx, "stranger", created.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}
