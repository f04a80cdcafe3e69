package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girishiitm/synergysphere/internal/models"
	apperrors "github.com/girishiitm/synergysphere/pkg/errors"
)

func TestProjectCreateEnrolsOwner(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner", "owner@example.com")
	project := createTestProject(t, svc, owner.ID, "Apollo")

	role, err := svc.MemberRole(context.Background(), owner.ID, project.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProjectRoleOwner, role)

	projects, err := svc.ListForUser(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Apollo", projects[0].Name)
}

func TestProjectAccessRequiresMembership(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner", "owner@example.com")
	outsider := createTestUser(t, db, "outsider", "outsider@example.com")
	project := createTestProject(t, svc, owner.ID, "Apollo")

	_, err = svc.Get(context.Background(), outsider.ID, project.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	projects, err := svc.ListForUser(context.Background(), outsider.ID)
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestProjectMemberLifecycle(t *testing.T) {
	db := openTestDB(t)
	notifications, err := NewNotificationService(db)
	require.NoError(t, err)
	svc, err := NewProjectService(db, notifications)
	require.NoError(t, err)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", "owner@example.com")
	member := createTestUser(t, db, "member", "member@example.com")
	project := createTestProject(t, svc, owner.ID, "Apollo")

	added, err := svc.AddMember(ctx, owner.ID, project.ID, AddMemberInput{UserID: member.ID, Role: models.ProjectRoleEditor})
	require.NoError(t, err)
	require.Equal(t, models.ProjectRoleEditor, added.Role)

	// Adding twice conflicts.
	_, err = svc.AddMember(ctx, owner.ID, project.ID, AddMemberInput{UserID: member.ID})
	require.ErrorIs(t, err, apperrors.ErrConflict)

	// The new member got an in-app notification.
	rows, err := notifications.ListForUser(ctx, ListNotificationsInput{UserID: member.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "project.member_added", rows[0].Type)

	require.NoError(t, svc.RemoveMember(ctx, owner.ID, project.ID, member.ID))
	_, err = svc.MemberRole(ctx, member.ID, project.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestProjectOwnerCannotBeRemoved(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	owner := createTestUser(t, db, "owner", "owner@example.com")
	project := createTestProject(t, svc, owner.ID, "Apollo")

	err = svc.RemoveMember(context.Background(), owner.ID, project.ID, owner.ID)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestProjectUpdateRequiresEditor(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", "owner@example.com")
	viewer := createTestUser(t, db, "viewer", "viewer@example.com")
	project := createTestProject(t, svc, owner.ID, "Apollo")

	_, err = svc.AddMember(ctx, owner.ID, project.ID, AddMemberInput{UserID: viewer.ID, Role: models.ProjectRoleViewer})
	require.NoError(t, err)

	name := "Artemis"
	_, err = svc.Update(ctx, viewer.ID, project.ID, UpdateProjectInput{Name: &name})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := svc.Update(ctx, owner.ID, project.ID, UpdateProjectInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Artemis", updated.Name)
}

func TestProjectDeleteCascades(t *testing.T) {
	db := openTestDB(t)
	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)
	taskSvc, err := NewTaskService(db, svc, nil)
	require.NoError(t, err)
	msgSvc, err := NewMessageService(db, svc)
	require.NoError(t, err)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", "owner@example.com")
	project := createTestProject(t, svc, owner.ID, "Apollo")

	_, err = taskSvc.Create(ctx, owner.ID, project.ID, CreateTaskInput{Title: "Launch"})
	require.NoError(t, err)
	_, err = msgSvc.Create(ctx, owner.ID, project.ID, CreateMessageInput{Content: "Kickoff"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner.ID, project.ID))

	var taskCount, messageCount, memberCount int64
	require.NoError(t, db.Model(&models.Task{}).Count(&taskCount).Error)
	require.NoError(t, db.Model(&models.Message{}).Count(&messageCount).Error)
	require.NoError(t, db.Model(&models.ProjectMember{}).Count(&memberCount).Error)
	require.Zero(t, taskCount)
	require.Zero(t, messageCount)
	require.Zero(t, memberCount)
}
