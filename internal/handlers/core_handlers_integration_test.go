package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girishiitm/synergysphere/internal/handlers/testutil"
)

type projectPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}

type taskPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
}

func createProject(t *testing.T, env *testutil.Env, token, name string) projectPayload {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/projects", map[string]string{
		"name":        name,
		"description": "Integration fixture",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var project projectPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &project)
	require.NotEmpty(t, project.ID)
	return project
}

func TestProjectHandler_CRUDAndMembers(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser("Passw0rd!long")
	member := env.CreateUser("Passw0rd!long")

	ownerToken := env.Login(owner.Email, "Passw0rd!long").Tokens.AccessToken
	memberToken := env.Login(member.Email, "Passw0rd!long").Tokens.AccessToken

	project := createProject(t, env, ownerToken, "Launch Plan")
	require.Equal(t, owner.ID, project.OwnerID)

	// Outsiders cannot see the project.
	denied := env.Request(http.MethodGet, "/api/projects/"+project.ID, nil, memberToken)
	require.Equal(t, http.StatusForbidden, denied.Code)

	add := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/members", project.ID), map[string]string{
		"user_id": member.ID,
		"role":    "editor",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, add.Code, add.Body.String())

	visible := env.Request(http.MethodGet, "/api/projects/"+project.ID, nil, memberToken)
	require.Equal(t, http.StatusOK, visible.Code)

	// Joining produced a notification for the new member.
	notifications := env.Request(http.MethodGet, "/api/notifications?unread=true", nil, memberToken)
	require.Equal(t, http.StatusOK, notifications.Code)
	var rows []map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, notifications).Data, &rows)
	require.NotEmpty(t, rows)

	update := env.Request(http.MethodPut, "/api/projects/"+project.ID, map[string]string{
		"name": "Launch Plan v2",
	}, memberToken)
	require.Equal(t, http.StatusOK, update.Code, update.Body.String())

	// Owners cannot be removed from their own project.
	removeOwner := env.Request(http.MethodDelete, fmt.Sprintf("/api/projects/%s/members/%s", project.ID, owner.ID), nil, ownerToken)
	require.Equal(t, http.StatusBadRequest, removeOwner.Code)

	remove := env.Request(http.MethodDelete, fmt.Sprintf("/api/projects/%s/members/%s", project.ID, member.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, remove.Code)

	// Only the owner may delete the project.
	drop := env.Request(http.MethodDelete, "/api/projects/"+project.ID, nil, ownerToken)
	require.Equal(t, http.StatusOK, drop.Code)

	gone := env.Request(http.MethodGet, "/api/projects/"+project.ID, nil, ownerToken)
	require.Equal(t, http.StatusNotFound, gone.Code)
}

func TestTaskHandler_LifecycleAndFilters(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser("Passw0rd!long")
	assignee := env.CreateUser("Passw0rd!long")

	ownerToken := env.Login(owner.Email, "Passw0rd!long").Tokens.AccessToken
	assigneeToken := env.Login(assignee.Email, "Passw0rd!long").Tokens.AccessToken

	project := createProject(t, env, ownerToken, "Sprint Board")

	add := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/members", project.ID), map[string]string{
		"user_id": assignee.ID,
		"role":    "editor",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, add.Code)

	create := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks", project.ID), map[string]any{
		"title":       "Draft announcement",
		"assignee_id": assignee.ID,
		"priority":    2,
	}, ownerToken)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	var task taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, create).Data, &task)
	require.Equal(t, "todo", task.Status)

	update := env.Request(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{
		"status": "in_progress",
	}, assigneeToken)
	require.Equal(t, http.StatusOK, update.Code, update.Body.String())

	invalid := env.Request(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{
		"status": "parked",
	}, ownerToken)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	assigned := env.Request(http.MethodGet, "/api/tasks", nil, assigneeToken)
	require.Equal(t, http.StatusOK, assigned.Code)
	var mine []taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, assigned).Data, &mine)
	require.Len(t, mine, 1)
	require.Equal(t, task.ID, mine[0].ID)

	filtered := env.Request(http.MethodGet, fmt.Sprintf("/api/projects/%s/tasks?status=done", project.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, filtered.Code)
	var done []taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, filtered).Data, &done)
	require.Empty(t, done)

	remove := env.Request(http.MethodDelete, "/api/tasks/"+task.ID, nil, ownerToken)
	require.Equal(t, http.StatusOK, remove.Code)
}

func TestMessageHandler_ProjectThread(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser("Passw0rd!long")
	outsider := env.CreateUser("Passw0rd!long")

	ownerToken := env.Login(owner.Email, "Passw0rd!long").Tokens.AccessToken
	outsiderToken := env.Login(outsider.Email, "Passw0rd!long").Tokens.AccessToken

	project := createProject(t, env, ownerToken, "Discussion")

	post := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/messages", project.ID), map[string]string{
		"content": "Kickoff at noon",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, post.Code, post.Body.String())

	var message map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, post).Data, &message)
	messageID, _ := message["id"].(string)
	require.NotEmpty(t, messageID)

	blocked := env.Request(http.MethodGet, fmt.Sprintf("/api/projects/%s/messages", project.ID), nil, outsiderToken)
	require.Equal(t, http.StatusForbidden, blocked.Code)

	list := env.Request(http.MethodGet, fmt.Sprintf("/api/projects/%s/messages", project.ID), nil, ownerToken)
	require.Equal(t, http.StatusOK, list.Code)
	var thread []map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &thread)
	require.Len(t, thread, 1)

	remove := env.Request(http.MethodDelete, "/api/messages/"+messageID, nil, ownerToken)
	require.Equal(t, http.StatusOK, remove.Code)
}

func TestProfileHandler_UpdateAndPassword(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Passw0rd!long")
	token := env.Login(user.Email, "Passw0rd!long").Tokens.AccessToken

	update := env.Request(http.MethodPut, "/api/profile", map[string]any{
		"full_name":    "Updated Name",
		"notify_email": false,
	}, token)
	require.Equal(t, http.StatusOK, update.Code, update.Body.String())

	var profile map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, update).Data, &profile)
	require.Equal(t, "Updated Name", profile["full_name"])
	require.Equal(t, false, profile["notify_email"])

	wrongCurrent := env.Request(http.MethodPut, "/api/profile/password", map[string]string{
		"current_password": "WrongPass1!",
		"new_password":     "NewPassw0rd!",
	}, token)
	require.Equal(t, http.StatusBadRequest, wrongCurrent.Code)

	change := env.Request(http.MethodPut, "/api/profile/password", map[string]string{
		"current_password": "Passw0rd!long",
		"new_password":     "NewPassw0rd!",
	}, token)
	require.Equal(t, http.StatusOK, change.Code, change.Body.String())

	env.Login(user.Email, "NewPassw0rd!")
}

func TestUserHandler_Search(t *testing.T) {
	env := testutil.NewEnv(t)
	searcher := env.CreateUser("Passw0rd!long")
	token := env.Login(searcher.Email, "Passw0rd!long").Tokens.AccessToken

	target := env.CreateUser("Passw0rd!long")

	found := env.Request(http.MethodGet, "/api/users/search?q="+target.Username, nil, token)
	require.Equal(t, http.StatusOK, found.Code)
	var users []map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, found).Data, &users)
	require.Len(t, users, 1)
	require.Equal(t, target.ID, users[0]["id"])

	missing := env.Request(http.MethodGet, "/api/users/search?q=nobody-here", nil, token)
	require.Equal(t, http.StatusOK, missing.Code)
}

func TestRouteCache_HitAndInvalidation(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Passw0rd!long")
	token := env.Login(user.Email, "Passw0rd!long").Tokens.AccessToken

	createProject(t, env, token, "Cached Project")

	first := env.Request(http.MethodGet, "/api/projects", nil, token)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := env.Request(http.MethodGet, "/api/projects", nil, token)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "HIT", second.Header().Get("X-Cache"))

	// A write through the API invalidates the listing.
	createProject(t, env, token, "Another Project")

	third := env.Request(http.MethodGet, "/api/projects", nil, token)
	require.Equal(t, http.StatusOK, third.Code)
	require.Equal(t, "MISS", third.Header().Get("X-Cache"))

	var projects []projectPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, third).Data, &projects)
	require.Len(t, projects, 2)
}

func TestRouteCache_PartitionsByUser(t *testing.T) {
	env := testutil.NewEnv(t)
	first := env.CreateUser("Passw0rd!long")
	second := env.CreateUser("Passw0rd!long")

	firstToken := env.Login(first.Email, "Passw0rd!long").Tokens.AccessToken
	secondToken := env.Login(second.Email, "Passw0rd!long").Tokens.AccessToken

	createProject(t, env, firstToken, "Private Project")

	warm := env.Request(http.MethodGet, "/api/projects", nil, firstToken)
	require.Equal(t, "MISS", warm.Header().Get("X-Cache"))

	other := env.Request(http.MethodGet, "/api/projects", nil, secondToken)
	require.Equal(t, http.StatusOK, other.Code)
	require.Equal(t, "MISS", other.Header().Get("X-Cache"))

	var projects []projectPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, other).Data, &projects)
	require.Empty(t, projects)
}

func TestRouteCache_ProjectThreadStalesOnNewMessage(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser("Passw0rd!long")
	token := env.Login(owner.Email, "Passw0rd!long").Tokens.AccessToken

	project := createProject(t, env, token, "Thread Cache")
	threadURL := fmt.Sprintf("/api/projects/%s/messages", project.ID)

	post := env.Request(http.MethodPost, threadURL, map[string]string{
		"content": "first",
	}, token)
	require.Equal(t, http.StatusCreated, post.Code, post.Body.String())

	warm := env.Request(http.MethodGet, threadURL, nil, token)
	require.Equal(t, http.StatusOK, warm.Code)
	require.Equal(t, "MISS", warm.Header().Get("X-Cache"))

	cached := env.Request(http.MethodGet, threadURL, nil, token)
	require.Equal(t, "HIT", cached.Header().Get("X-Cache"))

	// Posting again must not leave the cached thread one message short.
	again := env.Request(http.MethodPost, threadURL, map[string]string{
		"content": "second",
	}, token)
	require.Equal(t, http.StatusCreated, again.Code)

	fresh := env.Request(http.MethodGet, threadURL, nil, token)
	require.Equal(t, http.StatusOK, fresh.Code)
	require.Equal(t, "MISS", fresh.Header().Get("X-Cache"))

	var thread []map[string]any
	testutil.DecodeInto(t, testutil.DecodeResponse(t, fresh).Data, &thread)
	require.Len(t, thread, 2)
}

func TestRouteCache_UserSearchSharedAcrossSubjects(t *testing.T) {
	env := testutil.NewEnv(t)
	first := env.CreateUser("Passw0rd!long")
	second := env.CreateUser("Passw0rd!long")
	target := env.CreateUser("Passw0rd!long")

	firstToken := env.Login(first.Email, "Passw0rd!long").Tokens.AccessToken
	secondToken := env.Login(second.Email, "Passw0rd!long").Tokens.AccessToken

	searchURL := "/api/users/search?q=" + target.Username

	warm := env.Request(http.MethodGet, searchURL, nil, firstToken)
	require.Equal(t, http.StatusOK, warm.Code)
	require.Equal(t, "MISS", warm.Header().Get("X-Cache"))

	// Search results carry no per-user data, so the entry is shared.
	shared := env.Request(http.MethodGet, searchURL, nil, secondToken)
	require.Equal(t, http.StatusOK, shared.Code)
	require.Equal(t, "HIT", shared.Header().Get("X-Cache"))
}

func TestDashboardHandler_OverviewAndStats(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Passw0rd!long")
	token := env.Login(user.Email, "Passw0rd!long").Tokens.AccessToken

	project := createProject(t, env, token, "Dashboard Fixture")
	create := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks", project.ID), map[string]any{
		"title":       "Ship it",
		"assignee_id": user.ID,
	}, token)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	overview := env.Request(http.MethodGet, "/api/dashboard/overview", nil, token)
	require.Equal(t, http.StatusOK, overview.Code, overview.Body.String())

	var body struct {
		Statistics struct {
			TotalProjects int `json:"total_projects"`
			TotalTasks    int `json:"total_tasks"`
		} `json:"statistics"`
		RecentProjects []projectPayload `json:"recent_projects"`
		RecentTasks    []taskPayload    `json:"recent_tasks"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, overview).Data, &body)
	require.Equal(t, 1, body.Statistics.TotalProjects)
	require.Equal(t, 1, body.Statistics.TotalTasks)
	require.Len(t, body.RecentProjects, 1)
	require.Len(t, body.RecentTasks, 1)

	stats := env.Request(http.MethodGet, "/api/dashboard/stats", nil, token)
	require.Equal(t, http.StatusOK, stats.Code)
	var counters map[string]float64
	testutil.DecodeInto(t, testutil.DecodeResponse(t, stats).Data, &counters)
	require.Equal(t, float64(1), counters["total_projects"])
	require.Equal(t, float64(1), counters["total_tasks"])

	// Dashboards are cached per user; a task write stales them.
	cached := env.Request(http.MethodGet, "/api/dashboard/overview", nil, token)
	require.Equal(t, "HIT", cached.Header().Get("X-Cache"))

	second := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/tasks", project.ID), map[string]any{
		"title": "Follow up",
	}, token)
	require.Equal(t, http.StatusCreated, second.Code)

	refreshed := env.Request(http.MethodGet, "/api/dashboard/overview", nil, token)
	require.Equal(t, http.StatusOK, refreshed.Code)
	require.Equal(t, "MISS", refreshed.Header().Get("X-Cache"))
	require.Equal(t, http.StatusUnauthorized, env.Request(http.MethodGet, "/api/dashboard/overview", nil, "").Code)
}

func TestCacheAdminHandler_RequiresAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Passw0rd!long")
	admin := env.CreateAdmin("Passw0rd!long")

	userToken := env.Login(user.Email, "Passw0rd!long").Tokens.AccessToken
	adminToken := env.Login(admin.Email, "Passw0rd!long").Tokens.AccessToken

	denied := env.Request(http.MethodGet, "/api/cache/stats", nil, userToken)
	require.Equal(t, http.StatusForbidden, denied.Code)

	stats := env.Request(http.MethodGet, "/api/cache/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, stats.Code, stats.Body.String())

	invalidate := env.Request(http.MethodPost, "/api/cache/invalidate", map[string]any{
		"tags": []string{"projects"},
	}, adminToken)
	require.Equal(t, http.StatusOK, invalidate.Code, invalidate.Body.String())

	clear := env.Request(http.MethodPost, "/api/cache/clear", nil, adminToken)
	require.Equal(t, http.StatusOK, clear.Code, clear.Body.String())
}

func TestNotificationHandler_ReadLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := env.CreateUser("Passw0rd!long")
	member := env.CreateUser("Passw0rd!long")

	ownerToken := env.Login(owner.Email, "Passw0rd!long").Tokens.AccessToken
	memberToken := env.Login(member.Email, "Passw0rd!long").Tokens.AccessToken

	project := createProject(t, env, ownerToken, "Notify Me")
	add := env.Request(http.MethodPost, fmt.Sprintf("/api/projects/%s/members", project.ID), map[string]string{
		"user_id": member.ID,
		"role":    "viewer",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, add.Code)

	list := env.Request(http.MethodGet, "/api/notifications", nil, memberToken)
	require.Equal(t, http.StatusOK, list.Code)
	resp := testutil.DecodeResponse(t, list)
	var rows []map[string]any
	testutil.DecodeInto(t, resp.Data, &rows)
	require.Len(t, rows, 1)
	id, _ := rows[0]["id"].(string)

	read := env.Request(http.MethodPut, "/api/notifications/"+id+"/read", nil, memberToken)
	require.Equal(t, http.StatusOK, read.Code)

	// Another user cannot touch it.
	foreign := env.Request(http.MethodPut, "/api/notifications/"+id+"/read", nil, ownerToken)
	require.Equal(t, http.StatusNotFound, foreign.Code)

	remove := env.Request(http.MethodDelete, "/api/notifications/"+id, nil, memberToken)
	require.Equal(t, http.StatusOK, remove.Code)
}
