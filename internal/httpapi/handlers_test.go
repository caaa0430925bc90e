package httpapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"stagegate/internal/domain/identity"
	"stagegate/internal/domain/project"
	"stagegate/internal/httpapi"
	"stagegate/internal/sqlite"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	users := identity.NewService(sqlite.NewUserRepository(db), nil)
	projects := project.NewService(sqlite.NewProjectRepository(db), users, nil)

	return httpapi.NewServer(projects, users, nil).Router("test", []string{"*"})
}

func do(t *testing.T, router *gin.Engine, method, path, actorEmail string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actorEmail != "" {
		req.Header.Set("X-User-Email", actorEmail)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeProject(t *testing.T, w *httptest.ResponseRecorder) *project.Project {
	t.Helper()
	var proj project.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proj))
	return &proj
}

func registerUser(t *testing.T, router *gin.Engine, name, email string) {
	t.Helper()
	w := do(t, router, http.MethodPost, "/users", "", gin.H{"name": name, "email": email})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func registerCrew(t *testing.T, router *gin.Engine) {
	t.Helper()
	registerUser(t, router, "Alice", "alice@example.com")
	registerUser(t, router, "Luis", "luis@example.com")
	registerUser(t, router, "Bea", "bea@example.com")
	registerUser(t, router, "Carl", "carl@example.com")
}

// createCrewProject provisions a four-person project with weighted tasks
// assigned and the lifecycle launched, returning the project id.
func createCrewProject(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := do(t, router, http.MethodPost, "/projects", "alice@example.com", gin.H{
		"title":       "Orion CRM",
		"description": "Customer portal rebuild",
		"company":     "Acme Corp",
		"deadline":    "2026-12-01",
		"members": []gin.H{
			{"name": "Luis", "email": "luis@example.com", "role": "lead"},
			{"name": "Bea", "email": "bea@example.com"},
			{"name": "Carl", "email": "carl@example.com"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	proj := decodeProject(t, w)

	for email, weight := range map[string]int{"bea@example.com": 40, "carl@example.com": 60} {
		w = do(t, router, http.MethodPost, "/projects/"+proj.ID+"/tasks", "alice@example.com", gin.H{
			"email": email,
			"tasks": []gin.H{{"title": fmt.Sprintf("Deliverable for %s", email), "weight": weight}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/projects/"+proj.ID+"/launch", "alice@example.com", gin.H{
		"members": []gin.H{
			{"name": "Luis", "email": "luis@example.com", "role": "lead"},
			{"name": "Bea", "email": "bea@example.com"},
			{"name": "Carl", "email": "carl@example.com"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, project.StatusInProgress, decodeProject(t, w).Status)

	return proj.ID
}

func taskIDFor(t *testing.T, router *gin.Engine, projectID, email string) string {
	t.Helper()
	w := do(t, router, http.MethodGet, "/projects/"+projectID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	member := decodeProject(t, w).FindMember(email)
	require.NotNil(t, member)
	require.NotEmpty(t, member.Tasks)
	return member.Tasks[0].ID
}

func TestAPI_FullLifecycle(t *testing.T) {
	router := newTestRouter(t)
	registerCrew(t, router)
	id := createCrewProject(t, router)

	// Bea proves her task and the lead approves: 40% of one of two
	// eligible members is 20% overall.
	beaTask := taskIDFor(t, router, id, "bea@example.com")
	w := do(t, router, http.MethodPost, "/projects/"+id+"/requests", "bea@example.com", gin.H{
		"task_id":   beaTask,
		"proof_ref": "https://proofs.example.com/bea",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/projects/"+id+"/requests/resolve", "luis@example.com", gin.H{
		"task_id":  beaTask,
		"decision": "approve",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	proj := decodeProject(t, w)
	require.Equal(t, 40, proj.FindMember("bea@example.com").Progress)
	require.InDelta(t, 20.0, proj.Progress, 0.0001)

	// Carl follows: (40 + 60) / 2.
	carlTask := taskIDFor(t, router, id, "carl@example.com")
	w = do(t, router, http.MethodPost, "/projects/"+id+"/requests", "carl@example.com", gin.H{
		"task_id":   carlTask,
		"proof_ref": "https://proofs.example.com/carl",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/projects/"+id+"/requests/resolve", "luis@example.com", gin.H{
		"task_id":  carlTask,
		"decision": "approve",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.InDelta(t, 50.0, decodeProject(t, w).Progress, 0.0001)

	// The lead hands off the final report.
	w = do(t, router, http.MethodPost, "/projects/"+id+"/submit", "luis@example.com", gin.H{
		"proof_ref": "https://reports.example.com/final.pdf",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// It shows up in the admin approval queue.
	w = do(t, router, http.MethodGet, "/projects/pending", "alice@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var queue struct {
		Count int `json:"count"`
		Items []struct {
			ProjectID string `json:"project_id"`
			LeadEmail string `json:"lead_email"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &queue))
	require.Equal(t, 1, queue.Count)
	require.Equal(t, id, queue.Items[0].ProjectID)
	require.Equal(t, "luis@example.com", queue.Items[0].LeadEmail)

	// The admin completes the project.
	w = do(t, router, http.MethodPost, "/projects/"+id+"/approve", "alice@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	proj = decodeProject(t, w)
	require.Equal(t, project.StatusCompleted, proj.Status)
	require.InDelta(t, 100.0, proj.Progress, 0.0001)
}

func TestAPI_ResolveFinalReportMovesToSubmitted(t *testing.T) {
	router := newTestRouter(t)
	registerCrew(t, router)
	id := createCrewProject(t, router)

	w := do(t, router, http.MethodPost, "/projects/"+id+"/submit", "luis@example.com", gin.H{
		"proof_ref": "https://reports.example.com/final.pdf",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/projects/"+id+"/requests/resolve", "alice@example.com", gin.H{
		"member_email": "luis@example.com",
		"decision":     "approve",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	proj := decodeProject(t, w)
	require.Equal(t, project.StatusSubmitted, proj.Status)
	require.Equal(t, "https://reports.example.com/final.pdf", proj.ReportRef)
}

func TestAPI_ListProjectsForMember(t *testing.T) {
	router := newTestRouter(t)
	registerCrew(t, router)
	id := createCrewProject(t, router)

	w := do(t, router, http.MethodGet, "/projects", "bea@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []project.Project `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	require.Equal(t, id, list.Items[0].ID)

	w = do(t, router, http.MethodGet, "/projects", "stranger@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Empty(t, list.Items)
}

func TestAPI_MissingActorHeader(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_StatusCodes(t *testing.T) {
	router := newTestRouter(t)
	registerCrew(t, router)
	id := createCrewProject(t, router)

	t.Run("unknown project is 404", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/projects/missing", "", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unregistered member is 400", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/projects", "alice@example.com", gin.H{
			"title":       "Second project",
			"description": "d",
			"company":     "Acme Corp",
			"deadline":    "2027-01-01",
			"members":     []gin.H{{"name": "Ghost", "email": "ghost@example.com"}},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("relaunch is 409", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/projects/"+id+"/launch", "alice@example.com", gin.H{
			"members": []gin.H{{"name": "Bea", "email": "bea@example.com"}},
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("non-lead final submission is 403", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/projects/"+id+"/submit", "bea@example.com", gin.H{
			"proof_ref": "https://reports.example.com/final.pdf",
		})
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("double resolution is 409", func(t *testing.T) {
		beaTask := taskIDFor(t, router, id, "bea@example.com")
		w := do(t, router, http.MethodPost, "/projects/"+id+"/requests", "bea@example.com", gin.H{
			"task_id":   beaTask,
			"proof_ref": "https://proofs.example.com/bea",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resolve := gin.H{"task_id": beaTask, "decision": "approve"}
		w = do(t, router, http.MethodPost, "/projects/"+id+"/requests/resolve", "luis@example.com", resolve)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(t, router, http.MethodPost, "/projects/"+id+"/requests/resolve", "luis@example.com", resolve)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("duplicate registration is 409", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/users", "", gin.H{"name": "Alice", "email": "alice@example.com"})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/users", "", gin.H{"name": "No Email"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
