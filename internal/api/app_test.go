package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"siteledger/internal/ledger"
	"siteledger/internal/remote"
	"siteledger/internal/storage"
)

func newTestHandler(t *testing.T) (http.Handler, *ledger.Store) {
	t.Helper()

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := ledger.New(db, ledger.Options{})
	if err != nil {
		t.Fatalf("building store: %v", err)
	}

	sim := remote.NewSyncSimulator(store, 10*time.Millisecond)
	t.Cleanup(sim.Close)

	return NewHandler(Deps{Store: store, Sync: sim}), store
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func errType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decoding error body %q: %v", w.Body.String(), err)
	}
	return e.Error.Type
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	w := doRequest(t, h, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestCreateProject(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h, "POST", "/projects", `{"name":"Bridge","budget":"1200.50"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	p := decodeBody[ledger.Project](t, w)
	if p.ID == "" {
		t.Error("created project has no ID")
	}
	if p.Status != ledger.StatusPlanning {
		t.Errorf("status = %q, want planning", p.Status)
	}
	if p.Budget != 1200.50 {
		t.Errorf("budget = %v, want 1200.50 (quoted number coerced)", p.Budget)
	}

	list := decodeBody[[]ledger.Project](t, doRequest(t, h, "GET", "/projects", ""))
	if len(list) != 1 {
		t.Errorf("len(list) = %d, want 1", len(list))
	}
}

func TestCreateMissingName(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h, "POST", "/architects", `{"email":"sarah@example.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := errType(t, w); got != "invalid_request_error" {
		t.Errorf("error type = %q, want invalid_request_error", got)
	}
}

func TestCreateInvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h, "POST", "/projects", `{"name": `)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetByID(t *testing.T) {
	h, store := newTestHandler(t)
	created, err := store.CreateSupervisor(ledger.Supervisor{Meta: ledger.Meta{Name: "Mike"}})
	if err != nil {
		t.Fatalf("CreateSupervisor: %v", err)
	}

	w := doRequest(t, h, "GET", "/supervisors/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := decodeBody[ledger.Supervisor](t, w)
	if got.Name != "Mike" {
		t.Errorf("name = %q, want Mike", got.Name)
	}

	w = doRequest(t, h, "GET", "/supervisors/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateProject(t *testing.T) {
	h, store := newTestHandler(t)
	created, err := store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "Bridge"}})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	w := doRequest(t, h, "PUT", "/projects/"+created.ID, `{"name":"Bridge","status":"active","progress":40}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	got := decodeBody[ledger.Project](t, w)
	if got.Status != ledger.StatusActive || got.Progress != 40 {
		t.Errorf("updated = %q/%d, want active/40", got.Status, got.Progress)
	}
	if got.ID != created.ID {
		t.Errorf("ID changed: %q -> %q", created.ID, got.ID)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h, "PUT", "/contractors/nope", `{"name":"David"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
	if got := errType(t, w); got != "not_found" {
		t.Errorf("error type = %q, want not_found", got)
	}
}

func TestDeleteProject(t *testing.T) {
	h, store := newTestHandler(t)
	created, err := store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "Bridge"}})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	w := doRequest(t, h, "DELETE", "/projects/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	w = doRequest(t, h, "DELETE", "/projects/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestReadOnlyRoleForbidsMutations(t *testing.T) {
	h, store := newTestHandler(t)

	w := doRequest(t, h, "PUT", "/role", `{"role":"readonly"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT /role status = %d, want 200", w.Code)
	}

	w = doRequest(t, h, "POST", "/projects", `{"name":"Bridge"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
	if got := errType(t, w); got != "permission_denied" {
		t.Errorf("error type = %q, want permission_denied", got)
	}
	if got := len(store.Projects()); got != 0 {
		t.Errorf("len(Projects()) = %d, want 0", got)
	}

	// Role changes stay allowed so the client can recover.
	w = doRequest(t, h, "PUT", "/role", `{"role":"admin"}`)
	if w.Code != http.StatusOK {
		t.Errorf("PUT /role back status = %d, want 200", w.Code)
	}
}

func TestPutRoleInvalid(t *testing.T) {
	h, store := newTestHandler(t)

	w := doRequest(t, h, "PUT", "/role", `{"role":"superuser"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if store.Role() != ledger.RoleAdmin {
		t.Errorf("role = %q, want admin unchanged", store.Role())
	}
}

func TestGetRole(t *testing.T) {
	h, _ := newTestHandler(t)

	w := doRequest(t, h, "GET", "/role", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := decodeBody[map[string]string](t, w)
	if got["role"] != "admin" {
		t.Errorf("role = %q, want admin", got["role"])
	}
}

func TestDashboard(t *testing.T) {
	h, store := newTestHandler(t)

	store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "A", Status: ledger.StatusActive}})
	store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "B", Status: ledger.StatusCompleted}})
	store.CreateArchitect(ledger.Architect{Meta: ledger.Meta{Name: "Sarah"}})

	w := doRequest(t, h, "GET", "/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	stats := decodeBody[map[string]int](t, w)
	if stats["activeProjects"] != 1 {
		t.Errorf("activeProjects = %d, want 1", stats["activeProjects"])
	}
	if stats["completedTasks"] != 1 {
		t.Errorf("completedTasks = %d, want 1", stats["completedTasks"])
	}
	if stats["teamMembers"] != 1 {
		t.Errorf("teamMembers = %d, want 1", stats["teamMembers"])
	}
}

func TestActivityLimit(t *testing.T) {
	h, store := newTestHandler(t)
	for i := 0; i < 5; i++ {
		store.RecordActivity(ledger.ActorUser, "entry")
	}

	w := doRequest(t, h, "GET", "/activity?limit=3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	acts := decodeBody[[]ledger.Activity](t, w)
	if len(acts) != 3 {
		t.Errorf("len = %d, want 3", len(acts))
	}

	// Bad limit falls back to the default of 20.
	w = doRequest(t, h, "GET", "/activity?limit=banana", "")
	acts = decodeBody[[]ledger.Activity](t, w)
	if len(acts) != 5 {
		t.Errorf("len = %d, want 5", len(acts))
	}
}

func TestExport(t *testing.T) {
	h, store := newTestHandler(t)
	store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "Bridge"}})

	w := doRequest(t, h, "GET", "/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "siteledger_data_") || !strings.Contains(cd, ".json") {
		t.Errorf("Content-Disposition = %q, want date-stamped filename", cd)
	}

	snap := decodeBody[ledger.Snapshot](t, w)
	if len(snap.Projects) != 1 || snap.Projects[0].Name != "Bridge" {
		t.Errorf("exported projects = %+v", snap.Projects)
	}

	acts := store.RecentActivity(1)
	if len(acts) != 1 || acts[0].Action != "Exported data" {
		t.Errorf("last activity = %+v, want Exported data", acts)
	}
}

func TestImport(t *testing.T) {
	h, store := newTestHandler(t)
	store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "Old"}})

	w := doRequest(t, h, "POST", "/import", `{"projects":[{"id":"p1","name":"New","status":"active"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	projects := store.Projects()
	if len(projects) != 1 || projects[0].Name != "New" {
		t.Errorf("projects = %+v, want the imported one", projects)
	}
}

func TestImportParseError(t *testing.T) {
	h, store := newTestHandler(t)
	store.CreateProject(ledger.Project{Meta: ledger.Meta{Name: "Keep"}})

	w := doRequest(t, h, "POST", "/import", `{"projects": [broken`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
	if got := errType(t, w); got != "parse_error" {
		t.Errorf("error type = %q, want parse_error", got)
	}

	projects := store.Projects()
	if len(projects) != 1 || projects[0].Name != "Keep" {
		t.Errorf("projects = %+v, want unchanged", projects)
	}
}

func TestSync(t *testing.T) {
	h, store := newTestHandler(t)

	w := doRequest(t, h, "POST", "/sync", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}

	acts := store.RecentActivity(1)
	if len(acts) != 1 || acts[0].Action != "Started GitHub sync" {
		t.Fatalf("immediate activity = %+v, want Started GitHub sync", acts)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		acts = store.RecentActivity(1)
		if len(acts) == 1 && acts[0].Action == "Synced data to GitHub (simulated)" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("completion entry never appeared; last = %+v", acts)
}

func TestSyncUnconfigured(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening storage: %v", err)
	}
	defer db.Close()
	store, err := ledger.New(db, ledger.Options{})
	if err != nil {
		t.Fatalf("building store: %v", err)
	}
	h := NewHandler(Deps{Store: store})

	w := doRequest(t, h, "POST", "/sync", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	// Generate at least one observation so the series exist.
	doRequest(t, h, "GET", "/health", "")

	w := doRequest(t, h, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "siteledger_") {
		t.Error("metrics output missing siteledger_ series")
	}
}
