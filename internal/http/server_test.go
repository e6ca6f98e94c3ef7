package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/control"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/extract"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/vault"
)

const moistureSOP = "The operator shall check the rice moisture content every 4 hours using a calibrated moisture meter. " +
	"The moisture content must not exceed 14%. " +
	"The QC inspector must sample every lot before release."

type serverFixture struct {
	server   *Server
	store    *store.Memory
	incoming string
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	root := t.TempDir()
	vcfg := vault.Config{
		Incoming:   filepath.Join(root, "incoming"),
		Controlled: filepath.Join(root, "controlled"),
		Archive:    filepath.Join(root, "archive"),
	}
	v, err := vault.New(vcfg, nil)
	require.NoError(t, err)

	st := store.NewMemory()
	ctrl := control.New(st, v, nil, nil)
	svc := extract.NewService(st, nil, nil, nil)

	srv, err := NewServer(ctrl, svc, st, extract.DefaultConfig(), nil, nil)
	require.NoError(t, err)

	return &serverFixture{server: srv, store: st, incoming: vcfg.Incoming}
}

// do issues a request against the in-process router and decodes the
// JSON response into out when out is non-nil.
func (f *serverFixture) do(t *testing.T, method, target, body string, out any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.server.echo.ServeHTTP(rec, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out),
			"response body: %s", rec.Body.String())
	}
	return rec
}

// registerDraft stages a source file and creates a Draft through the API.
func (f *serverFixture) registerDraft(t *testing.T, title string) *document.Document {
	t.Helper()

	name := strings.ToLower(strings.ReplaceAll(title, " ", "_")) + ".txt"
	path := filepath.Join(f.incoming, name)
	require.NoError(t, os.WriteFile(path, []byte(moistureSOP), 0o644))

	body := fmt.Sprintf(`{
		"title": %q,
		"department": "Milling",
		"doc_type": "SOP",
		"prepared_by": "R. Ahmed",
		"approved_by": "S. Khan",
		"record_keeper": "QA Office",
		"file_path": %q
	}`, title, path)

	var doc document.Document
	rec := f.do(t, http.MethodPost, "/api/v1/documents", body, &doc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return &doc
}

func (f *serverFixture) approve(t *testing.T, id string) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+id+"/approve", `{"approver":"S. Khan"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)

	var resp HealthResponse
	rec := f.do(t, http.MethodGet, "/health", "", &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp.Status)
}

func TestRegisterDraftEndpoint(t *testing.T) {
	f := newServerFixture(t)

	doc := f.registerDraft(t, "Moisture Monitoring")
	assert.Equal(t, "MILL-SOP-001", doc.DocID)
	assert.Equal(t, "v0.1", doc.Version)
	assert.Equal(t, document.StatusDraft, doc.Status)
}

func TestRegisterDraftRejectsUnknownDepartment(t *testing.T) {
	f := newServerFixture(t)

	body := `{"title": "X", "department": "Shipping", "doc_type": "SOP"}`
	var resp ErrorResponse
	rec := f.do(t, http.MethodPost, "/api/v1/documents", body, &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, resp.Error, "Shipping")
}

func TestApproveEndpoint(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")

	var result control.ApprovalResult
	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", `{"approver":"S. Khan"}`, &result)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "v1.0", result.Document.Version)
	assert.Equal(t, document.StatusControlled, result.Document.Status)
}

func TestApproveByDocID(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")

	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/approve", `{"approver":"S. Khan"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestApproveMissingFieldsReported(t *testing.T) {
	f := newServerFixture(t)

	path := filepath.Join(f.incoming, "no_approver.txt")
	require.NoError(t, os.WriteFile(path, []byte(moistureSOP), 0o644))
	body := fmt.Sprintf(`{
		"title": "No Approver",
		"department": "Milling",
		"doc_type": "SOP",
		"prepared_by": "R. Ahmed",
		"record_keeper": "QA Office",
		"file_path": %q
	}`, path)
	var doc document.Document
	rec := f.do(t, http.MethodPost, "/api/v1/documents", body, &doc)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ErrorResponse
	rec = f.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", `{"approver":""}`, &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"approved_by"}, resp.Missing)
}

func TestApproveTwiceConflicts(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")
	f.approve(t, doc.ID)

	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.ID+"/approve", `{"approver":"S. Khan"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetDocumentNotFound(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/documents/MILL-SOP-099", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviseEndpoint(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")
	f.approve(t, doc.ID)

	revised := filepath.Join(f.incoming, "moisture_v2.txt")
	require.NoError(t, os.WriteFile(revised, []byte(moistureSOP+" Records shall be retained."), 0o644))

	body := fmt.Sprintf(`{"kind": "major", "source_path": %q, "approver": "S. Khan"}`, revised)
	var result control.RevisionResult
	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/revise", body, &result)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "v2.0", result.Document.Version)
	assert.True(t, result.ReextractionRequired)
}

func TestExtractEndpoint(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")
	f.approve(t, doc.ID)

	var result extract.Result
	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/extract", "", &result)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, result.TotalTasks)
	assert.False(t, result.Skipped)

	// A second run is a reported no-op, not a failure.
	rec = f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/extract", "", &result)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, result.Skipped)
	assert.Equal(t, 2, result.ExistingCount)

	var tasks []*document.Task
	rec = f.do(t, http.MethodGet, "/api/v1/tasks?department=Milling", "", &tasks)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tasks, 1)
}

func TestExtractPreviewDoesNotPersist(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")
	f.approve(t, doc.ID)

	var result extract.Result
	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/extract?mode=preview", "", &result)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, result.TotalTasks)

	var tasks []*document.Task
	f.do(t, http.MethodGet, "/api/v1/tasks", "", &tasks)
	assert.Empty(t, tasks)
}

func TestExtractRequiresControlled(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")

	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/extract", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterCheckAndVerify(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")
	f.approve(t, doc.ID)

	var check struct {
		Clean     bool                       `json:"clean"`
		Conflicts []control.RegisterConflict `json:"conflicts"`
	}
	rec := f.do(t, http.MethodGet, "/api/v1/register/check", "", &check)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, check.Clean)

	var report control.IntegrityReport
	rec = f.do(t, http.MethodGet, "/api/v1/documents/"+doc.DocID+"/verify", "", &report)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, report.FileOK)
	assert.True(t, report.MetadataOK)
}

func TestAnalyzeEndpoint(t *testing.T) {
	f := newServerFixture(t)
	doc := f.registerDraft(t, "Moisture Monitoring")

	// Analysis works on a Draft; no approval needed.
	var analysis extract.Analysis
	rec := f.do(t, http.MethodPost, "/api/v1/documents/"+doc.DocID+"/analyze", "", &analysis)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, document.Quality, analysis.Context.PrimaryDepartment)
	assert.Contains(t, analysis.Context.UniqueActors, "operator")

	var tasks []*document.Task
	f.do(t, http.MethodGet, "/api/v1/tasks", "", &tasks)
	assert.Empty(t, tasks)
}

func TestRepairRegisterEndpoint(t *testing.T) {
	f := newServerFixture(t)

	var resp map[string]int
	rec := f.do(t, http.MethodPost, "/api/v1/register/repair", `{"actor":"QA Manager"}`, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, resp["repaired"])
}
