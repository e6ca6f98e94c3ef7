package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/control"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/extract"
	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/store"
)

// ErrorResponse is the body returned for failed requests.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing_fields,omitempty"`
}

// writeError maps domain errors onto HTTP status codes. Validation
// failures carry the exact missing fields so the client can fix the
// record in one round trip.
func (s *Server) writeError(c echo.Context, err error) error {
	var vErr *document.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Missing: vErr.Missing})
	case errors.Is(err, document.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, document.ErrState):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, document.ErrIntegrity):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, document.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// resolveDocument accepts either the internal record ID or the doc_id.
func (s *Server) resolveDocument(c echo.Context, ref string) (*document.Document, error) {
	doc, err := s.store.GetDocument(c.Request().Context(), ref)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, document.ErrNotFound) {
		return nil, err
	}
	return s.store.GetByDocID(c.Request().Context(), ref)
}

func (s *Server) handleRegisterDraft(c echo.Context) error {
	var req control.DraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doc, err := s.controller.RegisterDraft(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c echo.Context) error {
	filter := store.DocumentFilter{
		Department: document.Department(c.QueryParam("department")),
		Status:     document.Status(c.QueryParam("status")),
		DocID:      c.QueryParam("doc_id"),
	}

	docs, err := s.store.ListDocuments(c.Request().Context(), filter)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, docs)
}

func (s *Server) handleGetDocument(c echo.Context) error {
	doc, err := s.resolveDocument(c, c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}

// ApproveRequest is the request body for POST /documents/:id/approve.
type ApproveRequest struct {
	Approver string `json:"approver"`
}

func (s *Server) handleApprove(c echo.Context) error {
	var req ApproveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doc, err := s.resolveDocument(c, c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.controller.Approve(c.Request().Context(), doc.ID, req.Approver)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ReviseRequest is the request body for POST /documents/:id/revise.
type ReviseRequest struct {
	Kind       control.RevisionKind `json:"kind"`
	SourcePath string               `json:"source_path"`
	Approver   string               `json:"approver"`
}

func (s *Server) handleRevise(c echo.Context) error {
	var req ReviseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doc, err := s.resolveDocument(c, c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.controller.Revise(c.Request().Context(), doc.ID, req.Kind, req.SourcePath, req.Approver)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleVerify(c echo.Context) error {
	doc, err := s.resolveDocument(c, c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	report, err := s.controller.VerifyIntegrity(c.Request().Context(), doc.DocID)
	if err != nil {
		if errors.Is(err, document.ErrIntegrity) && report != nil {
			return c.JSON(http.StatusConflict, report)
		}
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) handleExtract(c echo.Context) error {
	mode := extract.Mode(c.QueryParam("mode"))
	if mode == "" {
		mode = extract.ModeCommit
	}

	doc, err := s.resolveDocument(c, c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	result, err := s.extractor.Extract(c.Request().Context(), doc.DocID, mode, s.extractCfg)
	if err != nil {
		// A duplicate run and an empty document are reported, not
		// failed: the caller gets the populated result either way.
		if errors.Is(err, document.ErrDuplicate) || errors.Is(err, document.ErrNoStatements) {
			return c.JSON(http.StatusOK, result)
		}
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyze(c echo.Context) error {
	doc, err := s.resolveDocument(c, c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}

	analysis, err := s.extractor.Analyze(c.Request().Context(), doc.DocID, s.extractCfg)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleCheckRegister(c echo.Context) error {
	conflicts, err := s.controller.CheckRegister(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"clean":     len(conflicts) == 0,
		"conflicts": conflicts,
	})
}

// RepairRequest is the request body for POST /register/repair.
type RepairRequest struct {
	Actor string `json:"actor"`
}

func (s *Server) handleRepairRegister(c echo.Context) error {
	var req RepairRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Actor == "" {
		req.Actor = "System"
	}

	repaired, err := s.controller.RepairRegister(c.Request().Context(), req.Actor)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"repaired": repaired})
}

func (s *Server) handleListTasks(c echo.Context) error {
	filter := store.TaskFilter{
		DocumentID:    c.QueryParam("document_id"),
		SourceVersion: c.QueryParam("source_version"),
		Department:    document.Department(c.QueryParam("department")),
		Priority:      document.Priority(c.QueryParam("priority")),
		Status:        document.TaskStatus(c.QueryParam("status")),
	}

	tasks, err := s.store.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, tasks)
}
