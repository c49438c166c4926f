package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"xrechnung-gateway/internal/conversion"
	"xrechnung-gateway/internal/export"
	"xrechnung-gateway/internal/extraction"
	"xrechnung-gateway/internal/invoice"
	"xrechnung-gateway/internal/session"
	"xrechnung-gateway/internal/storage"
	"xrechnung-gateway/internal/validation"
)

// maxUploadSize bounds the accepted PDF size.
const maxUploadSize = 20 << 20

// Converter turns a document into an e-invoice artifact.
type Converter interface {
	Convert(ctx context.Context, sessionID string, doc invoice.Document, format conversion.OutputFormat, lang conversion.Language) (*conversion.Artifact, error)
}

// Validator checks a previously converted artifact against the XRechnung rules.
type Validator interface {
	Validate(ctx context.Context, sessionID string) (*validation.Result, error)
	Report(ctx context.Context, sessionID string) ([]validation.Message, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	sessions  *session.Repository
	files     *storage.FileStore
	engine    *invoice.Engine
	extractor extraction.Service
	converter Converter
	validator Validator
	excel     *export.ExcelWriter
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	sessions *session.Repository,
	files *storage.FileStore,
	engine *invoice.Engine,
	extractor extraction.Service,
	converter Converter,
	validator Validator,
	excel *export.ExcelWriter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		sessions:  sessions,
		files:     files,
		engine:    engine,
		extractor: extractor,
		converter: converter,
		validator: validator,
		excel:     excel,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SessionResponse carries a session id together with its current document.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Document  invoice.Document `json:"document"`
}

// FieldWrite is one entry of a PATCH document request.
type FieldWrite struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// ConvertRequest selects the output format and language for conversion.
type ConvertRequest struct {
	Format   string `json:"format"`
	Language string `json:"language"`
}

// MoveRequest selects the move direction for a line item.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// ValidationResponse is the outcome of a validator run.
type ValidationResponse struct {
	Valid       bool   `json:"valid"`
	ReturnCode  int    `json:"return_code"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "xrechnung-gateway",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateSession handles POST /api/v1/sessions. It starts an edit session from
// a blank document skeleton, for users who fill the invoice in manually.
func (h *Handlers) CreateSession(c *gin.Context) {
	doc := h.engine.Recompute(invoice.NewDocument())

	s := &session.Session{
		ID:       session.NewID(),
		Document: doc,
	}
	if err := h.sessions.Create(c.Request.Context(), s); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    SessionResponse{SessionID: s.ID, Document: doc},
	})
}

// UploadPDF handles POST /api/v1/sessions/upload. The uploaded PDF is run
// through the extractor and the resulting document seeds a new session.
func (h *Handlers) UploadPDF(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "missing file field", err)
		return
	}
	if fileHeader.Size > maxUploadSize {
		h.fail(c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "failed to open upload", err)
		return
	}
	defer file.Close()

	pdf, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}
	if len(pdf) > maxUploadSize {
		h.fail(c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}

	filename := path.Base(fileHeader.Filename)

	doc, err := h.extractor.Extract(c.Request.Context(), filename, pdf)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "extraction failed", err)
		return
	}
	doc = h.engine.Recompute(doc)

	id := session.NewID()
	if _, err := h.files.Save(path.Join(id, "upload.pdf"), pdf); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	s := &session.Session{
		ID:          id,
		PDFFilename: filename,
		PDFPath:     path.Join(id, "upload.pdf"),
		Document:    doc,
	}
	if err := h.sessions.Create(c.Request.Context(), s); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	h.logger.Info("Session created from upload",
		zap.String("session_id", id),
		zap.String("filename", filename),
		zap.Int("size", len(pdf)))

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    SessionResponse{SessionID: id, Document: doc},
	})
}

// GetDocument handles GET /api/v1/sessions/:id/document
func (h *Handlers) GetDocument(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: s.Document})
}

// ReplaceDocument handles PUT /api/v1/sessions/:id/document. The submitted
// document is recomputed before it is stored, so derived totals can never be
// forged by the client.
func (h *Handlers) ReplaceDocument(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}

	var doc invoice.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid document payload", err)
		return
	}

	doc = h.engine.Recompute(doc)
	h.storeDocument(c, s.ID, doc)
}

// PatchDocument handles PATCH /api/v1/sessions/:id/document. The body is a
// list of {path, value} writes applied in order; unknown paths are ignored.
func (h *Handlers) PatchDocument(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}

	var writes []FieldWrite
	if err := c.ShouldBindJSON(&writes); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid patch payload", err)
		return
	}

	doc := s.Document
	for _, w := range writes {
		doc = h.engine.SetField(doc, w.Path, w.Value)
	}
	h.storeDocument(c, s.ID, doc)
}

// AddLineItem handles POST /api/v1/sessions/:id/items
func (h *Handlers) AddLineItem(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	h.storeDocument(c, s.ID, h.engine.AddLineItem(s.Document))
}

// RemoveLineItem handles DELETE /api/v1/sessions/:id/items/:index
func (h *Handlers) RemoveLineItem(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	index, ok := h.indexParam(c)
	if !ok {
		return
	}

	doc, err := h.engine.RemoveLineItem(s.Document, index)
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, "line item index out of range", err)
		return
	}
	h.storeDocument(c, s.ID, doc)
}

// MoveLineItem handles POST /api/v1/sessions/:id/items/:index/move
func (h *Handlers) MoveLineItem(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	index, ok := h.indexParam(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid move payload", err)
		return
	}

	var dir invoice.Direction
	switch req.Direction {
	case "up":
		dir = invoice.DirectionUp
	case "down":
		dir = invoice.DirectionDown
	default:
		h.fail(c, http.StatusBadRequest, "direction must be up or down", nil)
		return
	}

	doc, err := h.engine.MoveLineItem(s.Document, index, dir)
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, "line item index out of range", err)
		return
	}
	h.storeDocument(c, s.ID, doc)
}

// AddAllowance handles POST /api/v1/sessions/:id/allowances
func (h *Handlers) AddAllowance(c *gin.Context) {
	h.addAdjustment(c, invoice.KindAllowance)
}

// AddCharge handles POST /api/v1/sessions/:id/charges
func (h *Handlers) AddCharge(c *gin.Context) {
	h.addAdjustment(c, invoice.KindCharge)
}

// RemoveAllowance handles DELETE /api/v1/sessions/:id/allowances/:index
func (h *Handlers) RemoveAllowance(c *gin.Context) {
	h.removeAdjustment(c, invoice.KindAllowance)
}

// RemoveCharge handles DELETE /api/v1/sessions/:id/charges/:index
func (h *Handlers) RemoveCharge(c *gin.Context) {
	h.removeAdjustment(c, invoice.KindCharge)
}

func (h *Handlers) addAdjustment(c *gin.Context, kind invoice.AdjustmentKind) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	h.storeDocument(c, s.ID, h.engine.AddAdjustment(s.Document, kind))
}

func (h *Handlers) removeAdjustment(c *gin.Context, kind invoice.AdjustmentKind) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	index, ok := h.indexParam(c)
	if !ok {
		return
	}

	doc, err := h.engine.RemoveAdjustment(s.Document, kind, index)
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, "adjustment index out of range", err)
		return
	}
	h.storeDocument(c, s.ID, doc)
}

// Convert handles POST /api/v1/sessions/:id/convert
func (h *Handlers) Convert(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}

	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid convert payload", err)
		return
	}
	format, err := conversion.ParseFormat(req.Format)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	lang, err := conversion.ParseLanguage(req.Language)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	artifact, err := h.converter.Convert(c.Request.Context(), s.ID, s.Document, format, lang)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "conversion failed", err)
		return
	}

	relPath := path.Join(s.ID, "artifact"+format.FileExtension())
	if _, err := h.files.Save(relPath, artifact.Content); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to store artifact", err)
		return
	}
	if err := h.sessions.UpdateArtifact(c.Request.Context(), s.ID, relPath, string(format), artifact.ContentType); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to update session", err)
		return
	}

	h.logger.Info("Artifact generated",
		zap.String("session_id", s.ID),
		zap.String("format", string(format)),
		zap.Int("size", len(artifact.Content)))

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"format":       string(format),
			"language":     string(lang),
			"content_type": artifact.ContentType,
			"size":         len(artifact.Content),
		},
	})
}

// DownloadArtifact handles GET /api/v1/sessions/:id/artifact
func (h *Handlers) DownloadArtifact(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	if !s.HasArtifact() {
		h.fail(c, http.StatusNotFound, "no artifact generated yet", session.ErrNoArtifact)
		return
	}

	content, err := h.files.Read(s.ArtifactPath)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to read artifact", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(s.ArtifactPath)+`"`)
	c.Data(http.StatusOK, s.ArtifactContentType, content)
}

// Validate handles POST /api/v1/sessions/:id/validate
func (h *Handlers) Validate(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}
	if !s.HasArtifact() {
		h.fail(c, http.StatusConflict, "convert the document before validating", session.ErrNoArtifact)
		return
	}

	result, err := h.validator.Validate(c.Request.Context(), s.ID)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "validation failed", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ValidationResponse{
			Valid:       result.Valid(),
			ReturnCode:  result.ReturnCode,
			Message:     result.Message,
			Description: result.Description,
		},
	})
}

// ValidationReport handles GET /api/v1/sessions/:id/validation-report
func (h *Handlers) ValidationReport(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}

	messages, err := h.validator.Report(c.Request.Context(), s.ID)
	if err != nil {
		h.fail(c, http.StatusBadGateway, "failed to fetch validation report", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: messages})
}

// ExportExcel handles GET /api/v1/sessions/:id/export
func (h *Handlers) ExportExcel(c *gin.Context) {
	s := h.loadSession(c)
	if s == nil {
		return
	}

	content, err := h.excel.Write(s.Document)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to render export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handlers) DeleteSession(c *gin.Context) {
	id := c.Param("id")

	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.fail(c, http.StatusNotFound, "session not found", err)
			return
		}
		h.fail(c, http.StatusInternalServerError, "failed to delete session", err)
		return
	}
	if err := h.files.Remove(id); err != nil {
		h.logger.Warn("Failed to remove session files",
			zap.String("session_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// loadSession resolves the :id parameter. On failure it writes the error
// response and returns nil.
func (h *Handlers) loadSession(c *gin.Context) *session.Session {
	id := c.Param("id")

	s, err := h.sessions.GetByID(c.Request.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		h.fail(c, http.StatusNotFound, "session not found", err)
		return nil
	}
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to load session", err)
		return nil
	}
	return s
}

// storeDocument persists the updated document and returns it to the client.
func (h *Handlers) storeDocument(c *gin.Context, id string, doc invoice.Document) {
	if err := h.sessions.UpdateDocument(c.Request.Context(), id, doc); err != nil {
		h.fail(c, http.StatusInternalServerError, "failed to update document", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: doc})
}

func (h *Handlers) indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid index", err)
		return 0, false
	}
	return index, true
}

func (h *Handlers) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg,
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: msg})
}
