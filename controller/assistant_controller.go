package controller

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/itish2003/assistant/models"
	"github.com/itish2003/assistant/services"
)

// AssistantController handles the HTTP requests of the assistant API. It depends on
// services.Assistant for all business logic.
type AssistantController struct {
	assistant      services.Assistant
	maxUploadBytes int64
}

// NewAssistantController is called from the serve command to inject the service dependency.
func NewAssistantController(assistant services.Assistant, maxUploadBytes int64) *AssistantController {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &AssistantController{assistant: assistant, maxUploadBytes: maxUploadBytes}
}

// UploadDocument is the Gin handler for POST /upload. The multipart field "file" replaces
// the current knowledge base.
func (c *AssistantController) UploadDocument(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxUploadBytes)

	header, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(ctx, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload limit")
			return
		}
		respondError(ctx, http.StatusBadRequest, "bad_request", "multipart field 'file' is required")
		return
	}

	f, err := header.Open()
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "bad_request", "could not read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondError(ctx, http.StatusBadRequest, "bad_request", "could not read uploaded file")
		return
	}

	res, err := c.assistant.Ingest(ctx.Request.Context(), header.Filename, data)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// Chat is the Gin handler for POST /chat.
func (c *AssistantController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	res, err := c.assistant.Ask(ctx.Request.Context(), models.Query{
		Text:       req.Query,
		SessionID:  req.SessionID,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// ResetSession is the Gin handler for DELETE /api/v1/sessions/:id.
func (c *AssistantController) ResetSession(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := c.assistant.ResetSession(ctx.Request.Context(), id); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "session cleared", "session_id": id})
}

// IndexStatus is the Gin handler for GET /api/v1/index.
func (c *AssistantController) IndexStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.assistant.IndexStatus())
}

// ListChunks is the Gin handler for GET /api/v1/chunks.
func (c *AssistantController) ListChunks(ctx *gin.Context) {
	res, err := c.assistant.Chunks(ctx.Request.Context())
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(ctx *gin.Context, err error) {
	var (
		parseErr   *services.ParseError
		collabErr  *services.CollaboratorError
		routingErr *services.RoutingError
	)
	switch {
	case errors.Is(err, services.ErrEmptyQuery):
		respondError(ctx, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, services.ErrUnsupportedFormat):
		respondError(ctx, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
	case errors.As(err, &parseErr):
		respondError(ctx, http.StatusUnprocessableEntity, "parse_error", err.Error())
	case errors.As(err, &routingErr):
		respondError(ctx, http.StatusBadGateway, "routing_error", err.Error())
	case errors.As(err, &collabErr):
		kind := "collaborator_error"
		if collabErr.Timeout {
			kind = "collaborator_timeout"
		}
		respondError(ctx, http.StatusBadGateway, kind, err.Error())
	default:
		log.Error().Str("component", "http").Str("path", ctx.FullPath()).Err(err).Msg("request failed")
		respondError(ctx, http.StatusInternalServerError, "internal", "internal error")
	}
}

func respondError(ctx *gin.Context, status int, kind, msg string) {
	ctx.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg, Kind: kind})
}
