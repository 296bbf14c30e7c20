package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/randdane/life-log/internal/attachment"
	"github.com/randdane/life-log/internal/domain"
	"github.com/randdane/life-log/internal/dto"
	"github.com/randdane/life-log/internal/reconciler"
	"github.com/randdane/life-log/internal/service"
)

type Handler struct {
	eventService service.EventServicer
	attachments  attachment.Uploader
	sweeper      reconciler.Sweeper
	adminToken   string
	router       *gin.Engine
	log          *zap.Logger
}

// NewHandler wires the HTTP surface. The admin token arrives as an explicit
// argument; the handler performs no other authentication.
func NewHandler(eventService service.EventServicer, attachments attachment.Uploader, sweeper reconciler.Sweeper, adminToken string, metrics prometheus.Gatherer, log *zap.Logger) *Handler {
	h := &Handler{
		eventService: eventService,
		attachments:  attachments,
		sweeper:      sweeper,
		adminToken:   adminToken,
		router:       gin.Default(),
		log:          log,
	}

	h.registerRoutes(metrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(metrics prometheus.Gatherer) {
	h.router.GET("/health", h.healthCheck)
	if metrics != nil {
		h.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))
	}

	authed := h.router.Group("/", h.requireToken)
	authed.POST("/events", h.createEvent)
	authed.GET("/events", h.listEvents)
	authed.GET("/events/:id", h.getEvent)
	authed.PATCH("/events/:id", h.updateEvent)
	authed.DELETE("/events/:id", h.deleteEvent)
	authed.POST("/events/:id/attachments", h.uploadAttachments)
	authed.GET("/attachments/url", h.presignAttachment)
	authed.POST("/admin/reconcile", h.triggerReconciliation)
	authed.GET("/export", h.exportEvents)
}

// requireToken checks the bearer token injected at construction time.
func (h *Handler) requireToken(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "unauthorized",
		})
		return
	}
	c.Next()
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// createEvent handles POST /events
func (h *Handler) createEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewEventResponse(*event))
}

// listEvents handles GET /events
func (h *Handler) listEvents(c *gin.Context) {
	var req dto.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid list events request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	page, err := h.eventService.List(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// getEvent handles GET /events/:id
func (h *Handler) getEvent(c *gin.Context) {
	id, ok := h.eventID(c)
	if !ok {
		return
	}

	event, err := h.eventService.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventResponse(*event))
}

// updateEvent handles PATCH /events/:id
func (h *Handler) updateEvent(c *gin.Context) {
	id, ok := h.eventID(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid update event request", zap.Int64("event_id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventResponse(*event))
}

// deleteEvent handles DELETE /events/:id
func (h *Handler) deleteEvent(c *gin.Context) {
	id, ok := h.eventID(c)
	if !ok {
		return
	}

	report, err := h.eventService.Delete(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// uploadAttachments handles POST /events/:id/attachments. Each file runs the
// upload saga independently; the first failure aborts the remainder.
func (h *Handler) uploadAttachments(c *gin.Context) {
	id, ok := h.eventID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "at least one file is required",
		})
		return
	}

	uploaded := make([]dto.AttachmentResponse, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
			return
		}

		att, err := h.attachments.Upload(c.Request.Context(), id, file,
			fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size)
		_ = file.Close()
		if err != nil {
			h.writeError(c, err)
			return
		}
		uploaded = append(uploaded, dto.NewAttachmentResponse(*att))
	}

	c.JSON(http.StatusCreated, uploaded)
}

// presignAttachment handles GET /attachments/url?key=...
func (h *Handler) presignAttachment(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "key is required",
		})
		return
	}

	expiry := time.Duration(0)
	if raw := c.Query("expiry_seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: "expiry_seconds must be a non-negative integer",
			})
			return
		}
		expiry = time.Duration(seconds) * time.Second
	}

	url, err := h.attachments.PresignGet(c.Request.Context(), key, expiry)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PresignURLResponse{URL: url})
}

// triggerReconciliation handles POST /admin/reconcile
func (h *Handler) triggerReconciliation(c *gin.Context) {
	report, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// exportEvents handles GET /export
func (h *Handler) exportEvents(c *gin.Context) {
	events, err := h.eventService.Export(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventResponses(events))
}

func (h *Handler) eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "id must be an integer",
		})
		return 0, false
	}
	return id, true
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case domain.IsLimitExceeded(err):
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
			Error:   "limit_exceeded",
			Message: err.Error(),
		})
	case domain.IsConflict(err):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case domain.IsStorage(err):
		h.log.Error("Object store failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "storage_error",
			Message: "object store unavailable",
		})
	default:
		h.log.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}
