package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"tweet-agent/internal/domain"
	"tweet-agent/internal/logging"
	"tweet-agent/internal/usecase"
)

// PostUseCase publishes caller-supplied text.
type PostUseCase interface {
	Execute(ctx context.Context, rawText string) (domain.PublishedPost, error)
}

// AgentUseCase generates and optionally publishes text.
type AgentUseCase interface {
	Run(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

type postRequest struct {
	Text *string `json:"text" binding:"required"`
}

type agentRequest struct {
	Topic           *string `json:"topic" binding:"required"`
	Style           *string `json:"style"`
	IncludeHashtags *bool   `json:"includeHashtags"`
	MaxChars        *int    `json:"maxChars"`
	DryRun          *bool   `json:"dryRun"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const invalidBodyMessage = "Invalid body"

// unavailablePattern flags failures whose message points at a missing or
// broken model even when they carry no error code.
var unavailablePattern = regexp.MustCompile(`(?i)OPENAI_API_KEY|model|agent`)

type Handler struct {
	poster  PostUseCase
	agent   AgentUseCase
	logger  logging.Logger
	metrics *Metrics
	router  *gin.Engine
}

type Option func(*Handler)

func WithLogger(l logging.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func NewHandler(poster PostUseCase, agent AgentUseCase, opts ...Option) (*Handler, error) {
	if poster == nil {
		return nil, errors.New("handler: post use case must not be nil")
	}
	if agent == nil {
		return nil, errors.New("handler: agent use case must not be nil")
	}
	h := &Handler{
		poster: poster,
		agent:  agent,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.router = h.newRouter()
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(recoveryMiddleware(h.logger))
	r.Use(correlationMiddleware())
	r.Use(loggingMiddleware(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.middleware())
		r.GET("/metrics", h.metrics.handler())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/tweets", h.postTweet)
	r.POST("/tweets/agent", h.runAgent)
	return r
}

func (h *Handler) postTweet(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.requestLogger(c).WithError(err).Debug("Rejected tweet body")
		c.JSON(http.StatusBadRequest, errorResponse{Message: invalidBodyMessage, Code: string(usecase.ErrorInvalidInput)})
		return
	}

	post, err := h.poster.Execute(c.Request.Context(), *req.Text)
	if err != nil {
		h.writeError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) runAgent(c *gin.Context) {
	var body agentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.requestLogger(c).WithError(err).Debug("Rejected agent body")
		c.JSON(http.StatusBadRequest, errorResponse{Message: invalidBodyMessage, Code: string(usecase.ErrorInvalidInput)})
		return
	}
	req, ok := body.toDomain()
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Message: invalidBodyMessage, Code: string(usecase.ErrorInvalidInput)})
		return
	}

	result, err := h.agent.Run(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, agentErrorStatus(err))
		return
	}
	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// toDomain applies the field rules JSON decoding cannot express.
func (r agentRequest) toDomain() (domain.GenerationRequest, bool) {
	req := domain.GenerationRequest{Topic: *r.Topic}
	if r.Style != nil {
		req.Style = domain.Style(*r.Style)
		if req.Style == "" || !req.Style.Valid() {
			return domain.GenerationRequest{}, false
		}
	}
	if r.MaxChars != nil {
		if *r.MaxChars <= 0 {
			return domain.GenerationRequest{}, false
		}
		req.MaxChars = *r.MaxChars
	}
	if r.IncludeHashtags != nil {
		req.IncludeHashtags = *r.IncludeHashtags
	}
	if r.DryRun != nil {
		req.DryRun = *r.DryRun
	}
	return req, true
}

func agentErrorStatus(err error) int {
	if code, ok := usecase.CodeOf(err); ok && code == usecase.ErrorGenerationUnavailable {
		return http.StatusServiceUnavailable
	}
	if unavailablePattern.MatchString(errorMessage(err)) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func errorMessage(err error) string {
	var ue *usecase.Error
	if errors.As(err, &ue) {
		return ue.Message()
	}
	return err.Error()
}

func (h *Handler) writeError(c *gin.Context, err error, status int) {
	resp := errorResponse{Message: errorMessage(err)}
	if code, ok := usecase.CodeOf(err); ok {
		resp.Code = string(code)
	}
	entry := h.requestLogger(c).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}
	c.JSON(status, resp)
}

func (h *Handler) requestLogger(c *gin.Context) logging.Logger {
	return h.logger.WithField("correlation_id", c.GetString(correlationKey))
}
