package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"feedback_rag/internal/config"
	"feedback_rag/internal/retriever"
	"feedback_rag/internal/telemetry"
)

// Service - то, что HTTP слою нужно от приложения
type Service interface {
	Ready() bool
	Search(ctx context.Context, query string, topK int) (retriever.Result, error)
	Answer(ctx context.Context, question string, comments []string) (string, error)
}

type ChatRequest struct {
	Pregunta string `json:"pregunta" binding:"required"`
}

type ChatResponse struct {
	Pregunta            string   `json:"pregunta" yaml:"pregunta"`
	SeccionDetectada    *string  `json:"seccion_detectada" yaml:"seccion_detectada"`
	RespuestasSimilares []string `json:"respuestas_similares" yaml:"respuestas_similares"`
	RespuestaGenerada   string   `json:"respuesta_generada" yaml:"respuesta_generada"`
}

// NewRouter собирает gin роутер со всеми middleware
func NewRouter(cfg *config.Config, svc Service, metrics *telemetry.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(CORS(cfg.CORSOrigins))
	router.Use(Tracing())
	if metrics != nil {
		router.Use(Metrics(metrics))
	}
	router.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	router.Use(Timeout(cfg.RequestTimeout))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	router.GET("/ready", func(c *gin.Context) {
		if !svc.Ready() {
			respondWithError(c, http.StatusServiceUnavailable, "index_not_ready", "Index is still being built")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.POST("/chat", chatHandler(svc, cfg.TopK))

	return router
}

func chatHandler(svc Service, topK int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Pregunta) == "" {
			respondWithError(c, http.StatusBadRequest, "invalid_request", "Field 'pregunta' is required")
			return
		}

		if !svc.Ready() {
			respondWithError(c, http.StatusServiceUnavailable, "index_not_ready", "Index is still being built")
			return
		}

		ctx := c.Request.Context()
		log.Printf("💬 [%s] %q", GetRequestID(c), req.Pregunta)

		result, err := svc.Search(ctx, req.Pregunta, topK)
		if err != nil {
			if errors.Is(err, ErrNotReady) {
				respondWithError(c, http.StatusServiceUnavailable, "index_not_ready", "Index is still being built")
				return
			}
			log.Printf("❌ [%s] Search error: %v", GetRequestID(c), err)
			respondWithError(c, http.StatusBadGateway, "retrieval_failed", "Failed to search customer comments")
			return
		}

		answer, err := svc.Answer(ctx, req.Pregunta, result.Documents)
		if err != nil {
			log.Printf("❌ [%s] LLM error: %v", GetRequestID(c), err)
			respondWithError(c, http.StatusBadGateway, "generation_failed", "Failed to generate an answer")
			return
		}

		c.JSON(http.StatusOK, ChatResponse{
			Pregunta:            req.Pregunta,
			SeccionDetectada:    result.Section,
			RespuestasSimilares: result.Documents,
			RespuestaGenerada:   answer,
		})
	}
}

func respondWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error_code": code,
		"message":    message,
	})
}
