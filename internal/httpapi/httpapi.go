// Package httpapi exposes the contract archive over HTTP as gin
// handlers, grounded on document-chunker/main.go's gin.New plus manual
// CORS middleware and route-group layout.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"contractarchive/internal/errs"
	"contractarchive/internal/metrics"
	"contractarchive/internal/pipeline"
	"contractarchive/internal/qa"
	"contractarchive/internal/store"
	"contractarchive/internal/upload"
	"contractarchive/internal/vectorindex"
)

// Server wires every dependency the HTTP surface needs.
type Server struct {
	Store        *store.Store
	Orchestrator *pipeline.Orchestrator
	QA           *qa.Engine
	Blobs        *upload.Store
	VectorIndex  *vectorindex.Index
	MaxFileSize  int64
	SupportedExt []string
	CORSOrigins  []string
	Logger       *zap.Logger
	StartedAt    time.Time
}

// Router builds the gin engine with every route spec.md §6 names.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.ginLogger())
	r.Use(s.cors())
	r.Use(s.recordMetrics())

	api := r.Group("/api/v1")
	{
		contracts := api.Group("/contracts")
		{
			contracts.POST("/upload", s.uploadContract)
			contracts.GET("/", s.listContracts)
			contracts.GET("/:id", s.getContract)
			contracts.GET("/:id/download", s.downloadContract)
			contracts.DELETE("/:id", s.deleteContract)
			contracts.GET("/:id/ocr-status", s.ocrStatus)
			contracts.GET("/:id/content-status", s.contentStatus)
			contracts.GET("/:id/automated-status", s.automatedStatus)
			contracts.POST("/:id/process-ocr", s.processOCR)
			contracts.POST("/:id/process-content", s.processContent)
			contracts.POST("/:id/process-automated", s.processAutomated)
			contracts.GET("/:id/html-content", s.htmlContent)
			contracts.GET("/:id/content/chunks", s.listChunks)
			contracts.GET("/:id/content/search", s.searchContractChunks)

			es := contracts.Group("/elasticsearch")
			{
				es.GET("/status", s.esStatus)
				es.POST("/init", s.esInit)
				es.GET("/search", s.esSearch)
				es.POST("/:id/sync", s.esSyncOne)
				es.POST("/sync-all", s.esSyncAll)
				es.GET("/sync-status", s.esSyncStatus)
			}
		}

		qaGroup := api.Group("/qa")
		{
			qaGroup.POST("/ask", s.ask)
			qaGroup.GET("/sessions", s.listSessions)
			qaGroup.GET("/sessions/:sid", s.getSession)
			qaGroup.POST("/sessions/:sid/messages/:mid/feedback", s.setFeedback)
			qaGroup.DELETE("/sessions/:sid", s.deleteSession)
		}

		api.GET("/health", s.health)
		api.GET("/info", s.info)
		api.POST("/maintenance/clear-all", s.clearAll)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *Server) ginLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) cors() gin.HandlerFunc {
	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allow := origins[0]
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allow)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.HTTPRequestsTotal.WithLabelValues(c.FullPath(), c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// envelope is the {success, message, data} wrapper every response uses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	c.JSON(kind.HTTPStatus(), envelope{Success: false, Message: err.Error()})
}

func failWith(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

func zapErr(err error) zap.Field { return zap.Error(err) }

func zapField(key string, id int64) zap.Field { return zap.Int64(key, id) }
