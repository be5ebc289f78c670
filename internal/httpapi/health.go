package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	checks := gin.H{}

	dbErr := s.Store.Ping(c.Request.Context())
	checks["database"] = dbErr == nil

	esErr := s.Orchestrator.FTIndex.Health(c.Request.Context())
	checks["elasticsearch"] = esErr == nil

	healthy := dbErr == nil
	status := "ok"
	if !healthy {
		status = "degraded"
	}

	ok(c, "健康检查完成", gin.H{
		"status":  status,
		"checks":  checks,
		"uptime_s": int64(time.Since(s.StartedAt).Seconds()),
	})
}

func (s *Server) info(c *gin.Context) {
	ok(c, "服务信息", gin.H{
		"service":        "contract-archive",
		"vector_total":   s.VectorIndex.Total(),
		"started_at":     s.StartedAt.Format(time.RFC3339),
		"supported_exts": s.SupportedExt,
		"max_file_size":  s.MaxFileSize,
	})
}

// clearAll empties the vector index and persists the empty mapping, for
// local development. With reset_indices=true it also makes sure the
// full-text indices exist; documents already in them are not deleted.
func (s *Server) clearAll(c *gin.Context) {
	resetIndices := c.Query("reset_indices") == "true"

	s.VectorIndex.ClearMapping()
	if err := s.VectorIndex.Save(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}

	if resetIndices {
		if err := s.Orchestrator.FTIndex.EnsureIndices(c.Request.Context()); err != nil {
			s.Logger.Warn("clear-all: ensure indices failed", zapErr(err))
		}
	}

	ok(c, "状态已重置", nil)
}
