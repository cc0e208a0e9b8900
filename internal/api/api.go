package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"crypto-reporter/internal/database"
	"crypto-reporter/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// StatusProvider is the read side of the scheduler.
type StatusProvider interface {
	LastRun() (models.CycleRun, bool)
	LatestAnalysis() (*models.AnalysisResult, bool)
	ReportPath() string
}

type APIHandler struct {
	status   StatusProvider
	recorder database.Recorder
}

// NewRouter builds the read-only status API.
func NewRouter(status StatusProvider, recorder database.Recorder) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(r.Group("/api/v1"), status, recorder)
	return r
}

func SetupRoutes(r *gin.RouterGroup, status StatusProvider, recorder database.Recorder) *APIHandler {
	handler := &APIHandler{
		status:   status,
		recorder: recorder,
	}

	r.GET("/status", handler.GetStatus)
	r.GET("/analysis", handler.GetAnalysis)
	r.GET("/report", handler.DownloadReport)
	r.GET("/runs", handler.ListRuns)

	return handler
}

func (h *APIHandler) GetStatus(c *gin.Context) {
	run, ok := h.status.LastRun()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has run yet"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *APIHandler) GetAnalysis(c *gin.Context) {
	result, ok := h.status.LatestAnalysis()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no analysis available"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) DownloadReport(c *gin.Context) {
	path := h.status.ReportPath()
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not written yet"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *APIHandler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxRunsLimit {
			n = maxRunsLimit
		}
		limit = n
	}

	runs, err := h.recorder.RecentCycles(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []models.CycleRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}
