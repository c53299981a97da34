package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guiyumin/vget/internal/core/stream"
)

// StreamInfoRequest is the request body for POST /api/stream/info.
type StreamInfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// StreamDownloadRequest is the request body for POST /api/stream/download.
type StreamDownloadRequest struct {
	URL      string `json:"url" binding:"required"`
	FormatId string `json:"format_id" binding:"required"`
}

func (s *Server) registerStreamRoutes(api *gin.RouterGroup) {
	api.POST("/stream/info", s.handleStreamInfo)
	api.POST("/stream/download", s.handleStreamDownload)
	api.GET("/stream/status/:id", s.handleStreamStatus)
	api.GET("/stream/jobs", s.handleStreamJobs)
	api.DELETE("/stream/jobs/:id", s.handleStreamCancel)
	api.GET("/stream/version", s.handleStreamVersion)
}

func (s *Server) handleStreamInfo(c *gin.Context) {
	var req StreamInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "invalid request body: url is required"})
		return
	}

	collector := stream.NewMetadataCollector(s.streamCfg)
	collector.RunAsync(req.URL)

	ev := <-collector.Events()
	if ev.Err != "" {
		c.JSON(http.StatusBadGateway, Response{Code: 502, Message: ev.Err})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"streams": ev.Collected},
		Message: "ok",
	})
}

func (s *Server) handleStreamDownload(c *gin.Context) {
	var req StreamDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "invalid request body: url and format_id are required"})
		return
	}

	job, err := s.streamQueue.AddJob(req.URL, req.FormatId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    gin.H{"id": job.ID, "status": job.Status},
		Message: "download started",
	})
}

func (s *Server) handleStreamStatus(c *gin.Context) {
	id := c.Param("id")
	job := s.streamQueue.GetJob(id)
	if job == nil {
		c.JSON(http.StatusNotFound, Response{Code: 404, Message: "job not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Code: 200, Data: job, Message: string(job.Status)})
}

func (s *Server) handleStreamJobs(c *gin.Context) {
	jobs := s.streamQueue.GetAllJobs()
	c.JSON(http.StatusOK, Response{Code: 200, Data: gin.H{"jobs": jobs}, Message: "ok"})
}

func (s *Server) handleStreamCancel(c *gin.Context) {
	id := c.Param("id")
	if !s.streamQueue.CancelJob(id) {
		c.JSON(http.StatusNotFound, Response{Code: 404, Message: "job not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Code: 200, Message: "cancel requested"})
}

func (s *Server) handleStreamVersion(c *gin.Context) {
	v := stream.Version(s.streamCfg)
	c.JSON(http.StatusOK, Response{Code: 200, Data: gin.H{"version": v}, Message: "ok"})
}
