package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khaledhikmat/vs-defect/service/config"
	"github.com/khaledhikmat/vs-defect/service/detection"
)

const (
	fieldImage = "image"
	fieldFiles = "files"
)

type handler struct {
	CfgSvc       config.IService
	DetectionSvc detection.IService
}

// New builds the HTTP surface of the detector. The engine is safe to serve
// concurrently; all state lives in the detection service.
func New(cfgSvc config.IService, detectionSvc detection.IService) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = cfgSvc.GetMaxUploadBytes()

	r.Use(
		requestID(),
		traceContext(),
		accessLog(),
		recovery(),
		cors(cfgSvc.GetCorsAllowedOrigin()),
		bodyLimit(cfgSvc.GetMaxUploadBytes()),
	)

	h := &handler{
		CfgSvc:       cfgSvc,
		DetectionSvc: detectionSvc,
	}

	r.POST("/detect", h.detect)
	r.POST("/upload", h.upload)
	r.GET("/health", h.health)
	r.GET("/stats", h.stats)
	r.GET("/labels", h.labels)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	return r
}
