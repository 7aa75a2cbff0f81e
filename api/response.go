package api

import (
	"github.com/gin-gonic/gin"

	"github.com/khaledhikmat/vs-defect/model"
)

func respondError(c *gin.Context, err error) {
	de := model.AsDetectError(err)
	c.AbortWithStatusJSON(de.Status(), gin.H{
		"error": de.Message,
		"kind":  de.Kind,
	})
}

// respondBatchError also names the file that aborted the batch.
func respondBatchError(c *gin.Context, err error) {
	de := model.AsDetectError(err)
	body := gin.H{
		"error": de.Message,
		"kind":  de.Kind,
	}
	if de.Filename != "" {
		body["filename"] = de.Filename
	}
	c.AbortWithStatusJSON(de.Status(), body)
}
