package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "docchat"
	serviceVersion = "1.0.0"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": serviceName + " API", "version": serviceVersion})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
