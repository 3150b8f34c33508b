package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func notFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, "NOT_FOUND", message)
}

func internalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}
