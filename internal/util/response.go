package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of a successful reply.
type Response map[string]interface{}

// Business codes carried next to the HTTP status.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeNotFound     = 40401
	CodeServerErr    = 50001
	// CodePartial flags an operation that half-succeeded, e.g. account
	// created but profile setup failed.
	CodePartial = 20601
)

// Success writes the uniform success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the uniform error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// Partial reports a half-succeeded operation: HTTP 200 with a partial code,
// a user-facing message and whatever data did get produced.
func Partial(c *gin.Context, msg string, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code":    CodePartial,
		"message": msg,
		"data":    data,
	})
}
