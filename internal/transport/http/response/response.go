package response

import "github.com/gin-gonic/gin"

const (
	CodeOK              = 0
	CodeBadRequest      = 40000
	CodeEmptyQuestion   = 40001
	CodeUnauthorized    = 40100
	CodeInvalidToken    = 40101
	CodeNotFound        = 40400
	CodeTooManyRequests = 42900
	CodeQuotaExceeded   = 42901
	CodeInternalServer  = 50000
	CodeKnowledgeStore  = 50001
	CodeSigningFailed   = 50002
	CodeAIUnavailable   = 50300
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// Degraded reports an error code while still returning usable data.
func Degraded(c *gin.Context, httpStatus, code int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
