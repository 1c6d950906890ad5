package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"topvalidation-http-service/internal/error/code"
)

// Response 定义统一的响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, message string, data interface{}) {
	if message == "" {
		message = "成功"
	}
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应，消息为空时按错误码取默认消息
func Fail(c *gin.Context, errorCode int, message string, data interface{}) {
	if message == "" {
		message = code.GetMessage(errorCode)
	}
	c.JSON(code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: message,
		Data:    data,
	})
}
