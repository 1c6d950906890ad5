package controllers

import (
	"github.com/gin-gonic/gin"

	"topvalidation-http-service/internal/error/code"
	"topvalidation-http-service/internal/error/response"
	"topvalidation-http-service/services/container"
)

// BaseController 是所有控制器的基础接口
type BaseController interface {
	// 获取服务容器
	GetContainer() *container.ServiceContainer
	// 获取Gin上下文
	GetContext() *gin.Context
}

// BaseControllerImpl 是控制器的基础实现
type BaseControllerImpl struct {
	Container *container.ServiceContainer
	Context   *gin.Context
}

// GetContainer 实现 BaseController 接口
func (c *BaseControllerImpl) GetContainer() *container.ServiceContainer {
	return c.Container
}

// GetContext 实现 BaseController 接口
func (c *BaseControllerImpl) GetContext() *gin.Context {
	return c.Context
}

// ControllerFactory 用于创建控制器的工厂
type ControllerFactory struct {
	Container *container.ServiceContainer
}

// NewControllerFactory 创建一个新的控制器工厂
func NewControllerFactory(container *container.ServiceContainer) *ControllerFactory {
	return &ControllerFactory{
		Container: container,
	}
}

// failWithCode 按错误码返回统一格式的错误响应，消息取服务层给出的原因
func (c *BaseControllerImpl) failWithCode(errorCode int, message string) {
	response.Fail(c.Context, errorCode, message, nil)
}

// serverError 返回500响应
func (c *BaseControllerImpl) serverError(err error) {
	response.Fail(c.Context, code.ErrDatabase, "服务器内部错误: "+err.Error(), nil)
}

// success 返回成功响应
func (c *BaseControllerImpl) success(message string, data interface{}) {
	response.Success(c.Context, message, data)
}
