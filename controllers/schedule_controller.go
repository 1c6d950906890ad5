package controllers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"topvalidation-http-service/internal/error/code"
	"topvalidation-http-service/internal/error/response"
	"topvalidation-http-service/models"
	"topvalidation-http-service/services"
	"topvalidation-http-service/services/container"
)

// ScheduleController 处理咨询排期相关的请求
type ScheduleController struct {
	BaseControllerImpl
}

// NewScheduleController 创建一个新的排期控制器
func (f *ControllerFactory) NewScheduleController(ctx *gin.Context) *ScheduleController {
	return &ScheduleController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// CreateScheduleRequest 表示创建排期请求
type CreateScheduleRequest struct {
	Date      string `json:"date" binding:"required" example:"2025-10-01"`      // 格式 2006-01-02
	StartTime string `json:"start_time" binding:"required" example:"09:00"`     // 格式 15:04
	EndTime   string `json:"end_time" binding:"required" example:"10:00"`       // 格式 15:04
}

// UpdateScheduleStatusRequest 表示分析师更新排期状态的请求
type UpdateScheduleStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED REJECTED" example:"CONFIRMED"`
}

// scheduleError 把服务层错误映射为统一的错误响应
func (c *ScheduleController) scheduleError(err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.failWithCode(code.ErrScheduleNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		c.failWithCode(code.ErrScheduleConflict, err.Error())
	case errors.Is(err, services.ErrInvalidRequest):
		c.failWithCode(code.ErrValidation, err.Error())
	default:
		c.serverError(err)
	}
}

// HandleScheduleFunc 返回一个处理排期请求的Gin处理函数
func HandleScheduleFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewScheduleController(ctx)

		switch method {
		case "create":
			controller.CreateSchedule()
		case "updateStatus":
			controller.UpdateScheduleStatus()
		case "getAvailable":
			controller.GetAvailableSchedules()
		case "getMine":
			controller.GetMySchedules()
		case "getClosest":
			controller.GetClosestSchedule()
		case "getAll":
			controller.GetAllSchedules()
		case "delete":
			controller.DeleteSchedule()
		default:
			response.Fail(ctx, code.ErrValidation, "无效的方法", nil)
		}
	}
}

// CreateSchedule 企业创建排期
// @Summary      Create Schedule
// @Description  Create a new consultation schedule request for the authenticated company
// @Tags         Schedule
// @Accept       json
// @Produce      json
// @Param        request body CreateScheduleRequest true "Schedule information"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules [post]
func (c *ScheduleController) CreateSchedule() {
	var req CreateScheduleRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		c.failWithCode(code.ErrBind, "无效的请求参数: "+err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.failWithCode(code.ErrValidation, "无效的日期格式，应为 2006-01-02")
		return
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		c.failWithCode(code.ErrValidation, "无效的时间格式，应为 15:04")
		return
	}

	companyID := c.Context.GetString("userID")
	schedule, err := c.Container.GetScheduleService().CreateSchedule(companyID, date, req.StartTime, req.EndTime)
	if err != nil {
		c.scheduleError(err)
		return
	}

	c.success("排期创建成功", schedule)
}

// UpdateScheduleStatus 分析师接受或拒绝排期
// @Summary      Update Schedule Status
// @Description  Analyst accepts (CONFIRMED) or rejects (REJECTED) a pending schedule; accepting creates the video call room
// @Tags         Schedule
// @Accept       json
// @Produce      json
// @Param        id path string true "Schedule ID"
// @Param        request body UpdateScheduleStatusRequest true "Target status"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules/{id}/status [patch]
func (c *ScheduleController) UpdateScheduleStatus() {
	scheduleID := c.Context.Param("id")

	var req UpdateScheduleStatusRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		c.failWithCode(code.ErrBind, "无效的请求参数: "+err.Error())
		return
	}

	analystID := c.Context.GetString("userID")
	schedule, err := c.Container.GetScheduleService().
		UpdateScheduleStatus(scheduleID, analystID, models.ScheduleStatus(req.Status))
	if err != nil {
		c.scheduleError(err)
		return
	}

	c.success("排期状态更新成功", schedule)
}

// GetAvailableSchedules 获取所有待接受排期
// @Summary      Get Available Schedules
// @Description  List pending schedules not yet claimed by any analyst
// @Tags         Schedule
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules/available [get]
func (c *ScheduleController) GetAvailableSchedules() {
	schedules, err := c.Container.GetScheduleService().GetAvailableSchedules()
	if err != nil {
		c.serverError(err)
		return
	}
	c.success("", schedules)
}

// GetMySchedules 获取当前用户自己的排期
// @Summary      Get My Schedules
// @Description  List schedules belonging to the authenticated company or analyst
// @Tags         Schedule
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules/me [get]
func (c *ScheduleController) GetMySchedules() {
	userID := c.Context.GetString("userID")
	role := c.Context.GetString("role")

	scheduleService := c.Container.GetScheduleService()

	var schedules []models.Schedule
	var err error
	switch models.Role(role) {
	case models.RoleAnalyst:
		schedules, err = scheduleService.GetAnalystSchedules(userID)
	case models.RoleCompany:
		schedules, err = scheduleService.GetCompanySchedules(userID)
	default:
		c.failWithCode(code.ErrUserRoleInvalid, "")
		return
	}
	if err != nil {
		c.serverError(err)
		return
	}
	c.success("", schedules)
}

// GetClosestSchedule 获取分析师最近的排期
// @Summary      Get Closest Schedule
// @Description  Get the authenticated analyst's nearest upcoming schedule
// @Tags         Schedule
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules/closest [get]
func (c *ScheduleController) GetClosestSchedule() {
	analystID := c.Context.GetString("userID")
	schedule, err := c.Container.GetScheduleService().GetClosestSchedule(analystID)
	if err != nil {
		c.scheduleError(err)
		return
	}
	c.success("", schedule)
}

// GetAllSchedules 获取所有排期
// @Summary      Get All Schedules
// @Description  Get a paginated list of all schedules in the system (admin only)
// @Tags         Schedule
// @Produce      json
// @Param        page query int false "Page number, default is 1" example:"1"
// @Param        page_size query int false "Items per page, default is 10" example:"10"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules [get]
func (c *ScheduleController) GetAllSchedules() {
	var query models.PaginationQuery
	if err := c.Context.ShouldBindQuery(&query); err != nil {
		c.failWithCode(code.ErrBind, "无效的分页参数: "+err.Error())
		return
	}
	query.Normalize()

	schedules, total, err := c.Container.GetScheduleService().GetAllSchedules(query.Page, query.PageSize)
	if err != nil {
		c.serverError(err)
		return
	}

	c.success("", gin.H{
		"schedules":  schedules,
		"pagination": models.NewPaginationResult(total, query.Page, query.PageSize),
	})
}

// DeleteSchedule 删除排期
// @Summary      Delete Schedule
// @Description  Delete a schedule by ID (admin only)
// @Tags         Schedule
// @Produce      json
// @Param        id path string true "Schedule ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /schedules/{id} [delete]
func (c *ScheduleController) DeleteSchedule() {
	scheduleID := c.Context.Param("id")
	if err := c.Container.GetScheduleService().DeleteSchedule(scheduleID); err != nil {
		c.scheduleError(err)
		return
	}
	c.success("排期删除成功", nil)
}

// validClock 校验 15:04 形式的时间串
func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
