package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"topvalidation-http-service/internal/error/code"
	"topvalidation-http-service/internal/error/response"
	"topvalidation-http-service/models"
	"topvalidation-http-service/services"
	"topvalidation-http-service/services/container"
)

// MeetingController 处理视频会议生命周期相关的请求
type MeetingController struct {
	BaseControllerImpl
}

// NewMeetingController 创建一个新的会议控制器
func (f *ControllerFactory) NewMeetingController(ctx *gin.Context) *MeetingController {
	return &MeetingController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// SignalRequest 表示HTTP信令转发请求
type SignalRequest struct {
	Type   string          `json:"type" binding:"required" example:"offer"` // offer/answer/ice-candidate
	Signal json.RawMessage `json:"signal" binding:"required"`
	From   string          `json:"from" example:"d8f1..."` // 发送方连接ID，转发时跳过
}

// meetingError 把服务层错误映射为统一的错误响应
func (c *MeetingController) meetingError(err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.failWithCode(code.ErrMeetingNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		c.failWithCode(code.ErrMeetingForbidden, err.Error())
	case errors.Is(err, services.ErrConflict):
		c.failWithCode(code.ErrMeetingEnded, err.Error())
	case errors.Is(err, services.ErrInvalidRequest):
		c.failWithCode(code.ErrMeetingInvalidRequest, err.Error())
	default:
		c.serverError(err)
	}
}

// HandleMeetingFunc 返回一个处理会议请求的Gin处理函数
func HandleMeetingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewMeetingController(ctx)

		switch method {
		case "initialize":
			controller.InitializeMeeting()
		case "join":
			controller.JoinMeeting()
		case "validate":
			controller.ValidateMeeting()
		case "signal":
			controller.HandleSignal()
		case "end":
			controller.EndMeeting()
		default:
			response.Fail(ctx, code.ErrValidation, "无效的方法", nil)
		}
	}
}

// InitializeMeeting 分析师初始化会议
// @Summary      Initialize Meeting
// @Description  Analyst starts their oldest waiting video call; transitions the call to CONNECTED
// @Tags         Meeting
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /meetings/initialize [post]
func (c *MeetingController) InitializeMeeting() {
	analystID := c.Context.GetString("userID")

	call, err := c.Container.GetMeetingService().InitializeMeeting(analystID)
	if err != nil {
		c.meetingError(err)
		return
	}

	c.success("会议初始化成功", call)
}

// JoinMeeting 企业加入会议
// @Summary      Join Meeting
// @Description  Company joins its scheduled meeting room; returns waiting or connected state
// @Tags         Meeting
// @Produce      json
// @Param        roomId path string true "Room ID" example:"room_a1b2c3"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /meetings/{roomId}/join [post]
func (c *MeetingController) JoinMeeting() {
	roomID := c.Context.Param("roomId")
	companyID := c.Context.GetString("userID")

	result, err := c.Container.GetMeetingService().JoinMeeting(companyID, roomID)
	if err != nil {
		c.meetingError(err)
		return
	}

	c.success("", result)
}

// ValidateMeeting 校验会议房间
// @Summary      Validate Meeting
// @Description  Check that a meeting room exists, has not expired and is in WAITING or CONNECTED state
// @Tags         Meeting
// @Produce      json
// @Param        roomId path string true "Room ID" example:"room_a1b2c3"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /meetings/{roomId}/validate [get]
func (c *MeetingController) ValidateMeeting() {
	roomID := c.Context.Param("roomId")

	call, err := c.Container.GetMeetingService().ValidateMeeting(roomID)
	if err != nil {
		c.meetingError(err)
		return
	}

	c.success("", gin.H{
		"valid":      true,
		"video_call": call,
	})
}

// HandleSignal 转发信令消息
// @Summary      Relay Signal
// @Description  Relay a WebRTC negotiation message to the other participants of a connected meeting
// @Tags         Meeting
// @Accept       json
// @Produce      json
// @Param        roomId path string true "Room ID" example:"room_a1b2c3"
// @Param        request body SignalRequest true "Signal payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /meetings/{roomId}/signal [post]
func (c *MeetingController) HandleSignal() {
	roomID := c.Context.Param("roomId")

	var req SignalRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		c.failWithCode(code.ErrBind, "无效的请求参数: "+err.Error())
		return
	}

	signalType, err := models.ParseSignalType(req.Type)
	if err != nil {
		c.failWithCode(code.ErrSignalTypeInvalid, err.Error())
		return
	}

	msg := &models.SignalMessage{
		Type:   signalType,
		Signal: req.Signal,
		From:   req.From,
	}
	if err := c.Container.GetMeetingService().HandleSignal(roomID, msg); err != nil {
		c.meetingError(err)
		return
	}

	c.success("信令已转发", nil)
}

// EndMeeting 结束会议
// @Summary      End Meeting
// @Description  End a connected meeting: the call becomes ENDED and its schedule COMPLETED in one transaction
// @Tags         Meeting
// @Produce      json
// @Param        roomId path string true "Room ID" example:"room_a1b2c3"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /meetings/{roomId}/end [post]
func (c *MeetingController) EndMeeting() {
	roomID := c.Context.Param("roomId")

	if err := c.Container.GetMeetingService().EndMeeting(roomID); err != nil {
		c.meetingError(err)
		return
	}

	c.success("会议已结束", nil)
}
