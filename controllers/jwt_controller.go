package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"topvalidation-http-service/internal/error/code"
	"topvalidation-http-service/internal/error/response"
	"topvalidation-http-service/models"
	"topvalidation-http-service/services"
	"topvalidation-http-service/services/container"
	"topvalidation-http-service/utils"
)

// JWTController 处理身份验证请求
type JWTController struct {
	BaseControllerImpl
}

// NewJWTController 创建一个新的认证控制器
func (f *ControllerFactory) NewJWTController(ctx *gin.Context) *JWTController {
	return &JWTController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"analyst@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// RegisterCompanyRequest 表示企业注册请求
type RegisterCompanyRequest struct {
	Email       string `json:"email" binding:"required,email" example:"company@example.com"`
	Password    string `json:"password" binding:"required,min=8" example:"secret123"`
	FirstName   string `json:"first_name" binding:"required" example:"Jane"`
	LastName    string `json:"last_name" binding:"required" example:"Doe"`
	CompanyName string `json:"company_name" binding:"required" example:"Acme Corp"`
	Industry    string `json:"industry" example:"Fintech"`
	Website     string `json:"website" example:"https://acme.example.com"`
	Position    string `json:"position" example:"CFO"`
}

// RegisterAnalystRequest 表示分析师注册请求
type RegisterAnalystRequest struct {
	Email      string `json:"email" binding:"required,email" example:"analyst@example.com"`
	Password   string `json:"password" binding:"required,min=8" example:"secret123"`
	FirstName  string `json:"first_name" binding:"required" example:"John"`
	LastName   string `json:"last_name" binding:"required" example:"Smith"`
	Specialty  string `json:"specialty" example:"Equity research"`
	Bio        string `json:"bio" example:"Ten years covering emerging markets"`
	Experience int    `json:"experience" example:"10"`
}

// LoginResponse 表示登录响应
type LoginResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"Login successful"`
	Data    interface{} `json:"data"`
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"401"`
	Message string      `json:"message" example:"Invalid email or password"`
	Data    interface{} `json:"data"`
}

// HandleJWTFunc 返回一个处理认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewJWTController(ctx)

		switch method {
		case "login":
			controller.Login()
		case "registerCompany":
			controller.RegisterCompany()
		case "registerAnalyst":
			controller.RegisterAnalyst()
		default:
			response.Fail(ctx, code.ErrValidation, "无效的方法", nil)
		}
	}
}

// Login 处理用户登录
// @Summary      User Login
// @Description  Process user login and return JWT token with different permissions based on user role
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request parameters"
// @Success      200  {object}  LoginResponse  "Success response with token"
// @Failure      400  {object}  ErrorResponse  "Bad request"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		c.failWithCode(code.ErrBind, "无效的请求参数: "+err.Error())
		return
	}

	userService := c.Container.GetUserService()
	jwtService := c.Container.GetJWTService()

	user, err := userService.GetUserByEmail(req.Email)
	if err != nil {
		// 不区分用户不存在和密码错误
		c.failWithCode(code.ErrUserPasswordIncorrect, "")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.failWithCode(code.ErrUserPasswordIncorrect, "")
		return
	}

	token, err := jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		c.serverError(err)
		return
	}

	c.success("Login successful", gin.H{
		"token":      token,
		"user_id":    user.ID,
		"role":       user.Role,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}

// RegisterCompany 注册企业账户
// @Summary      Register Company
// @Description  Register a new company account with its profile
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterCompanyRequest true "Company registration parameters"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register/company [post]
func (c *JWTController) RegisterCompany() {
	var req RegisterCompanyRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		c.failWithCode(code.ErrBind, "无效的请求参数: "+err.Error())
		return
	}

	userService := c.Container.GetUserService()
	user := &models.User{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	profile := &models.Company{
		CompanyName: req.CompanyName,
		Industry:    req.Industry,
		Website:     req.Website,
		Position:    req.Position,
	}

	registered, err := userService.RegisterCompanyUser(user, profile)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.failWithCode(code.ErrUserAlreadyExist, err.Error())
			return
		}
		c.serverError(err)
		return
	}

	c.success("注册成功", registered)
}

// RegisterAnalyst 注册分析师账户
// @Summary      Register Analyst
// @Description  Register a new analyst account with its profile
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterAnalystRequest true "Analyst registration parameters"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register/analyst [post]
func (c *JWTController) RegisterAnalyst() {
	var req RegisterAnalystRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		c.failWithCode(code.ErrBind, "无效的请求参数: "+err.Error())
		return
	}

	userService := c.Container.GetUserService()
	user := &models.User{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	profile := &models.Analyst{
		Specialty:  req.Specialty,
		Bio:        req.Bio,
		Experience: req.Experience,
	}

	registered, err := userService.RegisterAnalystUser(user, profile)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.failWithCode(code.ErrUserAlreadyExist, err.Error())
			return
		}
		c.serverError(err)
		return
	}

	c.success("注册成功", registered)
}
