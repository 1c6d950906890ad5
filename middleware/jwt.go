package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"topvalidation-http-service/config"
	"topvalidation-http-service/internal/error/code"
	"topvalidation-http-service/internal/error/response"
	"topvalidation-http-service/models"
	"topvalidation-http-service/services"
)

var jwtService services.InterfaceJWTService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config) {
	jwtService = services.NewJWTService(cfg)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// authenticate 验证令牌并检查角色。
// allowedRoles为空时任何有效角色都可通过；管理员始终可通过
func authenticate(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := extractToken(authHeader)
		if tokenString == "" {
			// WebSocket握手无法携带授权头，退回到查询参数
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			response.Fail(c, code.ErrTokenInvalid, "Authorization header is required", nil)
			c.Abort()
			return
		}

		token, err := jwtService.ValidateToken(tokenString)
		if err != nil || !token.Valid {
			response.Fail(c, code.ErrTokenInvalid, "Invalid or expired token", nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Fail(c, code.ErrTokenInvalid, "Invalid token claims", nil)
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)
		if !roleAllowed(models.Role(role), allowedRoles) {
			response.Fail(c, code.ErrPermissionDenied, "Insufficient permissions", nil)
			c.Abort()
			return
		}

		userID, _ := claims["user_id"].(string)
		c.Set("userID", userID)
		c.Set("role", role)
		c.Set("claims", claims)
		c.Next()
	}
}

// roleAllowed 检查角色是否在允许列表中
func roleAllowed(role models.Role, allowed []models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleCompany, models.RoleAnalyst:
	default:
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	// 管理员可以访问所有接口
	if role == models.RoleAdmin {
		return true
	}
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// AuthenticateUser 验证任意已登录用户
func AuthenticateUser() gin.HandlerFunc {
	return authenticate()
}

// AuthenticateAnalyst 验证分析师权限
func AuthenticateAnalyst() gin.HandlerFunc {
	return authenticate(models.RoleAnalyst)
}

// AuthenticateCompany 验证企业权限
func AuthenticateCompany() gin.HandlerFunc {
	return authenticate(models.RoleCompany)
}

// AuthenticateAdmin 验证管理员权限
func AuthenticateAdmin() gin.HandlerFunc {
	return authenticate(models.RoleAdmin)
}
