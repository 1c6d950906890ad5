package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 资源状态冲突.
	StatusConflict = 409
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
	// ErrPermissionDenied - 403: 当前角色无权访问.
	ErrPermissionDenied
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrUserRoleInvalid - 400: 用户角色不符.
	ErrUserRoleInvalid
)

// 排期相关错误码 (102xxx).
const (
	// ErrScheduleNotFound - 404: 排期不存在.
	ErrScheduleNotFound int = iota + 102000
	// ErrScheduleConflict - 409: 排期时间冲突.
	ErrScheduleConflict
	// ErrScheduleAssigned - 400: 排期已被分析师接受.
	ErrScheduleAssigned
	// ErrScheduleStatusInvalid - 400: 排期状态不允许该操作.
	ErrScheduleStatusInvalid
)

// 会议相关错误码 (103xxx).
const (
	// ErrMeetingNotFound - 404: 会议不存在或已过期.
	ErrMeetingNotFound int = iota + 103000
	// ErrMeetingForbidden - 403: 无权参与该会议.
	ErrMeetingForbidden
	// ErrMeetingInvalidRequest - 400: 会议请求无效.
	ErrMeetingInvalidRequest
	// ErrMeetingEnded - 409: 会议已结束.
	ErrMeetingEnded
	// ErrSignalTypeInvalid - 400: 信令类型无效.
	ErrSignalTypeInvalid
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)

// GetMessage 根据错误码获取消息
func GetMessage(errorCode int) string {
	if message, ok := codeMessageMap[errorCode]; ok {
		return message
	}
	return codeMessageMap[ErrUnknown]
}

// GetStatus 根据错误码获取HTTP状态码
func GetStatus(errorCode int) int {
	if status, ok := codeStatusMap[errorCode]; ok {
		return status
	}
	return StatusInternalServerError
}
