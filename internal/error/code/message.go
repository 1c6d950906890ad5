package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:          "成功",
	ErrUnknown:          "未知错误",
	ErrBind:             "请求参数绑定错误",
	ErrValidation:       "请求参数验证错误",
	ErrTokenInvalid:     "无效的认证令牌",
	ErrTooManyRequests:  "请求频率过高",
	ErrPermissionDenied: "当前角色无权访问",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",
	ErrUserRoleInvalid:       "用户角色不符",

	// 排期相关错误码
	ErrScheduleNotFound:      "排期不存在",
	ErrScheduleConflict:      "该时间段已有排期",
	ErrScheduleAssigned:      "排期已被分析师接受",
	ErrScheduleStatusInvalid: "排期状态不允许该操作",

	// 会议相关错误码
	ErrMeetingNotFound:       "会议不存在或已过期",
	ErrMeetingForbidden:      "无权参与该会议",
	ErrMeetingInvalidRequest: "会议请求无效",
	ErrMeetingEnded:          "会议已结束",
	ErrSignalTypeInvalid:     "信令类型无效",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:          StatusOK,
	ErrUnknown:          StatusInternalServerError,
	ErrBind:             StatusBadRequest,
	ErrValidation:       StatusBadRequest,
	ErrTokenInvalid:     StatusUnauthorized,
	ErrTooManyRequests:  StatusTooManyRequests,
	ErrPermissionDenied: StatusForbidden,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrUserRoleInvalid:       StatusBadRequest,

	// 排期相关错误码
	ErrScheduleNotFound:      StatusNotFound,
	ErrScheduleConflict:      StatusConflict,
	ErrScheduleAssigned:      StatusBadRequest,
	ErrScheduleStatusInvalid: StatusBadRequest,

	// 会议相关错误码
	ErrMeetingNotFound:       StatusNotFound,
	ErrMeetingForbidden:      StatusForbidden,
	ErrMeetingInvalidRequest: StatusBadRequest,
	ErrMeetingEnded:          StatusConflict,
	ErrSignalTypeInvalid:     StatusBadRequest,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}
