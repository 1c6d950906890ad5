package services

import "errors"

// 服务层错误类别哨兵。具体服务用 fmt.Errorf("%w: 原因") 包装后返回，
// 控制器通过 errors.Is 映射到对应的错误码
var (
	// ErrInvalidRequest 请求无效：参数错误或缺少必要的关联（如用户不是分析师）
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound 房间/通话/排期不存在或已过期
	ErrNotFound = errors.New("not found")
	// ErrForbidden 身份不匹配，或当前状态不允许该操作
	ErrForbidden = errors.New("forbidden")
	// ErrConflict 对已终结资源的二次终结操作
	ErrConflict = errors.New("conflict")
)
