package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 全局错误分类 ──
// 各 Service 的业务错误用 fmt.Errorf("%w: ...") 包装到这些分类上，
// Handler 层用 errors.Is 统一映射为 HTTP 状态码

var (
	// ErrUnauthenticated 调用方身份缺失
	ErrUnauthenticated = errors.New("未认证")
	// ErrPermissionDenied 身份存在但角色不足
	ErrPermissionDenied = errors.New("无权限执行此操作")
	// ErrInvalidArgument 必填字段缺失或格式错误
	ErrInvalidArgument = errors.New("参数无效")
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrFailedPrecondition 状态机守卫失败（状态已不是预期值）
	ErrFailedPrecondition = errors.New("记录状态已变化，操作被拒绝")
	// ErrAlreadyExists 唯一性冲突（重复申请 / 重复发布槽位）
	ErrAlreadyExists = errors.New("记录已存在")
)

