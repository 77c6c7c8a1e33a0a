package errs

import "fmt"

// StateReason 状态错误的具体原因
type StateReason string

const (
	ReasonInvalidTransition StateReason = "invalid_transition" // 非法状态迁移
	ReasonWrongState        StateReason = "wrong_state"        // 当前状态不允许该操作
	ReasonExpired           StateReason = "expired"            // 活动已过期
	ReasonUnauthorized      StateReason = "unauthorized"       // 调用者无权限
)

// ValidationError 输入校验错误（参数非法、超出边界等）
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// Validation 创建输入校验错误
func Validation(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StateError 状态机错误（状态迁移非法、活动状态不符、已过期等）
type StateError struct {
	Reason  StateReason
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error (%s): %s", e.Reason, e.Message)
}

// State 创建状态机错误
func State(reason StateReason, format string, args ...interface{}) error {
	return &StateError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ResourceError 资金/余额错误（转账失败、余额不足）
type ResourceError struct {
	Account string
	Message string
}

func (e *ResourceError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("resource error on account %s: %s", e.Account, e.Message)
	}
	return "resource error: " + e.Message
}

// Resource 创建资金错误
func Resource(account, format string, args ...interface{}) error {
	return &ResourceError{Account: account, Message: fmt.Sprintf(format, args...)}
}

// OverflowError 算术溢出错误（累计金额或手续费计算溢出）
type OverflowError struct {
	Op string
}

func (e *OverflowError) Error() string {
	return "arithmetic overflow in " + e.Op
}

// Overflow 创建算术溢出错误
func Overflow(op string) error {
	return &OverflowError{Op: op}
}

// CapacityError 容量错误（每区块上限或索引桶容量将被超出）
type CapacityError struct {
	Resource string
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded for %s (limit %d)", e.Resource, e.Limit)
}

// Capacity 创建容量错误
func Capacity(resource string, limit int) error {
	return &CapacityError{Resource: resource, Limit: limit}
}
