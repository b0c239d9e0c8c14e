// Package apperr 定义缓存、队列、worker 与 service 共用的错误类别
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Conflict
	CacheUnavailable
	QueueEnqueue
	WorkerExecution
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case CacheUnavailable:
		return "cache_unavailable"
	case QueueEnqueue:
		return "queue_enqueue"
	case WorkerExecution:
		return "worker_execution"
	default:
		return "internal"
	}
}

// AppError 带类别的应用错误
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 同类别即视为匹配，便于 errors.Is(err, apperr.ErrNotFound)
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// 哨兵错误，仅用于 errors.Is 比较
var (
	ErrValidation       = &AppError{Kind: Validation}
	ErrNotFound         = &AppError{Kind: NotFound}
	ErrConflict         = &AppError{Kind: Conflict}
	ErrCacheUnavailable = &AppError{Kind: CacheUnavailable}
	ErrQueueEnqueue     = &AppError{Kind: QueueEnqueue}
	ErrWorkerExecution  = &AppError{Kind: WorkerExecution}
)

// New 创建新的应用错误
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap 包装已有错误；err 为 nil 时返回 nil
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf 返回错误链上第一个 AppError 的类别，未找到时为 Internal
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}
