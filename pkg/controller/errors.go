package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrActionNotFound 路径无法解析为动作
	ErrActionNotFound = errors.New("action not found")
	// ErrControllerNotFound 控制器不存在
	ErrControllerNotFound = errors.New("controller not found")
	// ErrDuplicateMapping 映射路径已被占用
	ErrDuplicateMapping = errors.New("duplicate controller mapping")
)

// NotFoundError 路径解析失败
type NotFoundError struct {
	Path       string
	Controller string
	Action     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Controller == "" {
		return fmt.Sprintf("no controller mapped for %s", e.Path)
	}
	return fmt.Sprintf("controller %s has no action %q for %s", e.Controller, e.Action, e.Path)
}

// Unwrap returns ErrActionNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrActionNotFound
}

// IsNotFound 判断错误是否为动作未找到
func IsNotFound(err error) bool {
	return errors.Is(err, ErrActionNotFound)
}

// HaltError 钩子或动作主动终止请求，并指定响应状态码
type HaltError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *HaltError) Error() string {
	return fmt.Sprintf("halted with status %d: %s", e.Status, e.Message)
}

// Halt 返回一个终止请求的错误
func Halt(status int, message string) error {
	return &HaltError{Status: status, Message: message}
}
