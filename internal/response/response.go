// Package response 定义 HTTP 接口的统一响应结构
package response

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// 响应码定义
const (
	CodeSuccess = 0
	CodeError   = -1
)

// 响应消息定义
const (
	MsgSuccess     = "success"
	MsgNotFound    = "not found"
	MsgServerError = "server error"
)

// Success 成功响应
func Success(c *fiber.Ctx, data any) error {
	return c.JSON(Response{
		Code:    CodeSuccess,
		Message: MsgSuccess,
		Data:    data,
	})
}

// Fail 以 HTTP 状态码作为业务码返回错误响应，message 为空时使用状态码的标准描述
func Fail(c *fiber.Ctx, status int, message string) error {
	if status < fiber.StatusContinue || status > 599 {
		status = fiber.StatusInternalServerError
	}
	if message == "" {
		message = defaultMessage(status)
	}
	return c.Status(status).JSON(Response{
		Code:    status,
		Message: message,
	})
}

// NotFound 未找到响应
func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, message)
}

// ServerError 服务器错误响应
func ServerError(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusInternalServerError, message)
}

func defaultMessage(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return MsgNotFound
	case fiber.StatusInternalServerError:
		return MsgServerError
	}
	if msg := utils.StatusMessage(status); msg != "" {
		return msg
	}
	return MsgServerError
}
