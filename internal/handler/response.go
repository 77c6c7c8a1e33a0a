package handler

import (
	"errors"
	"net/http"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailWith 按错误类别映射 HTTP 状态码
func FailWith(c *gin.Context, err error) {
	var (
		validation *errs.ValidationError
		state      *errs.StateError
		resource   *errs.ResourceError
		capacity   *errs.CapacityError
		overflow   *errs.OverflowError
	)

	switch {
	case errors.As(err, &validation):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &state):
		if state.Reason == errs.ReasonUnauthorized {
			ErrorResponse(c, http.StatusForbidden, err.Error())
			return
		}
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.As(err, &resource):
		ErrorResponse(c, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &capacity):
		ErrorResponse(c, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &overflow):
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
