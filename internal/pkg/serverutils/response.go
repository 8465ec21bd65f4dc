package serverutils

type BaseResponse[T any] struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type,omitempty"`
	Data      T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) *BaseResponse[T] {
	return &BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) *BaseResponse[any] {
	return &BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// TypedErrorResponse tags the error so the widget can pick re-login, upgrade/wait or retry
func TypedErrorResponse(code int, errorType, message string) *BaseResponse[any] {
	res := ErrorResponse(code, message)
	res.ErrorType = errorType
	return res
}
