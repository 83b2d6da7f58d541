package response

import "net/http"

// 业务码直接沿用 HTTP 语义，成功为 0
const (
	CodeOK                  = 0
	CodeBadRequest          = http.StatusBadRequest
	CodeUnauthorized        = http.StatusUnauthorized
	CodeForbidden           = http.StatusForbidden
	CodeNotFound            = http.StatusNotFound
	CodeConflict            = http.StatusConflict
	CodeEntityTooLarge      = http.StatusRequestEntityTooLarge
	CodeUnprocessableEntity = http.StatusUnprocessableEntity
	CodeTooManyRequests     = http.StatusTooManyRequests
	CodeServerError         = http.StatusInternalServerError
	CodeUnavailable         = http.StatusServiceUnavailable
	CodeTimeout             = http.StatusGatewayTimeout
)

// CodeMsgMap 默认文案
var CodeMsgMap = map[int]string{
	CodeOK:                  "OK",
	CodeBadRequest:          "Bad Request",
	CodeUnauthorized:        "Unauthorized",
	CodeForbidden:           "Forbidden",
	CodeNotFound:            "Not Found",
	CodeConflict:            "Conflict",
	CodeEntityTooLarge:      "Request body too large",
	CodeUnprocessableEntity: "Unprocessable Entity",
	CodeTooManyRequests:     "Too many requests",
	CodeServerError:         "Internal Server Error",
	CodeUnavailable:         "Server busy",
	CodeTimeout:             "Request timeout",
}
