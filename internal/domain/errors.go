package domain

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInactiveUser       Kind = "inactive_user"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindInvalidRequest     Kind = "invalid_request"
	KindInternal           Kind = "internal_error"
)

// Error 服务层统一错误；errors.Is 按 Kind 匹配
type Error struct {
	Kind    Kind
	Msg     string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Details, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// 用于 errors.Is 的哨兵
var (
	ErrValidation         = &Error{Kind: KindValidation, Msg: "Validation failed"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Msg: "Email already exists", Details: []string{"Email must be unique"}}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Msg: "Invalid email or password"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Msg: "Could not validate credentials"}
	ErrInactiveUser       = &Error{Kind: KindInactiveUser, Msg: "Inactive user"}
	ErrForbidden          = &Error{Kind: KindForbidden, Msg: "Forbidden"}
	ErrNotFound           = &Error{Kind: KindNotFound, Msg: "User not found"}
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest, Msg: "Bad request"}
	ErrInternal           = &Error{Kind: KindInternal, Msg: "Internal server error"}
)

func Validation(msgs ...string) error {
	return &Error{Kind: KindValidation, Msg: ErrValidation.Msg, Details: msgs}
}

func Unauthenticated(msg string) error { return &Error{Kind: KindUnauthenticated, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Msg: msg} }
func InvalidRequest(msg string) error  { return &Error{Kind: KindInvalidRequest, Msg: msg} }
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律视为 internal
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindInternal
}

func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
