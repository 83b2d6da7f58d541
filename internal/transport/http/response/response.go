package response

type Resp struct {
	Code   int      `json:"code"`
	Kind   string   `json:"kind,omitempty"`
	Msg    string   `json:"msg"`
	Data   any      `json:"data"`
	Meta   any      `json:"meta,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data any) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data any) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Success 自定义成功文案
func Success(msg string, data any) Resp {
	if msg == "" {
		msg = CodeMsgMap[CodeOK]
	}
	return New(CodeOK, msg, data)
}

// Paged 列表响应，带分页信息
func Paged(data, meta any) Resp {
	r := OK(data)
	r.Meta = meta
	return r
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, nil)
}

// Fail 带错误类别与明细
func Fail(code int, kind, msg string, errs []string) Resp {
	r := Error(code, msg)
	r.Kind = kind
	r.Errors = errs
	return r
}
