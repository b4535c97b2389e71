package response

// Body is the JSON envelope used for error responses emitted outside of the
// regular handler flow (HTTP error handler, middleware).
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Error(code, message string, data any) Body {
	return Body{Code: code, Message: message, Data: data}
}
