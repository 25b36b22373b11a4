package logger

// ErrorInfo is the shape of the "error" field on error entries
type ErrorInfo struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}
