package types

import "time"

type SuccessEnvelope struct {
	Data    any      `json:"data"`
	Notices []Notice `json:"notices,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Notices []Notice `json:"notices,omitempty"`
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a modal-style message the console shows the operator after an action.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
