package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	RemoteMethod string `json:"remote_method,omitempty"`
	RemotePath   string `json:"remote_path,omitempty"`
	RemoteStatus int    `json:"remote_status,omitempty"`
	RemoteBody   string `json:"remote_body,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var remote *RemoteFailure
	if errors.As(err, &remote) {
		d.RemoteMethod = remote.Method
		d.RemotePath = remote.Path
		d.RemoteStatus = remote.Status
		d.RemoteBody = remote.Body
	}

	return d
}
