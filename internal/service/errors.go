package service

import (
	"context"
	"errors"
	"fmt"
	"net"
)

type ErrorKind string

const (
	KindTransport        ErrorKind = "transport_error"
	KindUpstreamUpload   ErrorKind = "upstream_upload_error"
	KindUpstreamChat     ErrorKind = "upstream_chat_error"
	KindUpstreamResponse ErrorKind = "upstream_response_error"
)

var (
	ErrTransport        = errors.New("upstream unreachable")
	ErrUpstreamUpload   = errors.New("upstream file upload failed")
	ErrUpstreamChat     = errors.New("upstream chat failed")
	ErrUpstreamResponse = errors.New("upstream response malformed")

	// ErrReadUpload 读取客户端上传内容失败，未发起任何上游调用
	ErrReadUpload = errors.New("read uploaded file")
)

const (
	OpUpload = "upload"
	OpChat   = "chat"
)

// RelayError 描述一次上游调用的失败，StatusCode 与 Body 仅在收到上游响应时有值
type RelayError struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *RelayError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

func (e *RelayError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindUpstreamUpload:
		return ErrUpstreamUpload
	case KindUpstreamChat:
		return ErrUpstreamChat
	case KindUpstreamResponse:
		return ErrUpstreamResponse
	}
	return errors.New(string(k))
}

// IsTimeout 判断错误是否由超时引起
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

const maxErrorBody = 4 << 10

func truncateBody(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody]) + "...(truncated)"
}
