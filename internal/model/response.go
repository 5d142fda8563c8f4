package model

// UploadFileResponse POST /files/upload 返回 201 时的响应体
type UploadFileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

// ChatMessageResponse 阻塞模式下 /chat-messages 的响应体
type ChatMessageResponse struct {
	Event          string  `json:"event"`
	MessageID      string  `json:"message_id"`
	ConversationID string  `json:"conversation_id"`
	Mode           string  `json:"mode"`
	Answer         *string `json:"answer"` // 指针用于区分缺失与空回答
	CreatedAt      int64   `json:"created_at"`
}

// RelayResponse 中转接口成功时的响应体
type RelayResponse struct {
	Result string `json:"result"`
}

type ErrorResponse struct {
	Error          string `json:"error"`
	Kind           string `json:"kind"`
	Op             string `json:"op,omitempty"` // 失败的上游调用：upload | chat
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}
