package model

const (
	ResponseModeBlocking    = "blocking"
	FileTypeDocument        = "document"
	TransferMethodLocalFile = "local_file"
)

// ChatMessageRequest POST /chat-messages 请求体
type ChatMessageRequest struct {
	Inputs         map[string]any `json:"inputs"`
	Query          string         `json:"query"`
	ResponseMode   string         `json:"response_mode"`
	ConversationID string         `json:"conversation_id"` // 每次为空，开启新会话
	User           string         `json:"user"`
	Files          []FileRef      `json:"files"`
}

// FileRef 引用已上传到上游的文件
type FileRef struct {
	Type           string `json:"type"`
	TransferMethod string `json:"transfer_method"`
	UploadFileID   string `json:"upload_file_id"`
}

// NewBlockingChatRequest 构造带单个文件引用的阻塞式对话请求
func NewBlockingChatRequest(query, user, uploadFileID string) ChatMessageRequest {
	return ChatMessageRequest{
		Inputs:         map[string]any{},
		Query:          query,
		ResponseMode:   ResponseModeBlocking,
		ConversationID: "",
		User:           user,
		Files: []FileRef{{
			Type:           FileTypeDocument,
			TransferMethod: TransferMethodLocalFile,
			UploadFileID:   uploadFileID,
		}},
	}
}
