package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"excel-relay/internal/config"
	"excel-relay/internal/model"
	"excel-relay/internal/utils"
)

// 成功响应体读取上限
const maxResponseBody = 16 << 20

// DifyClient 调用上游文件上传与对话接口，可并发使用
type DifyClient struct {
	baseURL    string
	apiKey     string
	user       string
	query      string
	fileMIME   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewDifyClient httpClient 为 nil 时按 cfg.Timeout 创建
func NewDifyClient(cfg config.DifyConfig, httpClient *http.Client) *DifyClient {
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(cfg.Timeout)
	}
	return &DifyClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		user:       cfg.User,
		query:      cfg.Query,
		fileMIME:   cfg.FileMIME,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}
}

// UploadFile 上传文件并返回上游文件 ID，仅 201 视为成功
func (c *DifyClient) UploadFile(ctx context.Context, filename string, content io.Reader) (string, error) {
	body := &bytes.Buffer{}
	contentType, err := writeUploadForm(body, filename, c.fileMIME, c.user, content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadUpload, err)
	}

	status, respBody, err := c.post(ctx, OpUpload, "/files/upload", contentType, body)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", &RelayError{Kind: KindUpstreamUpload, Op: OpUpload, StatusCode: status, Body: truncateBody(respBody)}
	}

	var out model.UploadFileResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &RelayError{Kind: KindUpstreamResponse, Op: OpUpload, StatusCode: status, Body: truncateBody(respBody), Err: err}
	}
	if out.ID == "" {
		return "", &RelayError{Kind: KindUpstreamResponse, Op: OpUpload, StatusCode: status, Body: truncateBody(respBody), Err: errors.New(`missing "id" field`)}
	}
	return out.ID, nil
}

// SendChatMessage 以阻塞模式发起新会话，引用 fileID 对应的文件，返回 answer
func (c *DifyClient) SendChatMessage(ctx context.Context, fileID string) (string, error) {
	payload, err := json.Marshal(model.NewBlockingChatRequest(c.query, c.user, fileID))
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	status, respBody, err := c.post(ctx, OpChat, "/chat-messages", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", &RelayError{Kind: KindUpstreamChat, Op: OpChat, StatusCode: status, Body: truncateBody(respBody)}
	}

	var out model.ChatMessageResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &RelayError{Kind: KindUpstreamResponse, Op: OpChat, StatusCode: status, Body: truncateBody(respBody), Err: err}
	}
	if out.Answer == nil {
		return "", &RelayError{Kind: KindUpstreamResponse, Op: OpChat, StatusCode: status, Body: truncateBody(respBody), Err: errors.New(`missing "answer" field`)}
	}
	return *out.Answer, nil
}

// post 发送请求并读取响应体，网络层失败统一包装为 KindTransport
func (c *DifyClient) post(ctx context.Context, op, path, contentType string, body io.Reader) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return 0, nil, &RelayError{Kind: KindTransport, Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RelayError{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, &RelayError{Kind: KindTransport, Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, respBody, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeUploadForm 写入 user 字段和 file 文件段，file 段声明固定的 MIME 类型
func writeUploadForm(w io.Writer, filename, fileMIME, user string, content io.Reader) (string, error) {
	mw := multipart.NewWriter(w)

	if err := mw.WriteField("user", user); err != nil {
		return "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", fileMIME)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}

	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}
