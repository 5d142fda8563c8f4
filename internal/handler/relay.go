package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"excel-relay/internal/model"
	"excel-relay/internal/service"
	"excel-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RelayPath 唯一对外的中转路由
const RelayPath = "/send_chat_message_endpoint/"

const kindInvalidRequest = "invalid_request"

type Extractor interface {
	ExtractExcel(ctx context.Context, filename string, content io.Reader) (*service.Extraction, error)
}

type RelayHandler struct {
	relay     Extractor
	formField string
}

func NewRelayHandler(relay Extractor, formField string) *RelayHandler {
	return &RelayHandler{
		relay:     relay,
		formField: formField,
	}
}

// SendChatMessage 接收 multipart 上传的表格，转发给上游并返回 {"result": answer}
func (h *RelayHandler) SendChatMessage(c *gin.Context) {
	part, err := h.filePart(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:     err.Error(),
			Kind:      kindInvalidRequest,
			RequestID: RequestID(c),
		})
		return
	}
	defer part.Close()

	extraction, err := h.relay.ExtractExcel(c.Request.Context(), part.FileName(), part)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RelayResponse{Result: extraction.Answer})
}

// filePart 直接从请求流中读取文件段，文件内容不落盘
func (h *RelayHandler) filePart(req *http.Request) (*multipart.Part, error) {
	mr, err := req.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("expected multipart/form-data body: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, fmt.Errorf("missing file field %q", h.formField)
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart body: %w", err)
		}
		if part.FormName() == h.formField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func (h *RelayHandler) writeError(c *gin.Context, err error) {
	resp := model.ErrorResponse{
		Error:     err.Error(),
		RequestID: RequestID(c),
	}

	if errors.Is(err, service.ErrReadUpload) {
		resp.Kind = kindInvalidRequest
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	var relayErr *service.RelayError
	if !errors.As(err, &relayErr) {
		logger.Errorf("relay %s: unexpected error: %v", resp.RequestID, err)
		resp.Kind = "internal_error"
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	resp.Kind = string(relayErr.Kind)
	resp.Op = relayErr.Op
	resp.UpstreamStatus = relayErr.StatusCode
	resp.UpstreamBody = relayErr.Body

	status := http.StatusBadGateway
	if relayErr.Kind == service.KindTransport && service.IsTimeout(relayErr) {
		status = http.StatusGatewayTimeout
	}
	c.JSON(status, resp)
}
