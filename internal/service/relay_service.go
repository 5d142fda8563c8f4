package service

import (
	"context"
	"io"
	"time"

	"excel-relay/pkg/logger"

	"github.com/sirupsen/logrus"
)

// DifyAPI 上游接口，DifyClient 为默认实现
type DifyAPI interface {
	UploadFile(ctx context.Context, filename string, content io.Reader) (string, error)
	SendChatMessage(ctx context.Context, fileID string) (string, error)
}

// Extraction 一次中转的结果
type Extraction struct {
	RequestID string
	FileID    string
	Answer    string
	Elapsed   time.Duration
}

// RelayService 上传表格后发起数据提取对话，不保存任何跨请求状态
type RelayService struct {
	api DifyAPI
}

func NewRelayService(api DifyAPI) *RelayService {
	return &RelayService{
		api: api,
	}
}

// ExtractExcel 先上传文件，成功拿到文件 ID 后再发起对话；任一步失败立即返回，不重试
func (s *RelayService) ExtractExcel(ctx context.Context, filename string, content io.Reader) (*Extraction, error) {
	start := time.Now()
	requestID := RequestIDFromContext(ctx)
	log := logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"filename":   filename,
	})

	fileID, err := s.api.UploadFile(ctx, filename, content)
	if err != nil {
		log.WithError(err).Warn("文件上传失败")
		return nil, err
	}
	log = log.WithField("upload_file_id", fileID)
	log.Debug("文件上传成功")

	answer, err := s.api.SendChatMessage(ctx, fileID)
	if err != nil {
		log.WithError(err).Warn("数据提取对话失败")
		return nil, err
	}

	elapsed := time.Since(start)
	log.WithField("elapsed", elapsed).Info("数据提取完成")

	return &Extraction{
		RequestID: requestID,
		FileID:    fileID,
		Answer:    answer,
		Elapsed:   elapsed,
	}, nil
}

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
