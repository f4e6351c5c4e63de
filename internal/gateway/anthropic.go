package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	dm "github.com/iWorld-y/sentiment_radar/internal/model"
)

// AnthropicChatModel 把 Anthropic Messages 接口适配为 eino ChatModel
type AnthropicChatModel struct {
	client    anthropicclient.Client
	model     string
	maxTokens int
}

// Ensure AnthropicChatModel implements model.BaseChatModel
var _ model.BaseChatModel = (*AnthropicChatModel)(nil)

// NewAnthropicChatModel 创建 Anthropic 模型，modelName 为空时使用 claude-haiku-4-5
func NewAnthropicChatModel(baseURL, apiKey, modelName string, maxTokens int) *AnthropicChatModel {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(baseURL); endpoint != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}
	if modelName == "" {
		modelName = "claude-haiku-4-5-20251001"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicChatModel{
		client:    anthropicclient.NewClient(opts...),
		model:     modelName,
		maxTokens: maxTokens,
	}
}

// Generate 实现 model.BaseChatModel
func (m *AnthropicChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	maxTokens := m.maxTokens
	common := model.GetCommonOptions(&model.Options{MaxTokens: &maxTokens}, opts...)

	params := anthropicclient.MessageNewParams{
		Model:     anthropicclient.Model(m.model),
		MaxTokens: int64(*common.MaxTokens),
	}
	if common.Temperature != nil {
		params.Temperature = anthropicclient.Float(float64(*common.Temperature))
	}
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			params.System = append(params.System, anthropicclient.TextBlockParam{Text: msg.Content})
		case schema.Assistant:
			params.Messages = append(params.Messages, anthropicclient.NewAssistantMessage(anthropicclient.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropicclient.NewUserMessage(anthropicclient.NewTextBlock(msg.Content)))
		}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropicclient.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, &dm.RateLimitError{Op: "anthropic", Err: err}
		}
		return nil, &dm.TransportError{Op: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return schema.AssistantMessage(sb.String(), nil), nil
}

// Stream 不支持增量输出，整体结果作为单个分片返回
func (m *AnthropicChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
