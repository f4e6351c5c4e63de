package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"

	"github.com/iWorld-y/sentiment_radar/internal/model"
)

// Client 基于 OpenAI embeddings 接口的向量服务
type Client struct {
	client openaiclient.Client
	model  string
}

// Ensure Client implements eino embedding.Embedder
var _ einoembedding.Embedder = (*Client)(nil)

// NewClient 创建向量客户端，baseURL 为空时使用官方地址
func NewClient(baseURL, apiKey, modelName string) *Client {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeBaseURL(baseURL); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	return &Client{
		client: openaiclient.NewClient(opts...),
		model:  modelName,
	}
}

// EmbedStrings 一次批量请求，返回顺序与输入一致
func (c *Client) EmbedStrings(ctx context.Context, texts []string, _ ...einoembedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.Embeddings.New(ctx, openaiclient.EmbeddingNewParams{
		Input: openaiclient.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaiclient.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, &model.SchemaValidationError{
			Schema: "embedding",
			Err:    fmt.Errorf("expected %d vectors, got %d", len(texts), len(resp.Data)),
		}
	}

	// 服务端不保证按输入顺序返回，按 index 归位
	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			return nil, &model.SchemaValidationError{
				Schema: "embedding",
				Err:    fmt.Errorf("unexpected vector index %d", d.Index),
			}
		}
		out[idx] = d.Embedding
	}
	return out, nil
}

func classify(err error) error {
	var apiErr *openaiclient.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &model.RateLimitError{Op: "embedding", Err: err}
	}
	return &model.TransportError{Op: "embedding", Err: err}
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/") + "/"
}
