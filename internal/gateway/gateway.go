package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/sentiment_radar/internal/logger"
	dm "github.com/iWorld-y/sentiment_radar/internal/model"
)

// Prompt 一次结构化请求的模板，System/User 使用 FString 语法（{var}，字面量花括号写作 {{ }}）
type Prompt struct {
	Name   string
	System string
	User   string
}

// Schema 结构化输出的目标类型
type Schema interface {
	// SchemaName 用于日志和错误信息
	SchemaName() string
	// FormatInstructions 描述期望的 JSON 结构，附加在系统提示之后
	FormatInstructions() string
	// Validate 在 JSON 解析成功后校验必填字段
	Validate() error
}

// Gateway 结构化补全能力：按模板和变量请求模型，并把结果填入 out
type Gateway interface {
	Complete(ctx context.Context, p Prompt, vars map[string]any, out Schema) error
}

// ChatGateway 基于 eino ChatModel 的 Gateway 实现
type ChatGateway struct {
	chatModel model.BaseChatModel
	opts      []model.Option
}

// Ensure ChatGateway implements Gateway
var _ Gateway = (*ChatGateway)(nil)

// NewChatGateway 创建 ChatGateway，opts 在每次请求时透传给模型
func NewChatGateway(cm model.BaseChatModel, opts ...model.Option) *ChatGateway {
	return &ChatGateway{chatModel: cm, opts: opts}
}

const jsonSystemPrompt = "You are a JSON generator. Output only a single JSON object, without markdown fences or any other text."

// Complete 渲染模板、调用模型并解析 JSON
func (g *ChatGateway) Complete(ctx context.Context, p Prompt, vars map[string]any, out Schema) error {
	tpl := prompt.FromMessages(schema.FString,
		schema.SystemMessage(p.System),
		schema.UserMessage(p.User),
	)
	rendered, err := tpl.Format(ctx, vars)
	if err != nil {
		return fmt.Errorf("render prompt %s: %w", p.Name, err)
	}

	messages := make([]*schema.Message, 0, len(rendered)+1)
	messages = append(messages, schema.SystemMessage(jsonSystemPrompt+"\n"+out.FormatInstructions()))
	messages = append(messages, rendered...)

	resp, err := g.chatModel.Generate(ctx, messages, g.opts...)
	if err != nil {
		return classify(ctx, p.Name, err)
	}

	content := cleanJSON(resp.Content)
	if err := decode(content, out); err != nil {
		return &dm.SchemaValidationError{Schema: out.SchemaName(), Raw: content, Err: err}
	}

	logger.Log.Debugf("结构化请求完成 [%s] schema=%s", p.Name, out.SchemaName())
	return nil
}

// decode 解析到 out 的零值副本，校验通过后才写回 out，
// 失败的回复不会在 out 中留下字段
func decode(content string, out Schema) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("schema %s must be a non-nil pointer", out.SchemaName())
	}
	fresh := reflect.New(rv.Elem().Type())
	target, ok := fresh.Interface().(Schema)
	if !ok {
		return fmt.Errorf("schema %s: %T does not implement Schema", out.SchemaName(), fresh.Interface())
	}
	if err := json.Unmarshal([]byte(content), target); err != nil {
		return err
	}
	if err := target.Validate(); err != nil {
		return err
	}
	rv.Elem().Set(fresh.Elem())
	return nil
}

// cleanJSON 清理可能的 markdown 标记
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// classify 把模型调用错误归类为 RateLimitError 或 TransportError
func classify(ctx context.Context, op string, err error) error {
	var (
		rl *dm.RateLimitError
		tr *dm.TransportError
		sv *dm.SchemaValidationError
	)
	if errors.As(err, &rl) || errors.As(err, &tr) || errors.As(err, &sv) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &dm.TransportError{Op: op, Err: err}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit") {
		return &dm.RateLimitError{Op: op, Err: err}
	}
	return &dm.TransportError{Op: op, Err: err}
}
