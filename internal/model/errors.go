package model

import (
	"errors"
	"fmt"
)

// ValidationError 输入不合法，在任何并发请求发出前返回
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}

// NewValidationError 构造 ValidationError
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SchemaValidationError 模型输出不符合请求的结构
type SchemaValidationError struct {
	Schema string
	Raw    string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Schema, e.Err)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// TransportError 访问模型或 embedding 服务时的网络/超时错误
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError 服务端限流
type RateLimitError struct {
	Op  string
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited %s: %v", e.Op, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Stage 流水线阶段名
type Stage string

const (
	StageSimilarity         Stage = "similarity"
	StageTopicExtraction    Stage = "topic_extraction"
	StageTopicOverlap       Stage = "topic_overlap"
	StageComparativeInsight Stage = "comparative_insight"
	StageFinalSynthesis     Stage = "final_synthesis"
)

// StageError 流水线失败，携带出错的阶段和原始错误
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsValidation 判断 err 链中是否有 ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsRateLimit 判断 err 链中是否有 RateLimitError
func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// IsSchema 判断 err 链中是否有 SchemaValidationError
func IsSchema(err error) bool {
	var target *SchemaValidationError
	return errors.As(err, &target)
}

// IsTransport 判断 err 链中是否有 TransportError
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
