package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIncompleteTransfer = errors.New("incomplete transfer")
	ErrTransformFailure   = errors.New("transform failure")
	ErrTransferLayer      = errors.New("transfer layer error")
	ErrTimeout            = errors.New("timeout")
	ErrInsufficientSpace  = errors.New("insufficient disk space")
	ErrConfiguration      = errors.New("configuration error")
	ErrUnexpected         = errors.New("unexpected error")
)

// Kind is the coarse failure classification reported to users and operators.
type Kind string

const (
	KindNone               Kind = ""
	KindIncompleteTransfer Kind = "incomplete_transfer"
	KindTransformFailure   Kind = "transform_failure"
	KindTransferLayer      Kind = "transfer_layer"
	KindTimeout            Kind = "timeout"
	KindInsufficientSpace  Kind = "insufficient_space"
	KindConfiguration      Kind = "configuration"
	KindUnexpected         Kind = "unexpected"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrUnexpected
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err. Timeouts win over other markers because a deadline
// usually surfaces wrapped inside a transfer or transform error.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrIncompleteTransfer):
		return KindIncompleteTransfer
	case errors.Is(err, ErrTransformFailure):
		return KindTransformFailure
	case errors.Is(err, ErrInsufficientSpace):
		return KindInsufficientSpace
	case errors.Is(err, ErrTransferLayer):
		return KindTransferLayer
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	default:
		return KindUnexpected
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
