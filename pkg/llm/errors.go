package llm

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"

	"github.com/nodewee/docrag/pkg/utils"
)

// WrapAPIError converts an OpenAI client error into an upstream AppError that
// carries the response status. Context errors are returned unchanged.
func WrapAPIError(message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return utils.NewUpstreamStatusError(message, apiErr.StatusCode, err)
	}
	return utils.NewUpstreamStatusError(message, 0, err)
}
