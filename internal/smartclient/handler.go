package smartclient

import (
	"context"
	"errors"

	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/httpclient"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

const DefaultGenericMessage = "Something went wrong. Please try again."

// ErrorHandler routes errors from screens to the right user-facing channel.
type ErrorHandler struct {
	logg    *logger.Logger
	generic string
}

func NewErrorHandler(logg *logger.Logger, genericMessage string) *ErrorHandler {
	if genericMessage == "" {
		genericMessage = DefaultGenericMessage
	}
	return &ErrorHandler{logg: logg, generic: genericMessage}
}

// Handle shows the auth prompt for gate errors and hands everything else to
// fallback. Only server and network failures are logged.
func (h *ErrorHandler) Handle(ctx context.Context, err error, fallback func(message string)) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if fallback == nil {
		fallback = func(string) {}
	}

	if authErr, ok := AsAuthRequired(err); ok {
		authErr.ShowPrompt(ctx)
		return
	}

	if pkgerrors.IsLocal(err) {
		fallback(pkgerrors.As(err).Message())
		return
	}

	fields := pkgerrors.Dump(err).Fields()
	if httpErr, ok := httpclient.AsHTTPError(err); ok {
		if reqID := httpErr.RequestID(); reqID != "" {
			fields["server_request_id"] = reqID
		}
	}
	h.logg.Warn(h.logg.WithFields(ctx, fields), "api.request.failed")
	fallback(httpclient.MessageFrom(err, h.generic))
}
