package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink stands in for the email and SMS providers when none is configured.
// Message bodies are only logged at debug level.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notify_log").Logger()}
}

func (l *LogSink) Send(ctx context.Context, msg EmailMessage) error {
	l.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email not sent: no provider configured")
	l.logger.Debug().Str("to", msg.To).Str("body", msg.Body).Msg("email body")
	return nil
}

func (l *LogSink) SendSMS(ctx context.Context, to, body string) error {
	l.logger.Info().Str("to", to).Msg("sms not sent: no provider configured")
	l.logger.Debug().Str("to", to).Str("body", body).Msg("sms body")
	return nil
}
