package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notification announces finished reports to a channel.
type Notification struct {
	Channel string
	Message string
	Files   []string
	Titles  []string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the context logger.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	zerolog.Ctx(ctx).Info().
		Str("channel", n.Channel).
		Strs("files", n.Files).
		Strs("titles", n.Titles).
		Msg(n.Message)
	return nil
}
