package homeassistant

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogNotifier stands in for Client when Home Assistant is disabled: every
// side effect is logged and reported as successful.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier returns a LogNotifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "homeassistant").Bool("disabled", true).Logger()}
}

func (n *LogNotifier) SendNotification(ctx context.Context, device, title, message string) error {
	n.log.Info().Str("device", device).Str("title", title).Str("text", message).Msg("notification")
	return nil
}

func (n *LogNotifier) OpenAppOnDevice(ctx context.Context, device string) error {
	n.log.Info().Str("device", device).Msg("open app")
	return nil
}

func (n *LogNotifier) PlayMedia(ctx context.Context, url, entityID string) error {
	n.log.Info().Str("url", url).Str("entity_id", entityID).Msg("play media")
	return nil
}

// MobileAppDevices always returns an empty list.
func (n *LogNotifier) MobileAppDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}
