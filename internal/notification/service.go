package notification

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
)

// Service fans a notification out to every configured channel. Nothing is
// delivered unless notifications were permitted.
type Service struct {
	permitted bool
	discord   *DiscordService
}

func NewService(log zerolog.Logger, config *domain.Config, client *http.Client) domain.NotificationService {
	s := &Service{permitted: config.Notifications}
	if config.DiscordWebhookURL != "" {
		s.discord = NewDiscordService(log, config.DiscordWebhookURL, client)
	}
	return s
}

// Notify reports whether any channel accepted the notification.
func (s *Service) Notify(ctx context.Context, title, body string) (bool, error) {
	if !s.permitted || s.discord == nil {
		return false, nil
	}
	if err := s.discord.Send(ctx, title, body); err != nil {
		return false, err
	}
	return true, nil
}
