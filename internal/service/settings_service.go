package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/moviegate/postbot/internal/models"
)

const (
	DefaultAdRedirectURL  = "#"
	DefaultClickThreshold = 1
)

type SettingsStore interface {
	Find(ctx context.Context, userID int64) (*models.Settings, error)
	UpsertAdRedirectURL(ctx context.Context, userID int64, url string) error
	UpsertClickThreshold(ctx context.Context, userID int64, threshold int) error
}

type ChannelStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Channel, error)
	Create(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, userID, channelID int64) error
}

// SettingsService manages per-user generation options and promotional
// channels.
type SettingsService struct {
	settings SettingsStore
	channels ChannelStore
}

func NewSettingsService(settings SettingsStore, channels ChannelStore) *SettingsService {
	return &SettingsService{settings: settings, channels: channels}
}

// Get returns the user's settings with defaults applied: threshold 1 and a
// dead "#" ad link when nothing is stored.
func (s *SettingsService) Get(ctx context.Context, userID int64) (models.Settings, error) {
	stored, err := s.settings.Find(ctx, userID)
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	result := models.Settings{
		UserID:         userID,
		AdRedirectURL:  DefaultAdRedirectURL,
		ClickThreshold: DefaultClickThreshold,
	}
	if stored != nil {
		if strings.TrimSpace(stored.AdRedirectURL) != "" {
			result.AdRedirectURL = stored.AdRedirectURL
		}
		if stored.ClickThreshold >= 1 {
			result.ClickThreshold = stored.ClickThreshold
		}
	}
	return result, nil
}

func (s *SettingsService) SetAdRedirectURL(ctx context.Context, userID int64, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("ad redirect url cannot be empty")
	}
	return s.settings.UpsertAdRedirectURL(ctx, userID, url)
}

func (s *SettingsService) SetClickThreshold(ctx context.Context, userID int64, threshold int) error {
	if threshold < 1 {
		return fmt.Errorf("click threshold must be at least 1")
	}
	return s.settings.UpsertClickThreshold(ctx, userID, threshold)
}

func (s *SettingsService) ListChannels(ctx context.Context, userID int64) ([]models.Channel, error) {
	channels, err := s.channels.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

func (s *SettingsService) AddChannel(ctx context.Context, userID int64, name, url string) error {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return fmt.Errorf("channel name and url are required")
	}
	return s.channels.Create(ctx, &models.Channel{UserID: userID, Name: name, URL: url})
}

func (s *SettingsService) RemoveChannel(ctx context.Context, userID, channelID int64) error {
	return s.channels.Delete(ctx, userID, channelID)
}
