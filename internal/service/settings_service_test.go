package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moviegate/postbot/internal/models"
)

type MockSettingsStore struct {
	mock.Mock
}

func (m *MockSettingsStore) Find(ctx context.Context, userID int64) (*models.Settings, error) {
	args := m.Called(ctx, userID)
	rec, _ := args.Get(0).(*models.Settings)
	return rec, args.Error(1)
}

func (m *MockSettingsStore) UpsertAdRedirectURL(ctx context.Context, userID int64, url string) error {
	args := m.Called(ctx, userID, url)
	return args.Error(0)
}

func (m *MockSettingsStore) UpsertClickThreshold(ctx context.Context, userID int64, threshold int) error {
	args := m.Called(ctx, userID, threshold)
	return args.Error(0)
}

type MockChannelStore struct {
	mock.Mock
}

func (m *MockChannelStore) ListByUser(ctx context.Context, userID int64) ([]models.Channel, error) {
	args := m.Called(ctx, userID)
	channels, _ := args.Get(0).([]models.Channel)
	return channels, args.Error(1)
}

func (m *MockChannelStore) Create(ctx context.Context, channel *models.Channel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockChannelStore) Delete(ctx context.Context, userID, channelID int64) error {
	args := m.Called(ctx, userID, channelID)
	return args.Error(0)
}

func TestGetDefaultsWhenNothingStored(t *testing.T) {
	settings := new(MockSettingsStore)
	settings.On("Find", mock.Anything, int64(7)).Return(nil, nil)
	svc := NewSettingsService(settings, new(MockChannelStore))

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdRedirectURL, got.AdRedirectURL)
	assert.Equal(t, DefaultClickThreshold, got.ClickThreshold)
}

func TestGetStoredValuesWin(t *testing.T) {
	settings := new(MockSettingsStore)
	settings.On("Find", mock.Anything, int64(7)).Return(&models.Settings{
		UserID:         7,
		AdRedirectURL:  "https://ads.example/go",
		ClickThreshold: 3,
	}, nil)
	svc := NewSettingsService(settings, new(MockChannelStore))

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "https://ads.example/go", got.AdRedirectURL)
	assert.Equal(t, 3, got.ClickThreshold)
}

func TestGetBackfillsPartialRecord(t *testing.T) {
	settings := new(MockSettingsStore)
	settings.On("Find", mock.Anything, int64(7)).Return(&models.Settings{
		UserID:         7,
		AdRedirectURL:  "  ",
		ClickThreshold: 0,
	}, nil)
	svc := NewSettingsService(settings, new(MockChannelStore))

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdRedirectURL, got.AdRedirectURL)
	assert.Equal(t, DefaultClickThreshold, got.ClickThreshold)
}

func TestSetClickThresholdValidation(t *testing.T) {
	settings := new(MockSettingsStore)
	settings.On("UpsertClickThreshold", mock.Anything, int64(7), 5).Return(nil)
	svc := NewSettingsService(settings, new(MockChannelStore))

	assert.Error(t, svc.SetClickThreshold(context.Background(), 7, 0))
	assert.Error(t, svc.SetClickThreshold(context.Background(), 7, -1))
	require.NoError(t, svc.SetClickThreshold(context.Background(), 7, 5))
	settings.AssertExpectations(t)
}

func TestSetAdRedirectURLTrimsAndValidates(t *testing.T) {
	settings := new(MockSettingsStore)
	settings.On("UpsertAdRedirectURL", mock.Anything, int64(7), "https://ads.example").Return(nil)
	svc := NewSettingsService(settings, new(MockChannelStore))

	assert.Error(t, svc.SetAdRedirectURL(context.Background(), 7, "   "))
	require.NoError(t, svc.SetAdRedirectURL(context.Background(), 7, "  https://ads.example  "))
	settings.AssertExpectations(t)
}

func TestAddChannelValidation(t *testing.T) {
	channels := new(MockChannelStore)
	channels.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Channel) bool {
		return c.UserID == 7 && c.Name == "Main" && c.URL == "https://t.me/main"
	})).Return(nil)
	svc := NewSettingsService(new(MockSettingsStore), channels)

	assert.Error(t, svc.AddChannel(context.Background(), 7, "", "https://t.me/main"))
	assert.Error(t, svc.AddChannel(context.Background(), 7, "Main", ""))
	require.NoError(t, svc.AddChannel(context.Background(), 7, " Main ", " https://t.me/main "))
	channels.AssertExpectations(t)
}

func TestRemoveChannelScopedToOwner(t *testing.T) {
	channels := new(MockChannelStore)
	channels.On("Delete", mock.Anything, int64(7), int64(3)).Return(nil)
	svc := NewSettingsService(new(MockSettingsStore), channels)

	require.NoError(t, svc.RemoveChannel(context.Background(), 7, 3))
	channels.AssertExpectations(t)
}
