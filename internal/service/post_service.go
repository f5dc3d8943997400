package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/moviegate/postbot/internal/models"
	"github.com/moviegate/postbot/internal/render"
)

var ErrPostNotFound = errors.New("post not found")
var ErrNoLinks = errors.New("post needs at least one download link")

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
}

// PostSettings is the slice of SettingsService the post pipeline consumes.
type PostSettings interface {
	Get(ctx context.Context, userID int64) (models.Settings, error)
	ListChannels(ctx context.Context, userID int64) ([]models.Channel, error)
}

type PostRenderer interface {
	Render(doc render.Document) (string, error)
}

// PublishResult is what the author gets back: the opaque id, the public
// preview URL, and the raw document for manual copy.
type PublishResult struct {
	ID   string
	URL  string
	HTML string
}

// PostService turns a finalized draft into a published document.
type PostService struct {
	publicBaseURL string
	log           *slog.Logger
	posts         PostStore
	settings      PostSettings
	renderer      PostRenderer
}

func NewPostService(publicBaseURL string, log *slog.Logger, posts PostStore, settings PostSettings, renderer PostRenderer) *PostService {
	return &PostService{
		publicBaseURL: publicBaseURL,
		log:           log,
		posts:         posts,
		settings:      settings,
		renderer:      renderer,
	}
}

// Finalize renders the draft with the author's settings and channels, stores
// the document under a fresh opaque id and returns the reference.
func (s *PostService) Finalize(ctx context.Context, userID int64, draft models.Draft) (*PublishResult, error) {
	if !draft.Ready() {
		return nil, ErrNoLinks
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	channels, err := s.settings.ListChannels(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	html, err := s.renderer.Render(render.Document{
		Title:          draft.Title,
		PosterURL:      draft.PosterURL,
		Year:           draft.Year,
		Language:       draft.Language,
		Links:          draft.Links,
		AdRedirectURL:  settings.AdRedirectURL,
		ClickThreshold: settings.ClickThreshold,
		Channels:       channels,
	})
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	post := &models.Post{ID: id, UserID: userID, HTML: html}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("publish post: %w", err)
	}

	s.log.Info("post published", "user", userID, "post", id, "links", len(draft.Links))
	return &PublishResult{
		ID:   id,
		URL:  s.publicBaseURL + "/preview/" + id,
		HTML: html,
	}, nil
}

// Retrieve returns the stored document verbatim. Unknown and malformed ids
// both come back as ErrPostNotFound.
func (s *PostService) Retrieve(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPostNotFound
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}
