package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/moviegate/postbot/internal/models"
)

type OfferStore interface {
	List(ctx context.Context) ([]models.Offer, error)
	GetByID(ctx context.Context, id int64) (*models.Offer, error)
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	Delete(ctx context.Context, id int64) error
}

type CreateOfferInput struct {
	Title        string
	Price        string
	DurationDays int
}

type UpdateOfferInput struct {
	Title        *string
	Price        *string
	DurationDays *int
}

// OfferService manages the display catalog of premium plans. Offers carry no
// payment mechanics; they are what the bot shows next to the redeem
// instructions.
type OfferService struct {
	repo OfferStore
}

func NewOfferService(repo OfferStore) *OfferService {
	return &OfferService{repo: repo}
}

func (s *OfferService) List(ctx context.Context) ([]models.Offer, error) {
	return s.repo.List(ctx)
}

func (s *OfferService) GetByID(ctx context.Context, id int64) (*models.Offer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *OfferService) Create(ctx context.Context, input CreateOfferInput) (*models.Offer, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if strings.TrimSpace(input.Price) == "" {
		return nil, fmt.Errorf("price is required")
	}
	if input.DurationDays <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	offer := models.Offer{
		Title:        input.Title,
		Price:        input.Price,
		DurationDays: input.DurationDays,
	}
	return s.repo.Create(ctx, &offer)
}

func (s *OfferService) Update(ctx context.Context, id int64, input UpdateOfferInput) (*models.Offer, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("offer not found")
	}
	if input.Title != nil && *input.Title != "" {
		existing.Title = *input.Title
	}
	if input.Price != nil && *input.Price != "" {
		existing.Price = *input.Price
	}
	if input.DurationDays != nil && *input.DurationDays > 0 {
		existing.DurationDays = *input.DurationDays
	}
	return s.repo.Update(ctx, existing)
}

func (s *OfferService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
