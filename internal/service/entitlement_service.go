package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/moviegate/postbot/internal/models"
)

var ErrPremiumRequired = errors.New("premium required")
var ErrCodeInvalid = errors.New("redeem code invalid")

type PremiumStore interface {
	Find(ctx context.Context, userID int64) (*models.PremiumRecord, error)
	Upsert(ctx context.Context, rec *models.PremiumRecord) error
	Delete(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
}

type CodeStore interface {
	Create(ctx context.Context, code string, durationDays int) error
	Claim(ctx context.Context, code string) (*models.RedeemCode, error)
	Count(ctx context.Context) (int, error)
}

// EntitlementService decides who may use gated operations. The owner is
// authorized unconditionally and never has a stored record consulted or
// created.
type EntitlementService struct {
	ownerID int64
	premium PremiumStore
	codes   CodeStore
	now     func() time.Time
}

func NewEntitlementService(ownerID int64, premium PremiumStore, codes CodeStore) *EntitlementService {
	return &EntitlementService{
		ownerID: ownerID,
		premium: premium,
		codes:   codes,
		now:     time.Now,
	}
}

// IsOwner reports whether the id is the configured owner.
func (s *EntitlementService) IsOwner(userID int64) bool {
	return userID == s.ownerID
}

// Check reports whether the user may use gated operations. An expired record
// is deleted as a side effect before returning false; there is no scheduled
// sweep.
func (s *EntitlementService) Check(ctx context.Context, userID int64) (bool, error) {
	if s.IsOwner(userID) {
		return true, nil
	}
	rec, err := s.premium.Find(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("find premium record: %w", err)
	}
	if rec == nil {
		return false, nil
	}
	if !rec.PremiumUntil.After(s.now()) {
		if err := s.premium.Delete(ctx, userID); err != nil {
			return false, fmt.Errorf("purge expired record: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// Grant sets the premium window to now + days, overwriting any existing
// window. Extension is what Redeem does; Grant deliberately does not.
func (s *EntitlementService) Grant(ctx context.Context, userID int64, days int) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, fmt.Errorf("days must be positive")
	}
	until := s.now().AddDate(0, 0, days)
	if s.IsOwner(userID) {
		return until, nil
	}
	rec := &models.PremiumRecord{UserID: userID, PremiumUntil: until}
	if err := s.premium.Upsert(ctx, rec); err != nil {
		return time.Time{}, fmt.Errorf("grant premium: %w", err)
	}
	return until, nil
}

// Revoke deletes any stored record for the user, unconditionally.
func (s *EntitlementService) Revoke(ctx context.Context, userID int64) error {
	if s.IsOwner(userID) {
		return nil
	}
	if err := s.premium.Delete(ctx, userID); err != nil {
		return fmt.Errorf("revoke premium: %w", err)
	}
	return nil
}

// GenerateCodes creates count single-use codes worth days each and returns
// the tokens for out-of-band distribution.
func (s *EntitlementService) GenerateCodes(ctx context.Context, count, days int) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive")
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive")
	}
	tokens := make([]string, 0, count)
	for i := 0; i < count; i++ {
		token, err := newToken()
		if err != nil {
			return nil, err
		}
		if err := s.codes.Create(ctx, token, days); err != nil {
			return nil, fmt.Errorf("store redeem code: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// Redeem consumes a code and extends the user's window by its duration. The
// base is the current expiry when it is still in the future, otherwise now:
// stacking codes never shortens an active window.
func (s *EntitlementService) Redeem(ctx context.Context, userID int64, token string) (time.Time, error) {
	claimed, err := s.codes.Claim(ctx, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("claim redeem code: %w", err)
	}
	if claimed == nil {
		return time.Time{}, ErrCodeInvalid
	}

	now := s.now()
	base := now
	existing, err := s.premium.Find(ctx, userID)
	if err != nil {
		return time.Time{}, fmt.Errorf("find premium record: %w", err)
	}
	if existing != nil && existing.PremiumUntil.After(now) {
		base = existing.PremiumUntil
	}

	until := base.AddDate(0, 0, claimed.DurationDays)
	rec := &models.PremiumRecord{UserID: userID, PremiumUntil: until}
	if err := s.premium.Upsert(ctx, rec); err != nil {
		return time.Time{}, fmt.Errorf("store extended window: %w", err)
	}
	return until, nil
}

// Stats returns the number of active-or-stale premium records and unredeemed
// codes for the owner menu.
func (s *EntitlementService) Stats(ctx context.Context) (premiumUsers, unredeemedCodes int, err error) {
	premiumUsers, err = s.premium.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count premium users: %w", err)
	}
	unredeemedCodes, err = s.codes.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count redeem codes: %w", err)
	}
	return premiumUsers, unredeemedCodes, nil
}

// tokenAlphabet avoids characters that read ambiguously in chat messages.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newToken() (string, error) {
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	buf := make([]byte, 0, 14)
	for i, b := range raw {
		if i > 0 && i%4 == 0 {
			buf = append(buf, '-')
		}
		buf = append(buf, tokenAlphabet[int(b)%len(tokenAlphabet)])
	}
	return string(buf), nil
}
