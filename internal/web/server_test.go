package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moviegate/postbot/internal/models"
	"github.com/moviegate/postbot/internal/service"
)

type MockPostReader struct {
	mock.Mock
}

func (m *MockPostReader) Retrieve(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

type MockOfferManager struct {
	mock.Mock
}

func (m *MockOfferManager) List(ctx context.Context) ([]models.Offer, error) {
	args := m.Called(ctx)
	offers, _ := args.Get(0).([]models.Offer)
	return offers, args.Error(1)
}

func (m *MockOfferManager) Create(ctx context.Context, input service.CreateOfferInput) (*models.Offer, error) {
	args := m.Called(ctx, input)
	offer, _ := args.Get(0).(*models.Offer)
	return offer, args.Error(1)
}

func (m *MockOfferManager) Update(ctx context.Context, id int64, input service.UpdateOfferInput) (*models.Offer, error) {
	args := m.Called(ctx, id, input)
	offer, _ := args.Get(0).(*models.Offer)
	return offer, args.Error(1)
}

func (m *MockOfferManager) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLedgerAdmin struct {
	mock.Mock
}

func (m *MockLedgerAdmin) Grant(ctx context.Context, userID int64, days int) (time.Time, error) {
	args := m.Called(ctx, userID, days)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockLedgerAdmin) Revoke(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockLedgerAdmin) GenerateCodes(ctx context.Context, count, days int) ([]string, error) {
	args := m.Called(ctx, count, days)
	tokens, _ := args.Get(0).([]string)
	return tokens, args.Error(1)
}

func newTestServer(posts *MockPostReader, offers *MockOfferManager, ledger *MockLedgerAdmin) *Server {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewServer(":0", "admin", "secret", log, posts, offers, ledger)
}

func TestRootLiveness(t *testing.T) {
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), new(MockLedgerAdmin))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bot is online.", rec.Body.String())
}

func TestPreviewServesStoredHTML(t *testing.T) {
	posts := new(MockPostReader)
	posts.On("Retrieve", mock.Anything, "abc-123").Return(&models.Post{
		ID:   "abc-123",
		HTML: "<div>gated post</div>",
	}, nil)
	srv := newTestServer(posts, new(MockOfferManager), new(MockLedgerAdmin))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/abc-123", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<div>gated post</div>", rec.Body.String())
}

func TestPreviewNotFound(t *testing.T) {
	posts := new(MockPostReader)
	posts.On("Retrieve", mock.Anything, "missing").Return(nil, service.ErrPostNotFound)
	srv := newTestServer(posts, new(MockOfferManager), new(MockLedgerAdmin))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/preview/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRequiresBasicAuth(t *testing.T) {
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), new(MockLedgerAdmin))

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"list offers", http.MethodGet, "/offers"},
		{"create offer", http.MethodPost, "/offers"},
		{"generate codes", http.MethodPost, "/codes"},
		{"grant", http.MethodPost, "/premium/grant"},
		{"revoke", http.MethodPost, "/premium/revoke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.SetBasicAuth("admin", "wrong")
			srv.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestListOffers(t *testing.T) {
	offers := new(MockOfferManager)
	offers.On("List", mock.Anything).Return([]models.Offer{
		{ID: 1, Title: "1 Month", Price: "99", DurationDays: 30},
	}, nil)
	srv := newTestServer(new(MockPostReader), offers, new(MockLedgerAdmin))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/offers", nil)
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "1 Month", got[0].Title)
}

func TestCreateOffer(t *testing.T) {
	offers := new(MockOfferManager)
	offers.On("Create", mock.Anything, service.CreateOfferInput{
		Title:        "3 Months",
		Price:        "249",
		DurationDays: 90,
	}).Return(&models.Offer{ID: 2, Title: "3 Months", Price: "249", DurationDays: 90}, nil)
	srv := newTestServer(new(MockPostReader), offers, new(MockLedgerAdmin))

	body := strings.NewReader(`{"title":"3 Months","price":"249","duration_days":90}`)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/offers", body)
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(2), got.ID)
	offers.AssertExpectations(t)
}

func TestCreateOfferRejectsBadJSON(t *testing.T) {
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), new(MockLedgerAdmin))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/offers", strings.NewReader("{not json"))
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOffer(t *testing.T) {
	offers := new(MockOfferManager)
	offers.On("Delete", mock.Anything, int64(5)).Return(nil)
	srv := newTestServer(new(MockPostReader), offers, new(MockLedgerAdmin))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/offers/5", nil)
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	offers.AssertExpectations(t)
}

func TestGenerateCodes(t *testing.T) {
	ledger := new(MockLedgerAdmin)
	ledger.On("GenerateCodes", mock.Anything, 2, 30).Return([]string{"AAAA-BBBB-CCCC", "DDDD-EEEE-FFFF"}, nil)
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), ledger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/codes", strings.NewReader(`{"count":2,"days":30}`))
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got struct {
		Codes []string `json:"codes"`
		Days  int      `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Codes, 2)
	assert.Equal(t, 30, got.Days)
}

func TestGrant(t *testing.T) {
	until := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	ledger := new(MockLedgerAdmin)
	ledger.On("Grant", mock.Anything, int64(7), 30).Return(until, nil)
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), ledger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/premium/grant", strings.NewReader(`{"user_id":7,"days":30}`))
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	ledger.AssertExpectations(t)
}

func TestRevoke(t *testing.T) {
	ledger := new(MockLedgerAdmin)
	ledger.On("Revoke", mock.Anything, int64(7)).Return(nil)
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), ledger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/premium/revoke", strings.NewReader(`{"user_id":7}`))
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	ledger.AssertExpectations(t)
}

func TestRevokeRequiresUserID(t *testing.T) {
	ledger := new(MockLedgerAdmin)
	srv := newTestServer(new(MockPostReader), new(MockOfferManager), ledger)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/premium/revoke", strings.NewReader(`{}`))
	req.SetBasicAuth("admin", "secret")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ledger.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}
