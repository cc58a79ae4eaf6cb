package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerstat/sellerstat_api/internal/config"
	"github.com/sellerstat/sellerstat_api/internal/models"
	"github.com/sellerstat/sellerstat_api/internal/service"
	"github.com/sellerstat/sellerstat_api/internal/utils"
)

type memoryUserStore struct {
	byID   map[int64]*models.User
	nextID int64
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byID: make(map[int64]*models.User)}
}

func (s *memoryUserStore) GetByUsername(username string) (*models.User, error) {
	for _, u := range s.byID {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, utils.ErrUserNotFound
}

func (s *memoryUserStore) GetByID(id int64) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, utils.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memoryUserStore) Create(u *models.User) error {
	s.nextID++
	u.ID = s.nextID
	stored := *u
	s.byID[u.ID] = &stored
	return nil
}

func (s *memoryUserStore) BindDevice(userID int64, deviceID string) error {
	s.byID[userID].DeviceID = &deviceID
	return nil
}

func (s *memoryUserStore) BumpTokenVersion(userID int64) (int64, error) {
	s.byID[userID].TokenVersion++
	return s.byID[userID].TokenVersion, nil
}

func (s *memoryUserStore) ResetDevice(userID int64) error {
	s.byID[userID].DeviceID = nil
	s.byID[userID].TokenVersion++
	return nil
}

func (s *memoryUserStore) SetPaymentStatus(userID int64, status models.PaymentStatus) error {
	s.byID[userID].PaymentStatus = status
	return nil
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *memoryUserStore, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemoryUserStore()
	authSvc := service.NewAuthService(store, config.JWTConfig{
		Secret:     "unit-test-secret",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	jwtMw := NewJWTMiddleware(authSvc)

	router := gin.New()
	router.GET("/protected", jwtMw.Handle(), jwtMw.RequireDevice(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/staff", jwtMw.Handle(), jwtMw.RequireStaff(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router, store, authSvc
}

func loginTestUser(t *testing.T, svc *service.AuthService, phone, device string) *service.TokenPair {
	t.Helper()
	_, err := svc.Register(phone, "secret123", "", "")
	require.NoError(t, err)
	_, tokens, err := svc.Login(phone, "secret123", device)
	require.NoError(t, err)
	return tokens
}

func doRequest(router *gin.Engine, path, token, device string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if device != "" {
		req.Header.Set(DeviceHeader, device)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleAcceptsBoundDevice(t *testing.T) {
	router, _, authSvc := setupAuthRouter(t)
	tokens := loginTestUser(t, authSvc, "+77001112233", "device-aaa")

	w := doRequest(router, "/protected", tokens.Access, "device-aaa")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleRejectsMissingOrMalformedHeader(t *testing.T) {
	router, _, _ := setupAuthRouter(t)

	w := doRequest(router, "/protected", "", "device-aaa")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDeviceRejectsWrongHeader(t *testing.T) {
	router, _, authSvc := setupAuthRouter(t)
	tokens := loginTestUser(t, authSvc, "+77001112233", "device-aaa")

	w := doRequest(router, "/protected", tokens.Access, "device-bbb")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, "/protected", tokens.Access, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleRejectsRevokedToken(t *testing.T) {
	router, _, authSvc := setupAuthRouter(t)
	tokens := loginTestUser(t, authSvc, "+77001112233", "device-aaa")

	// A later login revokes the earlier pair.
	_, fresh, err := authSvc.Login("+77001112233", "secret123", "device-aaa")
	require.NoError(t, err)

	w := doRequest(router, "/protected", tokens.Access, "device-aaa")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, "/protected", fresh.Access, "device-aaa")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireStaff(t *testing.T) {
	router, store, authSvc := setupAuthRouter(t)
	tokens := loginTestUser(t, authSvc, "+77001112233", "device-aaa")

	w := doRequest(router, "/staff", tokens.Access, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, u := range store.byID {
		u.IsStaff = true
	}
	w = doRequest(router, "/staff", tokens.Access, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
