package bootstrap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/vehiclerental/api"
	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/Domenick1991/vehiclerental/internal/repository"
	"github.com/Domenick1991/vehiclerental/internal/service/availability"
	"github.com/Domenick1991/vehiclerental/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var secret = []byte("router-test-secret")

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Path    string          `json:"path"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryBookingRepository()
	return NewRouter(RouterDeps{
		Bookings:     booking.NewBookingService(repo, zap.NewNop(), booking.WithReferences(repo)),
		Availability: availability.NewChecker(repo),
		JWTSecret:    secret,
		Logger:       zap.NewNop(),
	})
}

func token(t *testing.T, role domain.Role, userID int64) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, api.Claims{UserID: userID, Role: role}).SignedString(secret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(t *testing.T, r *gin.Engine, method, path, auth string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestRouter_BookingLifecycle(t *testing.T) {
	r := newTestRouter(t)
	admin := token(t, domain.RoleAdmin, 1)
	alice := token(t, domain.RoleCustomer, 5)
	bob := token(t, domain.RoleCustomer, 6)

	code, env := do(t, r, http.MethodPost, "/api/v1/bookings", alice, map[string]interface{}{
		"vehicle_id": 7, "rent_start_date": "2024-01-10", "rent_end_date": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, env = do(t, r, http.MethodPost, "/api/v1/bookings", bob, map[string]interface{}{
		"vehicle_id": 7, "rent_start_date": "2024-01-12", "rent_end_date": "2024-01-20",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Code)

	code, env = do(t, r, http.MethodGet, "/api/v1/vehicles/7/availability?start=2024-01-12&end=2024-01-20", bob, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"available":false`)

	bookingPath := fmt.Sprintf("/api/v1/bookings/%d", created.ID)

	code, _ = do(t, r, http.MethodPut, bookingPath, alice, map[string]string{"status": "returned"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, r, http.MethodPut, bookingPath, bob, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = do(t, r, http.MethodPut, bookingPath, admin, map[string]string{"status": "returned"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Booking marked as returned. Vehicle is now available", env.Message)

	code, _ = do(t, r, http.MethodPut, bookingPath, admin, map[string]string{"status": "returned"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/bookings", bob, map[string]interface{}{
		"vehicle_id": 7, "rent_start_date": "2024-01-12", "rent_end_date": "2024-01-20",
	})
	assert.Equal(t, http.StatusCreated, code)

	code, env = do(t, r, http.MethodGet, "/api/v1/bookings", alice, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Your bookings retrieved successfully", env.Message)

	code, env = do(t, r, http.MethodGet, "/api/v1/bookings", token(t, domain.RoleCustomer, 99), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "You have no previous bookings", env.Message)
	assert.JSONEq(t, `[]`, string(env.Data))

	code, env = do(t, r, http.MethodGet, "/api/v1/bookings", admin, nil)
	assert.Equal(t, http.StatusOK, code)
	var all []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 2)
}

func TestRouter_Unauthenticated(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodGet, "/api/v1/bookings", "", nil)

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestRouter_LivenessAndNotFound(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "Vehicle Renteal Service System Server is Running", env.Message)

	code, env = do(t, r, http.MethodGet, "/api/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", env.Message)
	assert.Equal(t, "/api/v2/nothing", env.Path)
}

func TestRouter_OpenAPI(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, openAPIPath, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc["basePath"])
}
