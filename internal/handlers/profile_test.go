package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chattat-service/internal/cache"
	"chattat-service/internal/mocks"
	"chattat-service/internal/models"
	"chattat-service/internal/repositories"
)

var testUserID = uuid.MustParse("7c9a1f7e-9a07-4c0f-8baf-1df1b823ce20")

func identityMiddleware(c *gin.Context) {
	c.Set("userID", testUserID)
	c.Set("email", "ana@example.com")
	c.Set("username", "ana")
	c.Next()
}

func setupProfileRouter(handler *ProfileHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(identityMiddleware)
	r.POST("/profiles", handler.Bootstrap)
	r.GET("/profiles/me", handler.Me)
	r.PATCH("/profiles/me", handler.UpdateMe)
	r.GET("/profiles/me/progress", handler.Progress)
	r.GET("/profiles/lookup", handler.Lookup)
	r.GET("/rankings", handler.Rankings)
	return r
}

func newProfileHandler(profiles *mocks.ProfileRepositoryMock) *ProfileHandler {
	snapshotCache := cache.NewProfileCache(profiles, nil, time.Minute, zap.NewNop())
	return NewProfileHandler(profiles, snapshotCache, nil, nil)
}

func TestBootstrapReturnsProfile(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	profiles.On("Ensure", mock.Anything, testUserID, "ana@example.com", "ana").
		Return(models.Profile{UserID: testUserID, Username: "ana"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/profiles", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profiles.AssertExpectations(t)
}

func TestMeNotFoundIsNormalOutcome(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	profiles.On("GetByUserID", mock.Anything, testUserID).
		Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/profiles/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	profiles.AssertExpectations(t)
}

func TestUpdateMeAppliesFields(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	profiles.On("Update", mock.Anything, testUserID, mock.MatchedBy(func(u repositories.ProfileUpdate) bool {
		return u.Username != nil && *u.Username == "ana2" && u.Bio != nil && *u.Bio == "hello"
	})).Return(models.Profile{UserID: testUserID, Username: "ana2", Bio: "hello"}, nil).Once()

	body := bytes.NewBufferString(`{"username":"ana2","bio":"hello"}`)
	req := httptest.NewRequest(http.MethodPatch, "/profiles/me", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profiles.AssertExpectations(t)
}

func TestUpdateMeRejectsEmptyUsername(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	req := httptest.NewRequest(http.MethodPatch, "/profiles/me", bytes.NewBufferString(`{"username":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	profiles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestProgressHalfwayThroughLevelThree(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	profiles.On("GetByUserID", mock.Anything, testUserID).
		Return(models.Profile{UserID: testUserID, Charms: 2500, Level: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/profiles/me/progress", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Level   int     `json:"level"`
		XP      int     `json:"xp"`
		Percent float64 `json:"percent"`
		ToNext  int     `json:"to_next"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 3, resp.Level)
	require.Equal(t, 500, resp.XP)
	require.InDelta(t, 50.0, resp.Percent, 0.001)
	require.Equal(t, 500, resp.ToNext)
	profiles.AssertExpectations(t)
}

func TestLookupUnknownUsername(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	profiles.On("GetByUsername", mock.Anything, "ghost").
		Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/profiles/lookup?username=ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "no user with that username", resp["error"])
	profiles.AssertExpectations(t)
}

func TestRankingsReturnsLeaderboard(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	router := setupProfileRouter(newProfileHandler(profiles))

	profiles.On("TopByCharms", mock.Anything, 50).
		Return([]models.RankingEntry{{Username: "ana", CharmsTotal: 9000}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rankings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profiles.AssertExpectations(t)
}
