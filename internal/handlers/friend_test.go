package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chattat-service/internal/mocks"
	"chattat-service/internal/models"
	"chattat-service/internal/repositories"
)

func setupFriendRouter(handler *FriendHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(identityMiddleware)
	r.GET("/friends", handler.ListFriends)
	r.GET("/friends/requests", handler.ListRequests)
	r.POST("/friends/requests", handler.CreateRequest)
	r.POST("/friends/requests/:id/accept", handler.Accept)
	r.POST("/friends/requests/:id/reject", handler.Reject)
	r.DELETE("/friends/:friend_id", handler.Unfriend)
	return r
}

func TestListFriendsEnriched(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	snapshots := new(mocks.SnapshotSourceMock)
	handler := NewFriendHandler(connections, nil, snapshots, nil)
	router := setupFriendRouter(handler)

	friendID := uuid.New()
	connections.On("ListFriendIDs", mock.Anything, testUserID).Return([]uuid.UUID{friendID}, nil).Once()
	snapshots.On("Snapshots", mock.Anything, []uuid.UUID{friendID}).
		Return(map[uuid.UUID]models.ProfileSnapshot{friendID: {UserID: friendID, Username: "bob", Level: 2}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Friends []models.ProfileSnapshot `json:"friends"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Friends, 1)
	require.Equal(t, "bob", resp.Friends[0].Username)
	connections.AssertExpectations(t)
	snapshots.AssertExpectations(t)
}

func TestListRequestsResolvesSenders(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	snapshots := new(mocks.SnapshotSourceMock)
	handler := NewFriendHandler(connections, nil, snapshots, nil)
	router := setupFriendRouter(handler)

	senderID := uuid.New()
	requestID := uuid.New()
	connections.On("ListIncomingPending", mock.Anything, testUserID).
		Return([]models.Connection{{ID: requestID, UserID: senderID, FriendID: testUserID, Status: models.ConnectionPending}}, nil).Once()
	snapshots.On("Snapshots", mock.Anything, []uuid.UUID{senderID}).
		Return(map[uuid.UUID]models.ProfileSnapshot{senderID: {UserID: senderID, Username: "carol"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends/requests", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Requests []models.FriendRequestView `json:"requests"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Requests, 1)
	require.Equal(t, "carol", resp.Requests[0].Sender.Username)
	connections.AssertExpectations(t)
}

func TestCreateRequestRejectsSelf(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	handler := NewFriendHandler(connections, new(mocks.ProfileRepositoryMock), new(mocks.SnapshotSourceMock), nil)
	router := setupFriendRouter(handler)

	body := bytes.NewBufferString(`{"friend_id":"` + testUserID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/friends/requests", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	connections.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRequestDuplicateEdge(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	profiles := new(mocks.ProfileRepositoryMock)
	handler := NewFriendHandler(connections, profiles, new(mocks.SnapshotSourceMock), nil)
	router := setupFriendRouter(handler)

	friendID := uuid.New()
	profiles.On("GetByUserID", mock.Anything, friendID).Return(models.Profile{UserID: friendID}, nil).Once()
	connections.On("Create", mock.Anything, testUserID, friendID).
		Return(models.Connection{}, repositories.ErrConnectionExists).Once()

	body := bytes.NewBufferString(`{"friend_id":"` + friendID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/friends/requests", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	connections.AssertExpectations(t)
}

func TestAcceptRecipientOnly(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	handler := NewFriendHandler(connections, nil, new(mocks.SnapshotSourceMock), nil)
	router := setupFriendRouter(handler)

	requestID := uuid.New()
	connections.On("Get", mock.Anything, requestID).
		Return(models.Connection{ID: requestID, UserID: testUserID, FriendID: uuid.New(), Status: models.ConnectionPending}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/"+requestID.String()+"/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	connections.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptPendingRequest(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	handler := NewFriendHandler(connections, nil, new(mocks.SnapshotSourceMock), nil)
	router := setupFriendRouter(handler)

	requestID := uuid.New()
	connections.On("Get", mock.Anything, requestID).
		Return(models.Connection{ID: requestID, UserID: uuid.New(), FriendID: testUserID, Status: models.ConnectionPending}, nil).Once()
	connections.On("UpdateStatus", mock.Anything, requestID, models.ConnectionAccepted).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/"+requestID.String()+"/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	connections.AssertExpectations(t)
}

func TestRejectAlreadyDecided(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	handler := NewFriendHandler(connections, nil, new(mocks.SnapshotSourceMock), nil)
	router := setupFriendRouter(handler)

	requestID := uuid.New()
	connections.On("Get", mock.Anything, requestID).
		Return(models.Connection{ID: requestID, UserID: uuid.New(), FriendID: testUserID, Status: models.ConnectionPending}, nil).Once()
	connections.On("UpdateStatus", mock.Anything, requestID, models.ConnectionRejected).
		Return(repositories.ErrConnectionNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/requests/"+requestID.String()+"/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	connections.AssertExpectations(t)
}

func TestUnfriendIsIdempotent(t *testing.T) {
	connections := new(mocks.ConnectionRepositoryMock)
	handler := NewFriendHandler(connections, nil, new(mocks.SnapshotSourceMock), nil)
	router := setupFriendRouter(handler)

	friendID := uuid.New()
	connections.On("DeleteBetween", mock.Anything, testUserID, friendID).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/"+friendID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	connections.AssertExpectations(t)
}
