package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chattat-service/internal/mocks"
	"chattat-service/internal/models"
	"chattat-service/internal/repositories"
	"chattat-service/internal/ws"
)

type roomMocks struct {
	rooms     *mocks.RoomRepositoryMock
	members   *mocks.RoomMemberRepositoryMock
	messages  *mocks.RoomMessageRepositoryMock
	profiles  *mocks.ProfileRepositoryMock
	snapshots *mocks.SnapshotSourceMock
}

func setupRoomRouter(m roomMocks) *gin.Engine {
	handler := NewRoomHandler(m.rooms, m.members, m.messages, m.profiles, m.snapshots,
		ws.NewHub(zap.NewNop()), ws.NewActivityTracker(ws.BannerLifetime), nil, 100, 10)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(identityMiddleware)
	r.GET("/rooms", handler.ListRooms)
	r.POST("/rooms", handler.CreateRoom)
	r.POST("/rooms/join", handler.JoinByCode)
	r.POST("/rooms/:room_id/join", handler.Join)
	r.POST("/rooms/:room_id/leave", handler.Leave)
	r.GET("/rooms/:room_id/messages", handler.ListMessages)
	r.POST("/rooms/:room_id/messages", handler.PostMessage)
	return r
}

func newRoomMocks() roomMocks {
	return roomMocks{
		rooms:     new(mocks.RoomRepositoryMock),
		members:   new(mocks.RoomMemberRepositoryMock),
		messages:  new(mocks.RoomMessageRepositoryMock),
		profiles:  new(mocks.ProfileRepositoryMock),
		snapshots: new(mocks.SnapshotSourceMock),
	}
}

func TestCreateRoomGeneratesSixDigitCode(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	codePattern := regexp.MustCompile(`^[1-9]\d{5}$`)
	m.rooms.On("Create", mock.Anything, testUserID, "lounge", mock.MatchedBy(func(code string) bool {
		return codePattern.MatchString(code)
	}), true).Return(models.Room{ID: uuid.New(), Name: "lounge", Code: "123456"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"lounge"}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.rooms.AssertExpectations(t)
}

func TestJoinByCodeUnknownCode(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	m.rooms.On("GetByCode", mock.Anything, "999999").
		Return(models.Room{}, repositories.ErrRoomNotFound).Once()

	body := bytes.NewBufferString(`{"code":"999999"}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms/join", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "Room not found", resp["error"])
	m.rooms.AssertExpectations(t)
}

func TestJoinByCodeFullRoomMutatesNothing(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	m.rooms.On("GetByCode", mock.Anything, "123456").
		Return(models.Room{ID: uuid.New(), Code: "123456", MaxMembers: 4, ActiveMembers: 4}, nil).Once()

	body := bytes.NewBufferString(`{"code":"123456"}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms/join", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	m.members.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoinTransitionAndRepeatJoin(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	roomID := uuid.New()
	m.rooms.On("GetByID", mock.Anything, roomID).
		Return(models.Room{ID: roomID, Name: "lounge"}, nil).Twice()
	m.members.On("Activate", mock.Anything, roomID, testUserID).Return(true, nil).Once()
	m.members.On("Activate", mock.Anything, roomID, testUserID).Return(false, nil).Once()
	m.snapshots.On("Snapshots", mock.Anything, []uuid.UUID{testUserID}).
		Return(map[uuid.UUID]models.ProfileSnapshot{testUserID: {UserID: testUserID, Username: "ana"}}, nil).Once()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/rooms/"+roomID.String()+"/join", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	m.members.AssertExpectations(t)
}

func setupRoomRouterWithTracker(m roomMocks, tracker *ws.ActivityTracker) *gin.Engine {
	handler := NewRoomHandler(m.rooms, m.members, m.messages, m.profiles, m.snapshots,
		ws.NewHub(zap.NewNop()), tracker, nil, 100, 10)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(identityMiddleware)
	r.POST("/rooms/:room_id/join", handler.Join)
	return r
}

func TestJoinBannerUsesCurrentProfileUsername(t *testing.T) {
	m := newRoomMocks()
	tracker := ws.NewActivityTracker(time.Minute)
	router := setupRoomRouterWithTracker(m, tracker)

	roomID := uuid.New()
	m.rooms.On("GetByID", mock.Anything, roomID).Return(models.Room{ID: roomID}, nil).Once()
	m.members.On("Activate", mock.Anything, roomID, testUserID).Return(true, nil).Once()
	m.snapshots.On("Snapshots", mock.Anything, []uuid.UUID{testUserID}).
		Return(map[uuid.UUID]models.ProfileSnapshot{testUserID: {UserID: testUserID, Username: "renamed-ana"}}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/"+roomID.String()+"/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	banners := tracker.Active(roomID)
	require.Len(t, banners, 1)
	require.Equal(t, "renamed-ana", banners[0].Username)
	m.snapshots.AssertExpectations(t)
}

func TestJoinBannerFallsBackToClaimOnLookupFailure(t *testing.T) {
	m := newRoomMocks()
	tracker := ws.NewActivityTracker(time.Minute)
	router := setupRoomRouterWithTracker(m, tracker)

	roomID := uuid.New()
	m.rooms.On("GetByID", mock.Anything, roomID).Return(models.Room{ID: roomID}, nil).Once()
	m.members.On("Activate", mock.Anything, roomID, testUserID).Return(true, nil).Once()
	m.snapshots.On("Snapshots", mock.Anything, []uuid.UUID{testUserID}).
		Return((map[uuid.UUID]models.ProfileSnapshot)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/"+roomID.String()+"/join", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	banners := tracker.Active(roomID)
	require.Len(t, banners, 1)
	require.Equal(t, "ana", banners[0].Username)
}

func TestLeaveNeverJoinedIsNoOp(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	roomID := uuid.New()
	m.members.On("Deactivate", mock.Anything, roomID, testUserID).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/"+roomID.String()+"/leave", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	m.members.AssertExpectations(t)
}

func TestListRoomMessagesEnrichesSenders(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	roomID := uuid.New()
	authorID := uuid.New()
	m.members.On("IsActiveMember", mock.Anything, roomID, testUserID).Return(true, nil).Once()
	m.messages.On("ListRecent", mock.Anything, roomID, 100).
		Return([]models.RoomMessage{
			{ID: uuid.New(), RoomID: roomID, UserID: authorID, Content: "hi"},
			{ID: uuid.New(), RoomID: roomID, UserID: authorID, Content: "again"},
		}, nil).Once()
	m.snapshots.On("Snapshots", mock.Anything, []uuid.UUID{authorID}).
		Return(map[uuid.UUID]models.ProfileSnapshot{authorID: {UserID: authorID, Username: "bob", Level: 4}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+roomID.String()+"/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.RoomMessageView `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	require.NotNil(t, resp.Messages[0].Sender)
	require.Equal(t, "bob", resp.Messages[0].Sender.Username)
	m.snapshots.AssertExpectations(t)
}

func TestListRoomMessagesNonMember(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	roomID := uuid.New()
	m.members.On("IsActiveMember", mock.Anything, roomID, testUserID).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/"+roomID.String()+"/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	m.messages.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostRoomMessageWhitespaceIsNoOp(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	roomID := uuid.New()
	m.members.On("IsActiveMember", mock.Anything, roomID, testUserID).Return(true, nil).Once()

	body := bytes.NewBufferString(`{"content":"  \n "}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms/"+roomID.String()+"/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	m.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostRoomMessageBumpsActivityAndCharms(t *testing.T) {
	m := newRoomMocks()
	router := setupRoomRouter(m)

	roomID := uuid.New()
	m.members.On("IsActiveMember", mock.Anything, roomID, testUserID).Return(true, nil).Once()
	m.messages.On("Create", mock.Anything, roomID, testUserID, "hello").
		Return(models.RoomMessage{ID: uuid.New(), RoomID: roomID, UserID: testUserID, Content: "hello"}, nil).Once()
	m.rooms.On("TouchActivity", mock.Anything, roomID).Return(nil).Once()
	m.profiles.On("AwardCharms", mock.Anything, testUserID, 10, "room_message", []byte(nil)).Return(nil).Once()

	body := bytes.NewBufferString(`{"content":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/rooms/"+roomID.String()+"/messages", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	m.rooms.AssertExpectations(t)
	m.profiles.AssertExpectations(t)
}
