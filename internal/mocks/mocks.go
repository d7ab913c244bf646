package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"chattat-service/internal/models"
	"chattat-service/internal/repositories"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) Ensure(ctx context.Context, userID uuid.UUID, email, username string) (models.Profile, error) {
	args := m.Called(ctx, userID, email, username)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByUserID(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	args := m.Called(ctx, userID)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) GetByUsername(ctx context.Context, username string) (models.Profile, error) {
	args := m.Called(ctx, username)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) Update(ctx context.Context, userID uuid.UUID, update repositories.ProfileUpdate) (models.Profile, error) {
	args := m.Called(ctx, userID, update)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *ProfileRepositoryMock) SetAvatarURL(ctx context.Context, userID uuid.UUID, url string) error {
	args := m.Called(ctx, userID, url)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error) {
	args := m.Called(ctx, userIDs)
	var snapshots map[uuid.UUID]models.ProfileSnapshot
	if val := args.Get(0); val != nil {
		snapshots = val.(map[uuid.UUID]models.ProfileSnapshot)
	}
	return snapshots, args.Error(1)
}

func (m *ProfileRepositoryMock) TopByCharms(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	args := m.Called(ctx, limit)
	var entries []models.RankingEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.RankingEntry)
	}
	return entries, args.Error(1)
}

func (m *ProfileRepositoryMock) AwardCharms(ctx context.Context, userID uuid.UUID, amount int, source string, metadata []byte) error {
	args := m.Called(ctx, userID, amount, source, metadata)
	return args.Error(0)
}

type ConnectionRepositoryMock struct {
	mock.Mock
}

func (m *ConnectionRepositoryMock) Create(ctx context.Context, userID, friendID uuid.UUID) (models.Connection, error) {
	args := m.Called(ctx, userID, friendID)
	var conn models.Connection
	if val := args.Get(0); val != nil {
		conn = val.(models.Connection)
	}
	return conn, args.Error(1)
}

func (m *ConnectionRepositoryMock) Get(ctx context.Context, id uuid.UUID) (models.Connection, error) {
	args := m.Called(ctx, id)
	var conn models.Connection
	if val := args.Get(0); val != nil {
		conn = val.(models.Connection)
	}
	return conn, args.Error(1)
}

func (m *ConnectionRepositoryMock) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *ConnectionRepositoryMock) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

func (m *ConnectionRepositoryMock) ListIncomingPending(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	args := m.Called(ctx, userID)
	var conns []models.Connection
	if val := args.Get(0); val != nil {
		conns = val.([]models.Connection)
	}
	return conns, args.Error(1)
}

func (m *ConnectionRepositoryMock) ExistsBetween(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *ConnectionRepositoryMock) AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, friendID)
	return args.Bool(0), args.Error(1)
}

func (m *ConnectionRepositoryMock) DeleteBetween(ctx context.Context, userID, friendID uuid.UUID) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

type DirectMessageRepositoryMock struct {
	mock.Mock
}

func (m *DirectMessageRepositoryMock) Create(ctx context.Context, senderID, receiverID uuid.UUID, content string) (models.DirectMessage, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.DirectMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.DirectMessage)
	}
	return msg, args.Error(1)
}

func (m *DirectMessageRepositoryMock) ListBetween(ctx context.Context, userID, friendID uuid.UUID) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userID, friendID)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

func (m *DirectMessageRepositoryMock) MarkRead(ctx context.Context, receiverID, senderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, receiverID, senderID)
	return args.Get(0).(int64), args.Error(1)
}

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) Create(ctx context.Context, creatorID uuid.UUID, name, code string, isPublic bool) (models.Room, error) {
	args := m.Called(ctx, creatorID, name, code, isPublic)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetByID(ctx context.Context, roomID uuid.UUID) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetByCode(ctx context.Context, code string) (models.Room, error) {
	args := m.Called(ctx, code)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListVisible(ctx context.Context, userID uuid.UUID) ([]models.Room, error) {
	args := m.Called(ctx, userID)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomRepositoryMock) TouchActivity(ctx context.Context, roomID uuid.UUID) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type RoomMemberRepositoryMock struct {
	mock.Mock
}

func (m *RoomMemberRepositoryMock) Activate(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomMemberRepositoryMock) Deactivate(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *RoomMemberRepositoryMock) IsActiveMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

type RoomMessageRepositoryMock struct {
	mock.Mock
}

func (m *RoomMessageRepositoryMock) Create(ctx context.Context, roomID, userID uuid.UUID, content string) (models.RoomMessage, error) {
	args := m.Called(ctx, roomID, userID, content)
	var msg models.RoomMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.RoomMessage)
	}
	return msg, args.Error(1)
}

func (m *RoomMessageRepositoryMock) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]models.RoomMessage, error) {
	args := m.Called(ctx, roomID, limit)
	var msgs []models.RoomMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.RoomMessage)
	}
	return msgs, args.Error(1)
}

type SnapshotSourceMock struct {
	mock.Mock
}

func (m *SnapshotSourceMock) Snapshots(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.ProfileSnapshot, error) {
	args := m.Called(ctx, userIDs)
	var snapshots map[uuid.UUID]models.ProfileSnapshot
	if val := args.Get(0); val != nil {
		snapshots = val.(map[uuid.UUID]models.ProfileSnapshot)
	}
	return snapshots, args.Error(1)
}
