package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chattat-service/internal/mocks"
	"chattat-service/internal/models"
)

func TestSnapshotsPassThroughWithoutRedis(t *testing.T) {
	source := new(mocks.SnapshotSourceMock)
	profileCache := NewProfileCache(source, nil, time.Minute, zap.NewNop())

	id := uuid.New()
	source.On("Snapshots", mock.Anything, []uuid.UUID{id}).
		Return(map[uuid.UUID]models.ProfileSnapshot{id: {UserID: id, Username: "ana"}}, nil).Once()

	snapshots, err := profileCache.Snapshots(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	require.Equal(t, "ana", snapshots[id].Username)
	source.AssertExpectations(t)
}

func TestSnapshotsEmptyInputSkipsLookup(t *testing.T) {
	source := new(mocks.SnapshotSourceMock)
	profileCache := NewProfileCache(source, nil, time.Minute, zap.NewNop())

	source.On("Snapshots", mock.Anything, []uuid.UUID(nil)).
		Return(map[uuid.UUID]models.ProfileSnapshot{}, nil).Once()

	snapshots, err := profileCache.Snapshots(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, snapshots)
}

func TestInvalidateWithoutRedisIsNoOp(t *testing.T) {
	profileCache := NewProfileCache(new(mocks.SnapshotSourceMock), nil, time.Minute, zap.NewNop())
	profileCache.Invalidate(context.Background(), uuid.New())
}
