package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chattat-service/internal/mocks"
)

func TestEmitBuildsEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewAuditEmitter(publisher, "audit.chattat", "test", zap.NewNop())

	userID := "7c9a1f7e-9a07-4c0f-8baf-1df1b823ce20"
	publisher.On("Publish", mock.Anything, "audit.chattat", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.EventType == "audit_log" &&
			envelope.Service == "chattat-service" &&
			envelope.Environment == "test" &&
			envelope.RequestID == "req-1" &&
			envelope.UserID != nil && *envelope.UserID == userID &&
			envelope.Payload.Level == "INFO"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "INFO", "profile updated", "req-1", &userID)
	publisher.AssertExpectations(t)
}

func TestEmitWithoutPublisherIsNoOp(t *testing.T) {
	emitter := NewAuditEmitter(nil, "audit.chattat", "test", zap.NewNop())
	emitter.Emit(context.Background(), "INFO", "ignored", "req-2", nil)
	require.NotNil(t, emitter)
}
