package dealer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/justcars/go-dealer-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthLogSinkMapsEventToEntry(t *testing.T) {
	logs := &MockAuthLogs{}

	dealerID := uuid.New()
	adminID := uuid.New()
	at := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)

	var entry *dealer.AuthLogEntry
	logs.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*dealer.AuthLogEntry)
		}).
		Return(nil).Once()

	sink := dealer.NewAuthLogSink(logs)
	err := sink.Record(context.Background(), dealer.AuthEvent{
		Type:         dealer.AuthEventVerification,
		DealerID:     &dealerID,
		DealerEmail:  "verified@example.com",
		Success:      true,
		AdminID:      &adminID,
		Notes:        "CAC docs on file",
		ErrorMessage: "",
		IP:           "203.0.113.9",
		UserAgent:    "curl/8.0",
		OccurredAt:   at,
	})

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, string(dealer.AuthEventVerification), entry.EventType)
	assert.Equal(t, &dealerID, entry.DealerID)
	assert.Equal(t, "verified@example.com", entry.DealerEmail)
	assert.True(t, entry.Success)
	assert.Equal(t, &adminID, entry.AdminID)
	assert.Equal(t, "CAC docs on file", entry.AdminNotes)
	assert.Equal(t, "203.0.113.9", entry.IPAddress)
	assert.Equal(t, "curl/8.0", entry.UserAgent)
	require.NotNil(t, entry.CreatedAt)
	assert.Equal(t, at, *entry.CreatedAt)

	logs.AssertExpectations(t)
}

func TestAuthLogSinkLeavesTimestampToDatabase(t *testing.T) {
	logs := &MockAuthLogs{}

	var entry *dealer.AuthLogEntry
	logs.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(*dealer.AuthLogEntry)
		}).
		Return(nil).Once()

	sink := dealer.NewAuthLogSink(logs)
	err := sink.Record(context.Background(), dealer.AuthEvent{
		Type:        dealer.AuthEventLoginFailed,
		DealerEmail: "ghost@example.com",
	})

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Nil(t, entry.CreatedAt)
	assert.Nil(t, entry.DealerID)
}
