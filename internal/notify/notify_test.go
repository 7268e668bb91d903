package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestAMQPNotifier_Notify(t *testing.T) {
	msg := domain.MailMessage{
		Type: domain.MailTypeShiftAssigned,
		To:   "alice@example.com",
		Data: domain.ShiftAssignedMailData{FullName: "Alice", Date: "2024-02-29", ShiftType: "Night"},
	}

	testCases := []struct {
		name        string
		publishErr  error
		expectedErr bool
	}{
		{name: "published", publishErr: nil, expectedErr: false},
		{name: "broker error", publishErr: errors.New("channel closed"), expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pub := new(MockPublisher)
			pub.On("PublishWithContext", mock.Anything, "", "email_queue", true, false, mock.MatchedBy(func(p amqp.Publishing) bool {
				var decoded map[string]any
				if err := json.Unmarshal(p.Body, &decoded); err != nil {
					return false
				}
				return p.ContentType == "application/json" && decoded["type"] == domain.MailTypeShiftAssigned
			})).Return(tc.publishErr)

			err := NewAMQPNotifier(pub, "email_queue", time.Second).Notify(context.Background(), msg)
			if tc.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			pub.AssertExpectations(t)
		})
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Notify(context.Background(), domain.MailMessage{Type: domain.MailTypeAccountCreated}))
	require.NoError(t, Discard{}.Notify(context.Background(), domain.MailMessage{Type: domain.MailTypeAccountCreated}))

	assert.Equal(t, []string{domain.MailTypeAccountCreated}, r.Types())
}
