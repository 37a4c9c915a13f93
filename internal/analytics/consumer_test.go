package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	createdChan  chan *message.Message
	visitedChan  chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		createdChan: make(chan *message.Message, 10),
		visitedChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	switch topic {
	case analytics.TopicLinkCreated:
		return m.createdChan, nil
	case analytics.TopicLinkVisited:
		return m.visitedChan, nil
	default:
		return nil, errors.New("unknown topic")
	}
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.createdChan)
		close(m.visitedChan)
	}

	return nil
}

type mockStore struct {
	createdEvents  []*analytics.LinkCreatedEvent
	visitedEvents  []*analytics.LinkVisitedEvent
	saveCreatedErr error
	saveVisitedErr error
	mu             sync.Mutex
}

func (m *mockStore) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	if m.saveCreatedErr != nil {
		return m.saveCreatedErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.createdEvents = append(m.createdEvents, event)

	return nil
}

func (m *mockStore) SaveLinkVisited(_ context.Context, event *analytics.LinkVisitedEvent) error {
	if m.saveVisitedErr != nil {
		return m.saveVisitedErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.visitedEvents = append(m.visitedEvents, event)

	return nil
}

func startGroup(t *testing.T, sub *mockSubscriber, store analytics.Store) *messaging.ConsumerGroup {
	t.Helper()

	group := messaging.NewConsumerGroup(sub, zap.NewNop())
	group.Add(analytics.NewConsumers(sub, store, zap.NewNop())...)

	require.NoError(t, group.Start(context.Background()))

	t.Cleanup(func() { _ = group.Shutdown() })

	return group
}

func waitAck(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack")
	}
}

func waitNack(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Nacked():
	case <-msg.Acked():
		t.Fatal("message should have been nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for nack")
	}
}

func newMessage(t *testing.T, event any) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func TestNewConsumers(t *testing.T) {
	consumers := analytics.NewConsumers(newMockSubscriber(), &mockStore{}, zap.NewNop())

	group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
	group.Add(consumers...)

	assert.Equal(t, []string{analytics.TopicLinkCreated, analytics.TopicLinkVisited}, group.Topics())
}

func TestConsumers_Start(t *testing.T) {
	t.Run("returns error when subscription fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		group := messaging.NewConsumerGroup(sub, zap.NewNop())
		group.Add(analytics.NewConsumers(sub, &mockStore{}, zap.NewNop())...)

		err := group.Start(context.Background())

		assert.Error(t, err)
	})
}

func TestConsumers_LinkCreated(t *testing.T) {
	t.Run("persists link created events", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		startGroup(t, sub, store)

		msg := newMessage(t, &analytics.LinkCreatedEvent{
			LinkID:      uuid.NewString(),
			Code:        "abc123",
			OriginalURL: "https://example.com",
			CreatedAt:   time.Now(),
		})
		sub.createdChan <- msg

		waitAck(t, msg)

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.createdEvents, 1)
		assert.Equal(t, "abc123", store.createdEvents[0].Code)
	})

	t.Run("nacks on store error", func(t *testing.T) {
		sub := newMockSubscriber()
		startGroup(t, sub, &mockStore{saveCreatedErr: errors.New("store error")})

		msg := newMessage(t, &analytics.LinkCreatedEvent{Code: "abc123"})
		sub.createdChan <- msg

		waitNack(t, msg)
	})
}

func TestConsumers_LinkVisited(t *testing.T) {
	t.Run("persists link visited events", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		startGroup(t, sub, store)

		msg := newMessage(t, &analytics.LinkVisitedEvent{
			Code:      "abc123",
			VisitedAt: time.Now(),
			ClientIP:  "127.0.0.1",
		})
		sub.visitedChan <- msg

		waitAck(t, msg)

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.visitedEvents, 1)
		assert.Equal(t, "127.0.0.1", store.visitedEvents[0].ClientIP)
	})

	t.Run("nacks on store error", func(t *testing.T) {
		sub := newMockSubscriber()
		startGroup(t, sub, &mockStore{saveVisitedErr: errors.New("store error")})

		msg := newMessage(t, &analytics.LinkVisitedEvent{Code: "abc123"})
		sub.visitedChan <- msg

		waitNack(t, msg)
	})
}
