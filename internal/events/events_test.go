package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-search-service/internal/domain"
	"github.com/helixir/literature-search-service/internal/observability"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func sampleResult() *domain.AggregatedResult {
	return &domain.AggregatedResult{
		Query:             "graph neural networks",
		TotalArticles:     3,
		ArticlesByEngine:  map[domain.Engine]int{domain.EngineACM: 2, domain.EngineHAL: 2},
		DuplicatesRemoved: 1,
		FailedEngines:     map[domain.Engine]string{domain.EngineScopus: "upstream fetch failed"},
	}
}

func TestNewSearchCompleted(t *testing.T) {
	t.Run("copies summary fields", func(t *testing.T) {
		engines := []domain.Engine{domain.EngineACM, domain.EngineHAL, domain.EngineScopus}
		ev := NewSearchCompleted("req-1", engines, sampleResult())

		_, err := uuid.Parse(ev.EventID)
		require.NoError(t, err)
		assert.Equal(t, EventTypeSearchCompleted, ev.EventType)
		assert.Equal(t, 1, ev.EventVersion)
		assert.Equal(t, "req-1", ev.RequestID)
		assert.Equal(t, "graph neural networks", ev.Query)
		assert.Equal(t, engines, ev.Engines)
		assert.Equal(t, 3, ev.TotalArticles)
		assert.Equal(t, 1, ev.DuplicatesRemoved)
		assert.Equal(t, 2, ev.ArticlesByEngine[domain.EngineACM])
		assert.Equal(t, []string{"scopus"}, ev.FailedEngineNames())
		assert.False(t, ev.OccurredAt.IsZero())
	})

	t.Run("does not alias the result maps", func(t *testing.T) {
		result := sampleResult()
		ev := NewSearchCompleted("", nil, result)
		result.ArticlesByEngine[domain.EngineACM] = 99

		assert.Equal(t, 2, ev.ArticlesByEngine[domain.EngineACM])
	})

	t.Run("unique event ids", func(t *testing.T) {
		a := NewSearchCompleted("", nil, sampleResult())
		b := NewSearchCompleted("", nil, sampleResult())
		assert.NotEqual(t, a.EventID, b.EventID)
	})

	t.Run("nil result", func(t *testing.T) {
		ev := NewSearchCompleted("req", nil, nil)
		assert.Empty(t, ev.Query)
		assert.Empty(t, ev.FailedEngineNames())
	})
}

func TestKafkaPublisher_PublishSearchCompleted(t *testing.T) {
	t.Run("writes keyed json message", func(t *testing.T) {
		w := &fakeWriter{}
		p := NewPublisherWithWriter(w, "search-events", zerolog.Nop())
		ctx := observability.WithRequestID(context.Background(), "req-42")

		err := p.PublishSearchCompleted(ctx, []domain.Engine{domain.EngineACM, domain.EngineHAL}, sampleResult())
		require.NoError(t, err)
		require.Len(t, w.messages, 1)

		msg := w.messages[0]
		assert.Equal(t, "graph neural networks", string(msg.Key))
		require.Len(t, msg.Headers, 2)
		assert.Equal(t, "event_type", msg.Headers[0].Key)
		assert.Equal(t, EventTypeSearchCompleted, string(msg.Headers[0].Value))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, "req-42", decoded["request_id"])
		assert.Equal(t, float64(3), decoded["total_articles"])
		assert.Equal(t, float64(1), decoded["duplicates_removed"])
		assert.Equal(t, []any{"acm", "hal"}, decoded["engines"])
		byEngine, ok := decoded["articles_by_engine"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(2), byEngine["hal"])
	})

	t.Run("wraps writer error", func(t *testing.T) {
		writeErr := errors.New("broker unavailable")
		w := &fakeWriter{err: writeErr}
		p := NewPublisherWithWriter(w, "search-events", zerolog.Nop())

		err := p.PublishSearchCompleted(context.Background(), nil, sampleResult())
		require.Error(t, err)
		assert.ErrorIs(t, err, writeErr)
		assert.Contains(t, err.Error(), "search-events")
	})

	t.Run("rejects nil result", func(t *testing.T) {
		w := &fakeWriter{}
		p := NewPublisherWithWriter(w, "search-events", zerolog.Nop())

		require.Error(t, p.PublishSearchCompleted(context.Background(), nil, nil))
		assert.Empty(t, w.messages)
	})
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, "search-events", zerolog.Nop())

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  KafkaConfig
	}{
		{"no brokers", KafkaConfig{Topic: "t"}},
		{"no topic", KafkaConfig{Brokers: []string{"localhost:9092"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewKafkaPublisher(tt.cfg, zerolog.Nop())
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}, zerolog.Nop())
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.NoError(t, p.Close())
	})
}
