package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumerCommitsOnlyHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &fakeReader{
		messages: []kafka.Message{
			{Offset: 1, Value: []byte("ok")},
			{Offset: 2, Value: []byte("fail")},
			{Offset: 3, Value: []byte("ok")},
		},
		cancel: cancel,
	}
	var seen []string
	c := newConsumer(r, "docs", func(_ context.Context, _ []byte, value []byte) error {
		seen = append(seen, string(value))
		if string(value) == "fail" {
			return errors.New("handler failed")
		}
		return nil
	})

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, []string{"ok", "fail", "ok"}, seen)
	assert.Equal(t, []int64{1, 3}, r.committed)
	assert.True(t, r.closed)
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerPublishesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "docs")
	err := p.Publish(context.Background(),
		Event{Key: "doc-a", Value: map[string]string{"title": "Search"}},
		Event{Key: "doc-b", Value: []int{1, 2}},
	)
	require.NoError(t, err)
	require.Len(t, w.messages, 2)
	assert.Equal(t, "doc-a", string(w.messages[0].Key))
	assert.JSONEq(t, `{"title":"Search"}`, string(w.messages[0].Value))
	assert.Equal(t, "[1,2]", string(w.messages[1].Value))

	w.err = errors.New("broker down")
	assert.Error(t, p.Publish(context.Background(), Event{Key: "x", Value: 1}))
	assert.Error(t, p.Publish(context.Background(), Event{Key: "bad", Value: make(chan int)}))
}

func TestDecodeJSON(t *testing.T) {
	type doc struct {
		ID string `json:"id"`
	}
	got, err := DecodeJSON[doc]([]byte(`{"id":"doc-a"}`))
	require.NoError(t, err)
	assert.Equal(t, "doc-a", got.ID)

	_, err = DecodeJSON[doc]([]byte(`{`))
	assert.Error(t, err)
}
