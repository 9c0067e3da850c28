package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct {
	ID string `json:"id"`
}

func TestTypedMessageHandler(t *testing.T) {
	processErr := errors.New("provider down")

	tests := []struct {
		name     string
		payload  string
		err      error
		wantMark bool
		wantErr  bool
		wantSeen bool
	}{
		{name: "valid", payload: `{"id":"a"}`, wantMark: true, wantSeen: true},
		{name: "malformed", payload: `{"id":`, wantMark: true},
		{name: "invalid", payload: `{"id":""}`, wantMark: true},
		{name: "process error", payload: `{"id":"b"}`, err: processErr, wantErr: true, wantSeen: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen := false
			h := &TypedMessageHandler[ping]{
				Validate: func(msg *ping) bool { return msg.ID != "" },
				Process: func(_ context.Context, msg *ping) error {
					seen = true
					return tc.err
				},
				AlwaysMark: true,
			}

			mark, err := h.HandleMessage(context.Background(), []byte(tc.payload))
			if mark != tc.wantMark {
				t.Fatalf("mark = %v, want %v", mark, tc.wantMark)
			}
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if seen != tc.wantSeen {
				t.Fatalf("processed = %v, want %v", seen, tc.wantSeen)
			}
		})
	}
}

// partitionLog replays one partition from its committed offset, the way a
// new consumer group session does.
type partitionLog struct {
	sarama.ConsumerGroupSession
	ctx       context.Context
	values    []string
	committed int64
}

func (p *partitionLog) Context() context.Context { return p.ctx }

func (p *partitionLog) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	if next := msg.Offset + 1; next > p.committed {
		p.committed = next
	}
}

func (p *partitionLog) ResetOffset(_ string, _ int32, offset int64, _ string) {
	p.committed = offset
}

type logClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *logClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

func (p *partitionLog) session() *logClaim {
	ch := make(chan *sarama.ConsumerMessage, len(p.values))
	for off := p.committed; off < int64(len(p.values)); off++ {
		ch <- &sarama.ConsumerMessage{Topic: "curation", Partition: 0, Offset: off, Value: []byte(p.values[off])}
	}
	close(ch)
	return &logClaim{messages: ch}
}

type flakyHandler struct {
	failures map[string]int
	seen     []string
}

func (f *flakyHandler) HandleMessage(_ context.Context, message []byte) (bool, error) {
	id := string(message)
	f.seen = append(f.seen, id)
	if f.failures[id] > 0 {
		f.failures[id]--
		return false, errors.New("provider down")
	}
	return true, nil
}

func TestConsumeClaimRedeliversUnmarkedMessage(t *testing.T) {
	log := &partitionLog{ctx: context.Background(), values: []string{"a", "b", "c"}}
	mh := &flakyHandler{failures: map[string]int{"b": 1}}
	h := &consumerGroupHandler{messageHandler: mh}

	for sessions := 0; log.committed < int64(len(log.values)); sessions++ {
		if sessions > 3 {
			t.Fatalf("partition stuck at offset %d", log.committed)
		}
		require.NoError(t, h.ConsumeClaim(log, log.session()))
		if sessions == 0 && log.committed != 1 {
			t.Fatalf("committed = %d after failed message, want 1", log.committed)
		}
	}

	assert.Equal(t, []string{"a", "b", "b", "c"}, mh.seen)
	assert.EqualValues(t, 3, log.committed)
}

func TestConsumeClaimBackoffStopsWithSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := &partitionLog{ctx: ctx, values: []string{"a"}}
	h := &consumerGroupHandler{
		messageHandler: &flakyHandler{failures: map[string]int{"a": 1}},
		retryBackoff:   time.Hour,
	}

	time.AfterFunc(20*time.Millisecond, cancel)
	done := make(chan error, 1)
	go func() { done <- h.ConsumeClaim(log, log.session()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatalf("claim kept waiting after the session ended")
	}
	assert.EqualValues(t, 0, log.committed)
}

func TestProducerPublishesJSON(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got ping
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.ID != "batch-1" {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	p := NewProducerWithClient(sp, "curation-results")
	require.NoError(t, p.Publish(context.Background(), "batch-1", ping{ID: "batch-1"}))
	require.NoError(t, p.Close())
}

func TestProducerPublishFailure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerWithClient(sp, "curation-results")
	err := p.Publish(context.Background(), "k", ping{ID: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestProducerPublishCancelled(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	p := NewProducerWithClient(sp, "curation-results")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "k", ping{}), context.Canceled)
	require.NoError(t, p.Close())
}
