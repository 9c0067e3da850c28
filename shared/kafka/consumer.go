package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"qacurator/logger"

	"github.com/IBM/sarama"
)

// MessageHandler defines the interface for handling consumed messages
// Each service implements this to provide custom message processing logic
type MessageHandler interface {
	// HandleMessage processes a Kafka message and returns whether to mark it as processed
	// If shouldMark is false, the message will not be marked (allowing redelivery)
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// DefaultRetryBackoff is the pause before a claim is restarted at an
// unmarked message.
const DefaultRetryBackoff = 5 * time.Second

// Consumer handles Kafka message consumption with pluggable message handling
type Consumer struct {
	consumer     sarama.ConsumerGroup
	handler      MessageHandler
	topic        string
	groupID      string
	retryBackoff time.Duration
	ready        chan bool
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	Handler      MessageHandler
	RetryBackoff time.Duration
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(config ConsumerConfig) (*Consumer, error) {
	if config.Handler == nil {
		return nil, errors.New("kafka consumer needs a message handler")
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	client, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	backoff := config.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	return &Consumer{
		consumer:     client,
		handler:      config.Handler,
		topic:        config.Topic,
		groupID:      config.GroupID,
		retryBackoff: backoff,
		ready:        make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka. It returns once the first
// session is set up or ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{
		messageHandler: c.handler,
		retryBackoff:   c.retryBackoff,
		ready:          c.ready,
	}

	go func() {
		for {
			if err := c.consumer.Consume(ctx, []string{c.topic}, handler); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Info("Kafka consumer context canceled")
					return
				}
				logger.Error("Error from Kafka consumer", "error", err)
			}

			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	logger.Info("Kafka consumer started", "group", c.groupID, "topic", c.topic)

	go func() {
		for err := range c.consumer.Errors() {
			logger.Error("Kafka consumer error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the consumer
func (c *Consumer) Close() error {
	logger.Info("Closing Kafka consumer")
	return c.consumer.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	messageHandler MessageHandler
	retryBackoff   time.Duration
	ready          chan bool
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
// A message left unmarked rewinds the partition to its offset and ends the
// claim, so nothing after it is committed and the next session redelivers it.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			logger.Debug("Received Kafka message",
				"partition", message.Partition,
				"offset", message.Offset,
				"key", string(message.Key),
			)

			shouldMark, err := h.messageHandler.HandleMessage(session.Context(), message.Value)
			if err != nil {
				logger.Error("Failed to handle message", "offset", message.Offset, "error", err)
			}

			if shouldMark {
				session.MarkMessage(message, "")
				continue
			}

			session.ResetOffset(message.Topic, message.Partition, message.Offset, "")
			logger.Warn("Message left for redelivery",
				"partition", message.Partition,
				"offset", message.Offset,
				"backoff", h.retryBackoff,
			)
			select {
			case <-time.After(h.retryBackoff):
			case <-session.Context().Done():
			}
			return nil

		case <-session.Context().Done():
			return nil
		}
	}
}

// TypedMessageHandler is a generic helper that handles type conversion
// T is the message type (e.g., CurationRequest)
type TypedMessageHandler[T any] struct {
	// Validate checks if the message should be processed
	Validate func(msg *T) bool
	// Process handles the actual message processing
	Process func(ctx context.Context, msg *T) error
	// AlwaysMark marks malformed and invalid messages so they are skipped
	AlwaysMark bool
}

// HandleMessage implements MessageHandler interface
func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to unmarshal message", "error", err)
		return h.AlwaysMark, nil
	}

	if h.Validate != nil && !h.Validate(&msg) {
		return h.AlwaysMark, nil
	}

	if err := h.Process(ctx, &msg); err != nil {
		return false, err // Don't mark - allow retry
	}

	return true, nil
}
