package worker

import (
	"context"
	"errors"
	"fmt"

	"qacurator/logger"
	"qacurator/pipeline"
	sharedKafka "qacurator/shared/kafka"
	"qacurator/types"
)

// CurationRequest is the message consumed from the request topic.
type CurationRequest struct {
	BatchID    string            `json:"batch_id"`
	Source     string            `json:"source,omitempty"`
	Candidates []types.Candidate `json:"candidates"`
}

// CurationResponse is published to the result topic, keyed by BatchID.
type CurationResponse struct {
	BatchID    string            `json:"batch_id"`
	RunID      string            `json:"run_id,omitempty"`
	Candidates []types.Candidate `json:"candidates"`
	Summary    *pipeline.Summary `json:"summary,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Runner runs one curation batch.
type Runner interface {
	Run(ctx context.Context, candidates []types.Candidate) (*pipeline.Result, error)
}

// Publisher sends one keyed message.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers   []string
	Topic     string
	GroupID   string
	Runner    Runner
	Publisher Publisher
}

// NewHandler builds the message handler for curation requests. Malformed
// requests are marked and skipped. Provider failures and cancellation leave
// the message unmarked so it is redelivered; any other run failure is
// reported on the result topic.
func NewHandler(runner Runner, pub Publisher) *sharedKafka.TypedMessageHandler[CurationRequest] {
	return &sharedKafka.TypedMessageHandler[CurationRequest]{
		Validate: func(msg *CurationRequest) bool {
			if msg.BatchID == "" {
				logger.Warn("Message missing batch_id, skipping")
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *CurationRequest) error {
			res, err := runner.Run(ctx, msg.Candidates)
			if err != nil {
				if errors.Is(err, types.ErrProviderFailure) || ctx.Err() != nil {
					return fmt.Errorf("batch %s: %w", msg.BatchID, err)
				}
				logger.Warn("Curation rejected batch", "batch_id", msg.BatchID, "error", err)
				return pub.Publish(ctx, msg.BatchID, CurationResponse{
					BatchID:    msg.BatchID,
					Candidates: []types.Candidate{},
					Error:      err.Error(),
				})
			}

			logger.Info("Batch curated",
				"batch_id", msg.BatchID,
				"run_id", res.RunID,
				"input", res.Summary.TotalInput,
				"output", res.Summary.TotalOutput,
			)
			return pub.Publish(ctx, msg.BatchID, CurationResponse{
				BatchID:    msg.BatchID,
				RunID:      res.RunID,
				Candidates: res.Candidates,
				Summary:    &res.Summary,
			})
		},
		AlwaysMark: true,
	}
}

// NewConsumer creates a Kafka consumer using the shared consumer implementation
func NewConsumer(config ConsumerConfig) (*sharedKafka.Consumer, error) {
	if config.Runner == nil || config.Publisher == nil {
		return nil, errors.New("worker consumer needs a runner and a publisher")
	}
	return sharedKafka.NewConsumer(sharedKafka.ConsumerConfig{
		Brokers: config.Brokers,
		Topic:   config.Topic,
		GroupID: config.GroupID,
		Handler: NewHandler(config.Runner, config.Publisher),
	})
}
