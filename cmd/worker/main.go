package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"qacurator/app"
	"qacurator/config"
	"qacurator/logger"
	sharedKafka "qacurator/shared/kafka"
	"qacurator/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		app.InitLogger(config.Default(), "worker")
		logger.Fatal("Invalid configuration", "error", err)
	}
	app.InitLogger(cfg, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}
	defer services.Close()

	producer, err := sharedKafka.NewProducer(sharedKafka.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ResultTopic,
	})
	if err != nil {
		logger.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	consumer, err := worker.NewConsumer(worker.ConsumerConfig{
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		GroupID:   cfg.Kafka.GroupID,
		Runner:    services.Pipeline,
		Publisher: producer,
	})
	if err != nil {
		logger.Fatal("Failed to create Kafka consumer", "error", err)
	}

	logger.Info("Curation worker starting",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
		"result_topic", cfg.Kafka.ResultTopic,
		"group", cfg.Kafka.GroupID,
	)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("Failed to start Kafka consumer", "error", err)
	}

	<-ctx.Done()
	logger.Info("Shutting down")
	if err := consumer.Close(); err != nil {
		logger.Error("Kafka consumer close error", "error", err)
	}
}
