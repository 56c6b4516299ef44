package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/funkybooboo/CS5260-Program2/config"
	"github.com/funkybooboo/CS5260-Program2/consumer"
	"github.com/funkybooboo/CS5260-Program2/encoder"
	"github.com/funkybooboo/CS5260-Program2/logger"
	"github.com/funkybooboo/CS5260-Program2/sink"
	"github.com/funkybooboo/CS5260-Program2/source"
)

const usage = `Please provide a storage option: dynamodb or s3

Usage examples:
	$ consumer s3
	$ consumer dynamodb
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run returns the process exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return 1
	}
	kind, err := sink.ParseKind(args[0])
	if err != nil {
		fmt.Fprint(stdout, usage)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	log.Info("Start program", zap.String("storage", kind.String()))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Error("Load aws config", zap.Error(err))
		return 1
	}

	c, err := build(cfg, kind, awsCfg, log)
	if err != nil {
		log.Error("Build consumer", zap.Error(err))
		return 1
	}

	stats, err := c.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("Shutdown signal received", zap.Int("processed", stats.Processed))
		} else {
			log.Error("Consumer stopped", zap.Error(err))
		}
		return 1
	}

	log.Info("End program",
		zap.Int("processed", stats.Processed),
		zap.Int("failed", stats.Failed),
	)
	return 0
}

// build wires the request source, the selected sink and the loop.
func build(cfg *config.Config, kind sink.Kind, awsCfg aws.Config, log *zap.Logger) (*consumer.Consumer, error) {
	s3Client := s3.NewFromConfig(awsCfg)

	var src source.Source
	if cfg.RequestQueueURL != "" {
		src = source.NewSQS(sqs.NewFromConfig(awsCfg), cfg.RequestQueueURL, log)
	} else {
		src = source.NewS3(s3Client, cfg.RequestBucket, log)
	}

	var snk sink.Sink
	switch kind {
	case sink.KindObjectStore:
		enc, err := encoder.ForRequests(cfg.ObjectEncoding)
		if err != nil {
			return nil, err
		}
		snk = sink.NewObjectStore(s3Client, cfg.StorageBucket, enc)
	case sink.KindTable:
		snk = sink.NewTable(dynamodb.NewFromConfig(awsCfg), cfg.Table)
	default:
		return nil, fmt.Errorf("%w: %v", sink.ErrUnknownKind, kind)
	}

	return consumer.New(src, snk, consumer.Config{
		PollInterval: cfg.PollInterval,
		MaxIdlePolls: cfg.MaxIdlePolls,
	}, log)
}
