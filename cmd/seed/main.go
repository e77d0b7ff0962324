package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go-portal/internal/app"
	"go-portal/internal/bootstrap"
	"go-portal/internal/messaging/kafka/producer"
	"go-portal/internal/seed"
	"go-portal/internal/shared/apperror"
	"go-portal/internal/shared/connection"
	"go-portal/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type seedFlags struct {
	file           string
	dir            string
	strict         bool
	publish        bool
	stableChatKeys bool
}

type job struct {
	kind     seed.Kind
	location string
}

type batch struct {
	kind    seed.Kind
	records []seed.Record
}

type batchPublisher interface {
	PublishSeedBatch(ctx context.Context, kind seed.Kind, records []seed.Record) (string, error)
}

var openStore = func(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.ConfigFromEnv())
}

var openPublisher = func(ctx context.Context) (batchPublisher, func() error, error) {
	broker := os.Getenv("KAFKA_BROKER")
	if broker == "" {
		return nil, nil, errors.New("KAFKA_BROKER is required with --publish")
	}
	writer, err := connection.ConnectKafkaWithRetry(ctx, broker, 5)
	if err != nil {
		return nil, nil, err
	}
	return producer.NewPublisher(writer), writer.Close, nil
}

// newAuditLogger runs after main has installed the global logger.
var newAuditLogger = func() bootstrap.AuditLogger {
	return bootstrap.NewStdoutAuditLogger()
}

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(ctx, os.Stdout)
	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Load companies, customers, chats, attendance and work hours into the record store",
		SilenceUsage: true,
	}

	var flags seedFlags
	pf := root.PersistentFlags()
	pf.BoolVar(&flags.strict, "strict", false, "Exit 2 if any record failed")
	pf.BoolVar(&flags.publish, "publish", false, "Send batches to Kafka instead of writing them directly")
	pf.BoolVar(&flags.stableChatKeys, "stable-chat-keys", false, "Key chat sessions by content so re-runs overwrite")

	for _, kind := range seed.Kinds {
		kindCmd := &cobra.Command{
			Use:   string(kind) + " --file <path|s3://bucket/key>",
			Short: fmt.Sprintf("Seed %s from a yaml, json, csv or xlsx file", kind),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if flags.file == "" {
					return codeError(1, "--file is required")
				}
				return runSeed(ctx, []job{{kind: kind, location: flags.file}}, flags, out)
			},
		}
		kindCmd.Flags().StringVar(&flags.file, "file", "", "Input file, local path or s3://bucket/key")
		root.AddCommand(kindCmd)
	}

	allCmd := &cobra.Command{
		Use:   "all --dir <dir>",
		Short: "Seed every kind from <dir>/<kind>.<ext>",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dir == "" {
				return codeError(1, "--dir is required")
			}
			jobs, err := jobsFromDir(flags.dir)
			if err != nil {
				return err
			}
			return runSeed(ctx, jobs, flags, out)
		},
	}
	allCmd.Flags().StringVar(&flags.dir, "dir", "", "Directory holding one input file per kind")
	root.AddCommand(allCmd)

	return root
}

// jobsFromDir finds one input per kind. Kinds without a file are skipped.
func jobsFromDir(dir string) ([]job, error) {
	logger := zap.L().Named("seed.cmd")

	var jobs []job
	for _, kind := range seed.Kinds {
		path, err := seed.FindKindFile(dir, kind)
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("no input for kind, skipping", zap.String("kind", string(kind)))
			continue
		}
		if err != nil {
			return nil, codeError(1, "%s", err)
		}
		jobs = append(jobs, job{kind: kind, location: path})
	}
	if len(jobs) == 0 {
		return nil, codeError(1, "no seed inputs found in %s", dir)
	}
	return jobs, nil
}

func runSeed(ctx context.Context, jobs []job, flags seedFlags, out io.Writer) error {
	// --- Step 1: Load every input before touching the store ---
	loader := seed.NewLoader(seed.S3ConfigFromEnv())
	batches := make([]batch, 0, len(jobs))
	for _, j := range jobs {
		records, err := loader.LoadFile(ctx, j.kind, j.location)
		if err != nil {
			return codeError(1, "load %s: %s", j.kind, err)
		}
		batches = append(batches, batch{kind: j.kind, records: records})
	}

	if flags.publish {
		return publishBatches(ctx, batches, out)
	}

	// --- Step 2: Open the store and runner ---
	s, err := openStore(ctx)
	if err != nil {
		return codeError(1, "open store: %s", err)
	}
	defer s.Close()

	var opts []seed.Option
	if flags.stableChatKeys {
		opts = append(opts, seed.WithDeterministicChatKeys())
	}
	runner, err := app.NewSeedRunner(ctx, s, opts...)
	if err != nil {
		return codeError(1, "%s", err)
	}

	// --- Step 3: Ingest and report ---
	var total seed.Summary
	kinds := make([]string, 0, len(batches))
	for _, b := range batches {
		outcomes := runner.Ingest(ctx, b.records)
		sum := seed.Summarize(outcomes)
		for _, o := range outcomes {
			if !o.OK() {
				fmt.Fprintf(out, "  %s #%d: %v\n", b.kind, o.Index, o.Err)
			}
		}
		fmt.Fprintf(out, "%s: %d succeeded, %d failed\n", b.kind, sum.Succeeded, sum.Failed)

		total.Total += sum.Total
		total.Succeeded += sum.Succeeded
		total.Failed += sum.Failed
		kinds = append(kinds, string(b.kind))
	}

	newAuditLogger().Log(ctx, bootstrap.AuditLog{
		Action:  "SEED_JOB_COMPLETED",
		Message: "Seed job finished",
		Meta: map[string]any{
			"kinds":     strings.Join(kinds, ","),
			"total":     total.Total,
			"succeeded": total.Succeeded,
			"failed":    total.Failed,
		},
	})

	if flags.strict && total.Failed > 0 {
		return codeError(2, "%d of %d records failed", total.Failed, total.Total)
	}
	return nil
}

func publishBatches(ctx context.Context, batches []batch, out io.Writer) error {
	publisher, closeFn, err := openPublisher(ctx)
	if err != nil {
		return codeError(1, "%s", err)
	}
	defer closeFn()

	requestIDs := make([]string, 0, len(batches))
	for _, b := range batches {
		id, err := publisher.PublishSeedBatch(ctx, b.kind, b.records)
		if err != nil {
			return codeError(1, "publish %s: %s", b.kind, err)
		}
		fmt.Fprintf(out, "%s: published %d records (request %s)\n", b.kind, len(b.records), id)
		requestIDs = append(requestIDs, id)
	}

	newAuditLogger().Log(ctx, bootstrap.AuditLog{
		Action:  "SEED_BATCH_PUBLISHED",
		Message: "Seed batches sent to Kafka",
		Meta: map[string]any{
			"request_ids": strings.Join(requestIDs, ","),
		},
	})
	return nil
}
