// Command nsquery runs similarity queries across many namespaces of a
// Pinecone index or a Qdrant deployment and merges the answers.
//
// Examples:
//
//	nsquery query --namespaces acme,globex --vector 0.1,0.2,0.3 --top-k 5
//	nsquery list --namespace acme --page-size 500
//	nsquery imports --config pinecone.yaml
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Aleph-Alpha/vdbclient/v1/logger"
	"github.com/Aleph-Alpha/vdbclient/v1/retry"
	"github.com/Aleph-Alpha/vdbclient/v1/tracer"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// A missing .env file is fine; the environment may be set already.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "nsquery",
		Short: "Query many vector database namespaces at once",
		Long: `nsquery fans a similarity query out to several namespaces, retries
transient failures per namespace and merges the results into one top-K list.

Configuration is read from the --config YAML file and NSQUERY_* environment
variables; a .env file in the working directory is loaded first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newImportsCmd(opts))
	return cmd
}

// session is everything a command needs once the configuration is loaded.
type session struct {
	cfg     *Config
	logger  *logger.LoggerClient
	tracer  *tracer.Tracer
	retry   *retry.Interceptor
	backend backend
	metric  vectordb.Metric
}

func openSession(opts *rootOptions) (*session, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	log := logger.NewLoggerClient(cfg.Logger)

	t, err := tracer.NewClient(cfg.Tracer, log)
	if err != nil {
		return nil, err
	}
	ic, err := retry.NewInterceptor(cfg.Retry, retry.WithLogger(log))
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, err
	}
	b, metric, err := openBackend(cfg, ic, log)
	if err != nil {
		_ = t.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Backend, err)
	}
	return &session{cfg: cfg, logger: log, tracer: t, retry: ic, backend: b, metric: metric}, nil
}

func (s *session) Close() {
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("failed to close backend", err)
	}
	if err := s.tracer.Shutdown(context.Background()); err != nil {
		s.logger.Warn("failed to flush traces", err)
	}
	_ = s.logger.Zap.Sync()
}
