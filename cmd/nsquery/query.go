package main

import (
	"encoding/json"
	"fmt"

	"github.com/Aleph-Alpha/vdbclient/v1/fanout"
	"github.com/Aleph-Alpha/vdbclient/v1/vectordb"
	"github.com/spf13/cobra"
)

type queryOptions struct {
	namespaces      []string
	vector          []float32
	id              string
	topK            int
	metric          string
	filter          string
	includeMetadata bool
	includeValues   bool
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one query across several namespaces",
		Long: `Query every namespace concurrently and print the merged top-K as JSON.

Namespaces that fail are listed under "failures"; the command only fails
when every namespace does. Without --namespaces every namespace of the
index is queried.

Examples:
  nsquery query --namespaces a,b,c --vector 0.1,0.2 --top-k 5
  nsquery query --namespaces a,b --id doc-17 --filter '{"must":[{"field":"lang","equalTo":"en"}]}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&opts.namespaces, "namespaces", nil, "comma separated namespaces to query (default: all)")
	f.Float32SliceVar(&opts.vector, "vector", nil, "comma separated query vector")
	f.StringVar(&opts.id, "id", "", "query by the stored vector of this record")
	f.IntVar(&opts.topK, "top-k", 0, "number of matches (default from fanout.default_top_k)")
	f.StringVar(&opts.metric, "metric", "", "index metric: cosine, dotproduct or euclidean (default from the backend)")
	f.StringVar(&opts.filter, "filter", "", "metadata filter as JSON")
	f.BoolVar(&opts.includeMetadata, "include-metadata", true, "return match metadata")
	f.BoolVar(&opts.includeValues, "include-values", false, "return match vectors")
	return cmd
}

func (o *queryOptions) request() (*vectordb.QueryRequest, error) {
	req := &vectordb.QueryRequest{
		Vector:          o.vector,
		ID:              o.id,
		TopK:            o.topK,
		IncludeMetadata: o.includeMetadata,
		IncludeValues:   o.includeValues,
	}
	if o.filter != "" {
		fs, err := vectordb.ParseFilter([]byte(o.filter))
		if err != nil {
			return nil, fmt.Errorf("invalid --filter: %w", err)
		}
		req.Filter = fs
	}
	return req, req.Validate()
}

func runQuery(cmd *cobra.Command, root *rootOptions, opts *queryOptions) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	s, err := openSession(root)
	if err != nil {
		return err
	}
	defer s.Close()

	metric := s.metric
	if opts.metric != "" {
		if metric, err = vectordb.ParseMetric(opts.metric); err != nil {
			return err
		}
	}

	d, err := fanout.NewDispatcher(s.backend, s.cfg.Fanout,
		fanout.WithRetry(s.retry),
		fanout.WithLogger(s.logger),
	)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.StartSpan(cmd.Context(), "nsquery.query")
	defer span.End()

	namespaces := opts.namespaces
	if len(namespaces) == 0 {
		if namespaces, err = s.backend.ListNamespaces(ctx); err != nil {
			s.tracer.RecordErrorOnSpan(span, err)
			return fmt.Errorf("listing namespaces: %w", err)
		}
		if len(namespaces) == 0 {
			return fmt.Errorf("the index has no namespaces")
		}
	}
	s.tracer.SetAttributes(span, map[string]interface{}{
		"nsquery.backend":    s.cfg.Backend,
		"nsquery.namespaces": namespaces,
	})

	res, err := d.QueryNamespaces(ctx, req, namespaces, metric)
	if err != nil {
		s.tracer.RecordErrorOnSpan(span, err)
		return err
	}
	s.tracer.SetAttributes(span, map[string]interface{}{"nsquery.failed_namespaces": len(res.Failures)})
	if res.Partial() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d of %d namespaces failed\n", len(res.Failures), len(namespaces))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
