package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"gedtree/internal/tree"
	"gedtree/pkg/domain"
)

// QueryKind names a chart query.
type QueryKind string

// Chart queries.
const (
	QueryDescendants QueryKind = "descendants"
	QueryAncestors   QueryKind = "ancestors"
	QueryCousins     QueryKind = "cousins"
)

func (k QueryKind) operation() (string, error) {
	switch k {
	case QueryDescendants:
		return OpDescendants, nil
	case QueryAncestors:
		return OpAncestors, nil
	case QueryCousins:
		return OpCousins, nil
	}
	return "", &domain.UnsupportedQueryError{Query: string(k), Reason: "unknown query kind"}
}

// Query is one chart request. Degree applies to cousins only.
type Query struct {
	Kind    QueryKind
	Subject domain.PersonID
	Degree  int
}

// String renders q in the form ParseQuery accepts.
func (q Query) String() string {
	if q.Kind == QueryCousins {
		return fmt.Sprintf("%s:%s:%d", q.Kind, q.Subject, q.Degree)
	}
	return fmt.Sprintf("%s:%s", q.Kind, q.Subject)
}

// ParseQuery reads "kind:id" or "cousins:id:n". A cousins query without a
// degree asks for first cousins.
func ParseQuery(s string) (Query, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		return Query{}, &domain.UnsupportedQueryError{Query: s, Reason: "expected kind:id[:n]"}
	}
	q := Query{Kind: QueryKind(strings.ToLower(parts[0])), Subject: domain.PersonID(parts[1])}
	if _, err := q.Kind.operation(); err != nil {
		return Query{}, &domain.UnsupportedQueryError{Query: s, Reason: "unknown query kind"}
	}
	switch {
	case q.Kind == QueryCousins && len(parts) == 2:
		q.Degree = 1
	case q.Kind == QueryCousins:
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return Query{}, &domain.UnsupportedQueryError{Query: s, Reason: "degree is not a number"}
		}
		q.Degree = n
	case len(parts) == 3:
		return Query{}, &domain.UnsupportedQueryError{Query: s, Reason: "only cousins takes a degree"}
	}
	return q, nil
}

// BatchResult is the outcome of one query in a batch. Err holds a query
// failure; the batch itself still succeeds.
type BatchResult struct {
	Query Query
	Lines []string
	Key   string
	URL   string
	Err   error
}

// RunBatch runs queries concurrently over t and returns results in input
// order. With publish set, every successful chart is stored. A storage
// failure or cancellation aborts the batch.
func (s *Service) RunBatch(ctx context.Context, t *tree.Tree, queries []Query, publish bool) ([]BatchResult, error) {
	if t == nil {
		return nil, ErrNoTree
	}
	results := make([]BatchResult, len(queries))
	err := s.observe(ctx, OpBatch, fmt.Sprintf("queries=%d", len(queries)), func(ctx context.Context) (string, error) {
		g, gctx := errgroup.WithContext(ctx)
		if s.batchLimit > 0 {
			g.SetLimit(s.batchLimit)
		}
		for i, q := range queries {
			g.Go(func() error {
				var buf tree.LineBuffer
				res := BatchResult{Query: q}
				if res.Err = s.Run(gctx, t, q, &buf); res.Err != nil {
					results[i] = res
					if gctx.Err() != nil {
						return gctx.Err()
					}
					return nil
				}
				res.Lines = buf.Lines()
				if publish {
					info, err := s.Publish(gctx, q, res.Lines)
					if err != nil {
						return fmt.Errorf("publish %s: %w", q, err)
					}
					res.Key, res.URL = info.Key, info.URL
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		return fmt.Sprintf("failed=%d", failed), nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
