package http

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wirepay/x402"
)

// BatchOptions controls batch execution.
type BatchOptions struct {
	// ContinueOnError captures per-item failures as structured records and
	// proceeds to the next item instead of halting the batch.
	ContinueOnError bool

	// Concurrency bounds how many items run in parallel. Values below 2 run
	// the batch sequentially. Items are independent; within one item the
	// paid retry always follows the first attempt.
	Concurrency int
}

// BatchItem is the structured outcome of one batch entry.
type BatchItem struct {
	// Index is the item's position in the submitted batch.
	Index int `json:"index"`

	// Result is the terminal response, nil when the item failed.
	Result *Result `json:"result,omitempty"`

	// Err is the item's failure, nil on success.
	Err error `json:"-"`

	// ErrorMessage mirrors Err for serialized batch reports.
	ErrorMessage string `json:"error,omitempty"`

	// ErrorCode classifies the failure.
	ErrorCode x402.ErrorCode `json:"errorCode,omitempty"`
}

// DoBatch runs independent requests, one two-phase payment flow per item.
// Without ContinueOnError the first failure halts the batch and is returned
// alongside the items completed so far.
func (c *Client) DoBatch(ctx context.Context, reqs []Request, opts BatchOptions) ([]BatchItem, error) {
	items := make([]BatchItem, len(reqs))
	for i := range items {
		items[i].Index = i
	}

	if opts.Concurrency > 1 {
		return c.doBatchConcurrent(ctx, reqs, items, opts)
	}

	for i := range reqs {
		result, err := c.Do(ctx, reqs[i])
		items[i].Result = result
		if err == nil {
			continue
		}
		recordFailure(&items[i], err)
		if !opts.ContinueOnError {
			return items[:i+1], err
		}
	}

	return items, nil
}

func (c *Client) doBatchConcurrent(ctx context.Context, reqs []Request, items []BatchItem, opts BatchOptions) ([]BatchItem, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i := range reqs {
		g.Go(func() error {
			result, err := c.Do(ctx, reqs[i])
			items[i].Result = result
			if err == nil {
				return nil
			}
			recordFailure(&items[i], err)
			if opts.ContinueOnError {
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	return items, err
}

func recordFailure(item *BatchItem, err error) {
	item.Result = nil
	item.Err = err
	item.ErrorMessage = err.Error()
	item.ErrorCode = x402.Classify(err)
}
