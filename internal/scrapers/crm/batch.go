package crm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const DefaultBatchSize = 5

// Partition splits targets into consecutive batches of at most `batchSize`.
func Partition(targets []FetchTarget, batchSize int) [][]FetchTarget {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batches := make([][]FetchTarget, 0, (len(targets)+batchSize-1)/batchSize)
	for start := 0; start < len(targets); start += batchSize {
		end := min(start+batchSize, len(targets))
		batches = append(batches, targets[start:end])
	}
	return batches
}

// FetchAll downloads every target, `batchSize` at a time. A batch is always waited on in
// full before the next one starts. The first failure ends the run once its batch has
// finished, no page is returned in that case.
// The returned pages are in the same order as `targets`.
func (c *Client) FetchAll(ctx context.Context, targets []FetchTarget, batchSize int) ([]FetchedPage, error) {
	err := c.requireAuthenticated()
	if err != nil {
		return nil, err
	}
	pages := make([]FetchedPage, len(targets))

	offset := 0
	for i, batch := range Partition(targets, batchSize) {
		c.tel.ReportDebug(report_client_fetch_all, "batch", i, len(batch))

		// siblings are not cancelled when one of them fails
		var group errgroup.Group
		for j, target := range batch {
			slot := offset + j
			group.Go(func() error {
				page, err := c.Fetch(ctx, target)
				if err != nil {
					return err
				}
				pages[slot] = page
				return nil
			})
		}
		err = group.Wait()
		if err != nil {
			c.tel.ReportBroken(
				report_client_fetch_all,
				fmt.Errorf("batch %d: %w", i, err),
			)
			return nil, err
		}
		offset += len(batch)
	}

	c.tel.ReportCount(report_client_fetch_all, int64(len(pages)))
	return pages, nil
}
