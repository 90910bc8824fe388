package remote

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
)

// Items lazily yields every item of the partitions selected by scope.
// A failing partition is reported as *PartitionError and the scan moves on;
// an expired session or a cancelled context ends the sequence.
func (c *Client) Items(ctx context.Context, scope Scope) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		partitions := Partitions(scope, c.now(), c.listing)

		for idx, partition := range partitions {
			if err := ctx.Err(); err != nil {
				yield(Item{}, err)
				return
			}

			count, ok, err := c.scanPartition(ctx, partition, yield)
			if !ok {
				return
			}

			if err != nil {
				if ctx.Err() != nil || errors.Is(err, ErrSessionExpired) {
					yield(Item{}, err)
					return
				}

				c.log.Warn("[%d/%d] %s failed after %d items: %v", idx+1, len(partitions), partition.Label, count, err)
				if !yield(Item{}, &PartitionError{Partition: partition.Label, Err: err}) {
					return
				}
				continue
			}

			c.log.Info("[%d/%d] %s: %d items", idx+1, len(partitions), partition.Label, count)
		}
	}
}

// scanPartition probes one partition until no new ids appear for the configured
// number of consecutive probes. ok is false once the consumer stopped iterating.
func (c *Client) scanPartition(ctx context.Context, partition Partition, yield func(Item, error) bool) (int, bool, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	pageSize := c.listing.PageSize
	unchanged := 0

	for probe := 0; probe < c.listing.MaxProbes; probe++ {
		if probe > 0 {
			if err := sleepContext(ctx, c.listing.GetProbeInterval()); err != nil {
				return seen.Cardinality(), true, err
			}
		}

		page, err := c.search(ctx, partition.Filters, probe*pageSize, pageSize)
		if err != nil {
			return seen.Cardinality(), true, err
		}

		before := seen.Cardinality()
		for _, item := range page.Data {
			if item.ID == "" || !seen.Add(item.ID) {
				continue
			}
			if !yield(item, nil) {
				return seen.Cardinality(), false, nil
			}
		}

		if seen.Cardinality() == before {
			unchanged++
			if unchanged >= c.listing.StableProbes {
				break
			}
		} else {
			unchanged = 0
		}

		if page.Count > 0 && (probe+1)*pageSize >= page.Count {
			break
		}
	}

	return seen.Cardinality(), true, nil
}

func (c *Client) search(ctx context.Context, filters string, offset, limit int) (*searchResponse, error) {
	var result searchResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"asset":           "ALL",
			"filters":         filters,
			"limit":           strconv.Itoa(limit),
			"offset":          strconv.Itoa(offset),
			"sort":            "['contentProperties.contentDate DESC']",
			"searchContext":   "customer",
			"tempLink":        "false",
			"resourceVersion": "V2",
			"ContentType":     "JSON",
		}).
		SetSuccessResult(&result).
		Get(searchPath)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	if resp.IsErrorState() {
		status := resp.GetStatusCode()
		if isAuthStatus(status) {
			return nil, fmt.Errorf("search returned status %d: %w", status, ErrSessionExpired)
		}
		return nil, fmt.Errorf("search returned status %d", status)
	}

	return &result, nil
}
