package pennylane

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/partnerhub/backend/internal/domain/billingsync"
)

// RecordIterator lazily walks a cursor-paginated listing endpoint, yielding
// one raw record at a time. A page is fetched only when the previous page's
// records are exhausted, so at most one page fetch happens per advancement
// and cancellation between pages takes effect immediately. The iterator is
// finite and not restartable.
type RecordIterator struct {
	client  *Client
	path    string
	perPage int
	cursor  string
	buf     []json.RawMessage
	done    bool
	pages   int
}

// Pages returns an iterator over every record of a paginated endpoint
func (c *Client) Pages(path string) *RecordIterator {
	return &RecordIterator{
		client:  c,
		path:    path,
		perPage: c.config.PerPage,
	}
}

// Next returns the next record in the sequence. The second return value is
// false once the sequence is exhausted. A page-fetch failure ends the
// iteration and is returned to the caller.
func (it *RecordIterator) Next(ctx context.Context) (json.RawMessage, bool, error) {
	if len(it.buf) > 0 {
		return it.pop(), true, nil
	}
	if it.done {
		return nil, false, nil
	}

	if err := it.fetchPage(ctx); err != nil {
		it.done = true
		return nil, false, err
	}

	// Iteration stops on the first empty page
	if len(it.buf) == 0 {
		it.done = true
		return nil, false, nil
	}
	return it.pop(), true, nil
}

// PagesFetched returns how many page requests the iterator has issued
func (it *RecordIterator) PagesFetched() int {
	return it.pages
}

func (it *RecordIterator) pop() json.RawMessage {
	record := it.buf[0]
	it.buf = it.buf[1:]
	return record
}

func (it *RecordIterator) fetchPage(ctx context.Context) error {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(it.perPage))
	if it.cursor != "" {
		query.Set("cursor", it.cursor)
	}

	it.client.logger.Debug("Fetching page",
		zap.String("path", it.path),
		zap.Int("page", it.pages+1))

	body, err := it.client.Request(ctx, http.MethodGet, it.path, query)
	if err != nil {
		return err
	}
	it.pages++

	var page pageEnvelope
	if err := json.Unmarshal(body, &page); err != nil {
		return &billingsync.APIError{Message: "failed to decode paginated response", Cause: err}
	}

	it.buf = page.Items
	if page.HasMore && page.NextCursor != nil && *page.NextCursor != "" {
		it.cursor = *page.NextCursor
	} else {
		it.done = true
	}
	return nil
}
