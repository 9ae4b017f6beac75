package testitems

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Submission outcomes.
const (
	resultSuccess  = "success"
	resultMismatch = "mismatch"
	resultFailed   = "failed"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, url, body)
}

// Put performs a PUT request with JSON body
func (c *HTTPClient) Put(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, url, body)
}

func (c *HTTPClient) send(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// progressReporter rate-limits progress lines across workers.
type progressReporter struct {
	lastReport atomic.Int64
	interval   time.Duration
}

func newProgressReporter(interval time.Duration) *progressReporter {
	return &progressReporter{interval: interval}
}

// shouldReport returns true at most once per interval across all callers.
func (p *progressReporter) shouldReport() bool {
	now := time.Now().UnixNano()
	last := p.lastReport.Load()
	if now-last < int64(p.interval) {
		return false
	}
	return p.lastReport.CompareAndSwap(last, now)
}

// submitItems submits items concurrently using worker pools. Every accepted
// response is checked against the rank the ranking engine predicts locally.
func submitItems(ctx context.Context, config *Config, client *HTTPClient, items []GeneratedItem, stats *Stats) error {
	log.Printf("📤 Submitting %d items with %d workers...", len(items), config.Workers)

	url := config.BaseURL + "/items"

	// Counters for statistics
	var (
		successful int64
		mismatched int64
		failed     int64
		submitted  int64
	)

	progress := newProgressReporter(1 * time.Second)

	// Create worker pool. Workers receive indices so they can write the
	// assigned item ID back into the slice.
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleItem(ctx, client, url, &items[index])

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case resultSuccess:
						atomic.AddInt64(&successful, 1)
					case resultMismatch:
						atomic.AddInt64(&mismatched, 1)
						if config.Verbose {
							log.Printf("⚠️  Rank mismatch for item %d: %+v", index, items[index].Payload.Ratings)
						}
					case resultFailed:
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if progress.shouldReport() {
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						mism := atomic.LoadInt64(&mismatched)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (success: %d, mismatch: %d, failed: %d)",
								total, len(items), succ, mism, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (success: %d, mismatch: %d, failed: %d)",
								total, len(items), succ, mism, fail)
						}
					}
				}
			}
		}()
	}

	// Send item indices to workers
	go func() {
		defer close(indexChan)
		for i := range items {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ItemsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ItemsSuccessful = int(atomic.LoadInt64(&successful) + atomic.LoadInt64(&mismatched))
	stats.RankMismatches = int(atomic.LoadInt64(&mismatched))
	stats.ItemsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Item submission completed:
   Successful: %d
   Rank mismatches: %d
   Failed: %d
`, stats.ItemsSuccessful, stats.RankMismatches, stats.ItemsFailed)

	return nil
}

// submitSingleItem submits a single item, records its assigned ID, and
// compares the returned rank against the locally computed expectation.
func submitSingleItem(ctx context.Context, client *HTTPClient, url string, item *GeneratedItem) string {
	resp, err := client.Post(ctx, url, item.Payload)
	if err != nil {
		return resultFailed
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return resultFailed
	}

	if resp.StatusCode != StatusCreated {
		return resultFailed
	}

	var created ItemResponse
	if err := unmarshalJSON(body, &created); err != nil {
		return resultFailed
	}
	item.ID = created.ID

	if item.Expected == nil {
		// Unrated submissions must come back unranked.
		if created.Rated || created.PriorityRank != 0 {
			return resultMismatch
		}
		return resultSuccess
	}

	if !matchesExpected(created, *item.Expected) {
		return resultMismatch
	}
	return resultSuccess
}
