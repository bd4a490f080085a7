package redash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	jobStatusSuccess = 3
	jobStatusFailure = 4
)

type Settings struct {
	Host         string
	APIKey       string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Client runs parameterised Redash queries and returns their result sets.
type Client struct {
	host         string
	apiKey       string
	pollInterval time.Duration
	http         *http.Client
}

func NewClient(settings Settings) *Client {
	hc := settings.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	interval := settings.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Client{
		host:         settings.Host,
		apiKey:       settings.APIKey,
		pollInterval: interval,
		http:         hc,
	}
}

type job struct {
	ID            string `json:"id"`
	Status        int    `json:"status"`
	Error         string `json:"error"`
	QueryResultID int64  `json:"query_result_id"`
}

type refreshResponse struct {
	Job         *job         `json:"job"`
	QueryResult *queryResult `json:"query_result"`
}

type jobResponse struct {
	Job job `json:"job"`
}

type queryResult struct {
	ID   int64 `json:"id"`
	Data struct {
		Columns []struct {
			Name string `json:"name"`
		} `json:"columns"`
		Rows []map[string]any `json:"rows"`
	} `json:"data"`
}

type resultResponse struct {
	QueryResult queryResult `json:"query_result"`
}

// Run refreshes a query for the date range, waits for the job and downloads the
// result.
func (c *Client) Run(ctx context.Context, queryID int, dr domain.DateRange) (*domain.Table, error) {
	logger := zerolog.Ctx(ctx)

	payload := map[string]any{
		"max_age": 0,
		"parameters": map[string]string{
			"p_start_date": dr.Start.Format(domain.DateLayout),
			"p_end_date":   dr.End.Format(domain.DateLayout),
		},
	}

	var refresh refreshResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/queries/%d/results", queryID), payload, &refresh); err != nil {
		return nil, fmt.Errorf("refresh of query %d failed: %w", queryID, err)
	}
	if refresh.QueryResult != nil {
		return toTable(refresh.QueryResult), nil
	}
	if refresh.Job == nil {
		return nil, fmt.Errorf("refresh of query %d returned neither job nor result", queryID)
	}

	logger.Debug().Int("query_id", queryID).Str("job_id", refresh.Job.ID).Msg("waiting for redash job")
	resultID, err := c.poll(ctx, *refresh.Job)
	if err != nil {
		return nil, fmt.Errorf("query %d execution failed: %w", queryID, err)
	}

	var result resultResponse
	path := fmt.Sprintf("/api/queries/%d/results/%d.json", queryID, resultID)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, fmt.Errorf("failed getting results of query %d: %w", queryID, err)
	}
	return toTable(&result.QueryResult), nil
}

func (c *Client) poll(ctx context.Context, j job) (int64, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for j.Status != jobStatusSuccess && j.Status != jobStatusFailure {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}

		var resp jobResponse
		if err := c.do(ctx, http.MethodGet, "/api/jobs/"+j.ID, nil, &resp); err != nil {
			return 0, err
		}
		j = resp.Job
	}

	if j.Status == jobStatusFailure {
		return 0, fmt.Errorf("job %s failed: %s", j.ID, j.Error)
	}
	return j.QueryResultID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

func toTable(qr *queryResult) *domain.Table {
	columns := make([]string, 0, len(qr.Data.Columns))
	for _, c := range qr.Data.Columns {
		columns = append(columns, c.Name)
	}
	table := domain.NewTable(columns...)

	var extra []string
	for _, r := range qr.Data.Rows {
		for name := range r {
			if !table.HasColumn(name) && !slices.Contains(extra, name) {
				extra = append(extra, name)
			}
		}
		table.Append(domain.Row(r))
	}
	slices.Sort(extra)
	for _, name := range extra {
		table.AddColumn(name)
	}
	return table
}
