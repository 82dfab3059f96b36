package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	submitWaitTimeout = "10s"
	pollInterval      = time.Second
	maxPollAttempts   = 12
	requestTimeout    = 30 * time.Second
)

// WarehouseClient queries a remote SQL warehouse through its statement
// execution API: submit a statement, then poll until the statement reaches a
// terminal state.
type WarehouseClient struct {
	workspaceURL string
	warehouseID  string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewWarehouseClient creates a client for the given workspace. The workspace
// URL is the base of the statements API.
func NewWarehouseClient(workspaceURL, warehouseID, token string) *WarehouseClient {
	return &WarehouseClient{
		workspaceURL: strings.TrimRight(workspaceURL, "/"),
		warehouseID:  warehouseID,
		token:        token,
		httpClient:   &http.Client{Timeout: requestTimeout},
		pollInterval: pollInterval,
	}
}

type statementRequest struct {
	Statement   string `json:"statement"`
	WarehouseID string `json:"warehouse_id"`
	WaitTimeout string `json:"wait_timeout"`
	Disposition string `json:"disposition"`
}

type statementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
	} `json:"status"`
	Result struct {
		DataArray [][]string `json:"data_array"`
		Schema    struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		} `json:"schema"`
	} `json:"result"`
}

// Query executes a SQL statement and returns the result rows as column-name
// keyed maps. Any failure (network, auth, non-200, non-terminal statement,
// malformed payload) is returned as an error so the caller can decide on a
// fallback.
func (c *WarehouseClient) Query(ctx context.Context, statement string) ([]map[string]string, error) {
	resp, err := c.submit(ctx, statement)
	if err != nil {
		return nil, err
	}

	if resp.Status.State == "PENDING" || resp.Status.State == "RUNNING" {
		resp, err = c.poll(ctx, resp.StatementID)
		if err != nil {
			return nil, err
		}
	}

	if resp.Status.State != "SUCCEEDED" {
		return nil, fmt.Errorf("statement finished in state %q", resp.Status.State)
	}

	return rowsToMaps(resp), nil
}

func (c *WarehouseClient) submit(ctx context.Context, statement string) (*statementResponse, error) {
	body, err := json.Marshal(statementRequest{
		Statement:   statement,
		WarehouseID: c.warehouseID,
		WaitTimeout: submitWaitTimeout,
		Disposition: "INLINE",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.workspaceURL+"/api/2.0/sql/statements", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating statement request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req)
}

// poll re-reads the statement until it reaches a terminal state or attempts
// run out.
func (c *WarehouseClient) poll(ctx context.Context, statementID string) (*statementResponse, error) {
	var last *statementResponse
	for range maxPollAttempts {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.workspaceURL+"/api/2.0/sql/statements/"+statementID, nil)
		if err != nil {
			return nil, fmt.Errorf("creating poll request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.do(req)
		if err != nil {
			return nil, err
		}
		last = resp

		switch resp.Status.State {
		case "SUCCEEDED", "FAILED", "CANCELED":
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return last, nil
}

func (c *WarehouseClient) do(req *http.Request) (*statementResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing warehouse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("warehouse returned status %d", resp.StatusCode)
	}

	var sr statementResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding warehouse response: %w", err)
	}
	return &sr, nil
}

func (c *WarehouseClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
}

// rowsToMaps zips the columnar result schema with each data row. Missing
// columns get a generated name so short rows still map cleanly.
func rowsToMaps(resp *statementResponse) []map[string]string {
	cols := make([]string, len(resp.Result.Schema.Columns))
	for i, c := range resp.Result.Schema.Columns {
		if c.Name != "" {
			cols[i] = c.Name
		} else {
			cols[i] = fmt.Sprintf("col_%d", i)
		}
	}

	rows := make([]map[string]string, 0, len(resp.Result.DataArray))
	for _, raw := range resp.Result.DataArray {
		row := make(map[string]string, len(cols))
		for i, v := range raw {
			if i < len(cols) {
				row[cols[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}
