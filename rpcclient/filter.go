package rpcclient

import (
	"context"
	"encoding/json"

	"github.com/desktable/aioweb3"
	"github.com/desktable/aioweb3/ethtypes"
)

// NewFilter calls eth_newFilter with spec, returning the server-
// assigned filter id.
func (c *Client) NewFilter(ctx context.Context, spec ethtypes.FilterSpec) (string, error) {
	raw, err := c.call(ctx, "eth_newFilter", spec)
	if err != nil {
		return "", err
	}
	var id string
	if err := decodeString(raw, &id); err != nil {
		return "", err
	}
	return id, nil
}

// NewBlockFilter calls eth_newBlockFilter, a filter that reports new
// block hashes via GetFilterChanges.
func (c *Client) NewBlockFilter(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "eth_newBlockFilter")
	if err != nil {
		return "", err
	}
	var id string
	if err := decodeString(raw, &id); err != nil {
		return "", err
	}
	return id, nil
}

// NewPendingTransactionFilter calls eth_newPendingTransactionFilter, a
// filter that reports newly seen pending transaction hashes via
// GetFilterChanges.
func (c *Client) NewPendingTransactionFilter(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "eth_newPendingTransactionFilter")
	if err != nil {
		return "", err
	}
	var id string
	if err := decodeString(raw, &id); err != nil {
		return "", err
	}
	return id, nil
}

// UninstallFilter calls eth_uninstallFilter, reporting whether the
// filter existed and was removed.
func (c *Client) UninstallFilter(ctx context.Context, id string) (bool, error) {
	raw, err := c.call(ctx, "eth_uninstallFilter", id)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, ethrpc.ParseError(err, "decode eth_uninstallFilter result")
	}
	return ok, nil
}

// GetFilterLogs calls eth_getFilterLogs, returning every log currently
// matched by a log filter.
func (c *Client) GetFilterLogs(ctx context.Context, id string) ([]ethtypes.LogData, error) {
	raw, err := c.call(ctx, "eth_getFilterLogs", id)
	if err != nil {
		return nil, err
	}
	var logs []ethtypes.LogData
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getFilterLogs result")
	}
	return logs, nil
}

// GetFilterChanges calls eth_getFilterChanges. The shape of each
// element depends on the filter kind (log objects for a log filter,
// bare hash strings for a block or pending-transaction filter), so the
// raw per-element JSON is returned for the caller to decode.
func (c *Client) GetFilterChanges(ctx context.Context, id string) ([]json.RawMessage, error) {
	raw, err := c.call(ctx, "eth_getFilterChanges", id)
	if err != nil {
		return nil, err
	}
	var changes []json.RawMessage
	if err := json.Unmarshal(raw, &changes); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getFilterChanges result")
	}
	return changes, nil
}

// GetLogs calls eth_getLogs directly, without installing a
// server-side filter.
func (c *Client) GetLogs(ctx context.Context, spec ethtypes.FilterSpec) ([]ethtypes.LogData, error) {
	raw, err := c.call(ctx, "eth_getLogs", spec)
	if err != nil {
		return nil, err
	}
	var logs []ethtypes.LogData
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, ethrpc.ParseError(err, "decode eth_getLogs result")
	}
	return logs, nil
}
