// Package rpc is the Ethereum JSON-RPC client used by the indexer. Every call is bounded
// by a timeout and retried with exponential backoff on transient failures.
package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/fundify/indexer/pkg/config"
	pkgrpc "github.com/fundify/indexer/pkg/rpc"
)

var _ pkgrpc.EthClient = (*Client)(nil)

// Client wraps the go-ethereum client with timeouts, retries and metrics.
type Client struct {
	eth     *ethclient.Client
	retry   *config.RetryConfig
	timeout time.Duration
}

// NewClient dials the RPC endpoint of cfg.
func NewClient(ctx context.Context, cfg config.DownloaderConfig) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCURL, err)
	}

	return &Client{
		eth:     ethclient.NewClient(rpcClient),
		retry:   cfg.Retry,
		timeout: cfg.RPCTimeout.Duration,
	}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	c.eth.Close()
}

// GetLogs retrieves logs matching the given filter query.
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log

	err := c.call(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, query)
		return err
	})

	return logs, err
}

// GetBlockHeader retrieves the header for a specific block number.
func (c *Client) GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error) {
	return c.header(ctx, new(big.Int).SetUint64(blockNum))
}

// GetLatestBlockHeader retrieves the latest block header.
func (c *Client) GetLatestBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.header(ctx, nil)
}

// GetFinalizedBlockHeader retrieves the finalized block header.
func (c *Client) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.header(ctx, big.NewInt(int64(rpc.FinalizedBlockNumber)))
}

// GetSafeBlockHeader retrieves the safe block header.
func (c *Client) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	return c.header(ctx, big.NewInt(int64(rpc.SafeBlockNumber)))
}

func (c *Client) header(ctx context.Context, number *big.Int) (*types.Header, error) {
	var header *types.Header

	err := c.call(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		header, err = c.eth.HeaderByNumber(ctx, number)
		return err
	})

	return header, err
}

// call runs fn with a per-attempt timeout under the retry policy and records metrics.
func (c *Client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	start := time.Now()
	RPCMethodInc(method)

	err := retryWithBackoff(ctx, c.retry, method, func() error {
		attemptCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		return fn(attemptCtx)
	})

	RPCMethodDuration(method, time.Since(start))
	if err != nil {
		RPCMethodError(method, errorType(err))
		return fmt.Errorf("%s: %w", method, err)
	}

	return nil
}

func errorType(err error) string {
	switch {
	case isTooManyResults(err):
		return "too_many_results"
	case retryableError(err):
		return "transient"
	default:
		return "other"
	}
}

func isTooManyResults(err error) bool {
	ok, _ := IsTooManyResultsError(err)
	return ok
}
