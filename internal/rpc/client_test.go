package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/pkg/config"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers the JSON-RPC methods the client uses.
type fakeNode struct {
	head     uint64
	logs     []types.Log
	failures atomic.Int32
	calls    atomic.Int32
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls.Add(1)

	if n.failures.Load() > 0 {
		n.failures.Add(-1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var result any
	switch req.Method {
	case "eth_getBlockByNumber":
		var tag string
		_ = json.Unmarshal(req.Params[0], &tag)

		number := n.head
		switch tag {
		case "latest", "safe", "finalized":
		default:
			parsed, err := internalcommon.ParseBlockNumber(tag)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			number = parsed
		}
		result = &types.Header{Number: new(big.Int).SetUint64(number), Difficulty: big.NewInt(0)}
	case "eth_getLogs":
		result = n.logs
	default:
		http.Error(w, "unsupported method "+req.Method, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func newTestClient(t *testing.T, node *fakeNode, retry *config.RetryConfig) *Client {
	t.Helper()

	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), config.DownloaderConfig{
		RPCURL:     srv.URL,
		RPCTimeout: internalcommon.NewDuration(time.Second),
		Retry:      retry,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestClient_Headers(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, &fakeNode{head: 120}, nil)

	latest, err := client.GetLatestBlockHeader(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(120), latest.Number.Uint64())

	finalized, err := client.GetFinalizedBlockHeader(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(120), finalized.Number.Uint64())

	safe, err := client.GetSafeBlockHeader(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(120), safe.Number.Uint64())

	header, err := client.GetBlockHeader(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, uint64(42), header.Number.Uint64())
}

func TestClient_GetLogs(t *testing.T) {
	address := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	node := &fakeNode{
		head: 10,
		logs: []types.Log{{
			Address:     address,
			Topics:      []common.Hash{common.HexToHash("0x01")},
			Data:        []byte{0x1},
			BlockNumber: 7,
			TxHash:      common.HexToHash("0xaa"),
			BlockHash:   common.HexToHash("0xbb"),
			Index:       3,
		}},
	}
	client := newTestClient(t, node, nil)

	logs, err := client.GetLogs(context.Background(), ethereum.FilterQuery{
		FromBlock: big.NewInt(1),
		ToBlock:   big.NewInt(10),
		Addresses: []common.Address{address},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, uint64(7), logs[0].BlockNumber)
	require.Equal(t, uint(3), logs[0].Index)
	require.Equal(t, address, logs[0].Address)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	node := &fakeNode{head: 5}
	node.failures.Store(2)

	client := newTestClient(t, node, fastRetry(3))

	header, err := client.GetLatestBlockHeader(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(5), header.Number.Uint64())
	require.Equal(t, int32(3), node.calls.Load())
}

func TestClient_GivesUpWithoutRetryConfig(t *testing.T) {
	node := &fakeNode{head: 5}
	node.failures.Store(1)

	client := newTestClient(t, node, nil)

	_, err := client.GetLatestBlockHeader(context.Background())
	require.ErrorContains(t, err, "eth_getBlockByNumber")
	require.Equal(t, int32(1), node.calls.Load())
}
