package fetcher

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/internal/logger"
	rpcmocks "github.com/fundify/indexer/internal/rpc/mocks"
	itypes "github.com/fundify/indexer/internal/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

type dataError struct{ data string }

func (e *dataError) Error() string  { return "invalid params" }
func (e *dataError) ErrorData() any { return e.data }

func setupTestLogFetcher(t *testing.T, finality itypes.BlockFinality, lag uint64) (*LogFetcher, *rpcmocks.EthClient) {
	t.Helper()

	mockRPC := rpcmocks.NewEthClient(t)
	lf := NewLogFetcher(LogFetcherConfig{
		Address:      contractAddr,
		Finality:     finality,
		FinalizedLag: lag,
	}, logger.NewNopLogger(), mockRPC)

	return lf, mockRPC
}

func rangeQuery(from, to uint64) any {
	return mock.MatchedBy(func(q ethereum.FilterQuery) bool {
		return q.FromBlock.Uint64() == from && q.ToBlock.Uint64() == to &&
			len(q.Addresses) == 1 && q.Addresses[0] == contractAddr
	})
}

func TestLogFetcher_Head(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 2)

	mockRPC.On("GetLatestBlockHeader", mock.Anything).Return(&types.Header{Number: big.NewInt(50)}, nil)
	mockRPC.On("GetBlockHeader", mock.Anything, uint64(48)).Return(&types.Header{Number: big.NewInt(48)}, nil)

	head, err := lf.Head(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(48), head.Number.Uint64())
}

func TestLogFetcher_FetchRange_SortsLogs(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 0)

	mockRPC.On("GetLogs", mock.Anything, rangeQuery(1, 10)).Return([]types.Log{
		{BlockNumber: 5, Index: 1},
		{BlockNumber: 2, Index: 7},
		{BlockNumber: 5, Index: 0},
	}, nil)

	result, err := lf.FetchRange(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.FromBlock)
	require.Equal(t, uint64(10), result.ToBlock)
	require.Len(t, result.Logs, 3)
	require.Equal(t, uint64(2), result.Logs[0].BlockNumber)
	require.Equal(t, uint(0), result.Logs[1].Index)
	require.Equal(t, uint(1), result.Logs[2].Index)
}

func TestLogFetcher_FetchRange_SplitsInHalf(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 0)

	tooMany := errors.New("query returned more than 10000 results")
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(100, 200)).Return(nil, tooMany).Once()
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(100, 150)).Return([]types.Log{{BlockNumber: 120}}, nil).Once()

	result, err := lf.FetchRange(context.Background(), 100, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(100), result.FromBlock)
	require.Equal(t, uint64(150), result.ToBlock)
	require.Len(t, result.Logs, 1)
}

func TestLogFetcher_FetchRange_UsesSuggestedRange(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 0)

	suggested := &dataError{data: "Query returned more than 20000 results. Try with this block range [0x64, 0x6e]."}
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(100, 200)).Return(nil, suggested).Once()
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(100, 110)).Return([]types.Log{}, nil).Once()

	result, err := lf.FetchRange(context.Background(), 100, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(110), result.ToBlock)
}

func TestLogFetcher_FetchRange_IgnoresSuggestionOutsideRange(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 0)

	// [50, 60] lies entirely below the requested range.
	suggested := &dataError{data: "Query returned more than 20000 results. Try with this block range [0x32, 0x3c]."}
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(100, 200)).Return(nil, suggested).Once()
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(100, 150)).Return([]types.Log{}, nil).Once()

	result, err := lf.FetchRange(context.Background(), 100, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(100), result.FromBlock)
	require.Equal(t, uint64(150), result.ToBlock)
	require.GreaterOrEqual(t, result.ToBlock, result.FromBlock)
}

func TestLogFetcher_FetchRange_SingleBlockTooLarge(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 0)

	mockRPC.On("GetLogs", mock.Anything, rangeQuery(7, 7)).
		Return(nil, errors.New("query returned more than 10000 results"))

	_, err := lf.FetchRange(context.Background(), 7, 7)
	require.ErrorContains(t, err, "cannot split range further")
}

func TestLogFetcher_FetchRange_Errors(t *testing.T) {
	lf, mockRPC := setupTestLogFetcher(t, itypes.FinalityLatest, 0)

	_, err := lf.FetchRange(context.Background(), 10, 9)
	require.ErrorIs(t, err, ErrInvalidRange)

	down := errors.New("connection refused")
	mockRPC.On("GetLogs", mock.Anything, rangeQuery(1, 2)).Return(nil, down)

	_, err = lf.FetchRange(context.Background(), 1, 2)
	require.ErrorIs(t, err, down)
}
