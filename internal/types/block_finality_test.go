package types

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fundify/indexer/internal/rpc/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func header(n uint64) *ethtypes.Header {
	return &ethtypes.Header{Number: new(big.Int).SetUint64(n)}
}

func TestParseBlockFinality(t *testing.T) {
	tests := []struct {
		input   string
		want    BlockFinality
		wantErr bool
	}{
		{input: "finalized", want: FinalityFinalized},
		{input: "safe", want: FinalitySafe},
		{input: "latest", want: FinalityLatest},
		{input: "", want: FinalityLatest},
		{input: "pending", wantErr: true},
		{input: "FINALIZED", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBlockFinality(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				require.False(t, BlockFinality(tt.input).IsValid())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, string(tt.want), got.String())
		})
	}
}

func TestBlockFinality_Head(t *testing.T) {
	ctx := context.Background()

	t.Run("finalized", func(t *testing.T) {
		client := mocks.NewEthClient(t)
		client.On("GetFinalizedBlockHeader", mock.Anything).Return(header(90), nil)

		h, err := FinalityFinalized.Head(ctx, client, 5)
		require.NoError(t, err)
		require.Equal(t, uint64(90), h.Number.Uint64())
	})

	t.Run("safe", func(t *testing.T) {
		client := mocks.NewEthClient(t)
		client.On("GetSafeBlockHeader", mock.Anything).Return(header(95), nil)

		h, err := FinalitySafe.Head(ctx, client, 0)
		require.NoError(t, err)
		require.Equal(t, uint64(95), h.Number.Uint64())
	})

	t.Run("latest without lag", func(t *testing.T) {
		client := mocks.NewEthClient(t)
		client.On("GetLatestBlockHeader", mock.Anything).Return(header(100), nil)

		h, err := FinalityLatest.Head(ctx, client, 0)
		require.NoError(t, err)
		require.Equal(t, uint64(100), h.Number.Uint64())
	})

	t.Run("latest with lag", func(t *testing.T) {
		client := mocks.NewEthClient(t)
		client.On("GetLatestBlockHeader", mock.Anything).Return(header(100), nil)
		client.On("GetBlockHeader", mock.Anything, uint64(88)).Return(header(88), nil)

		h, err := FinalityLatest.Head(ctx, client, 12)
		require.NoError(t, err)
		require.Equal(t, uint64(88), h.Number.Uint64())
	})

	t.Run("lag beyond chain", func(t *testing.T) {
		client := mocks.NewEthClient(t)
		client.On("GetLatestBlockHeader", mock.Anything).Return(header(3), nil)
		client.On("GetBlockHeader", mock.Anything, uint64(0)).Return(header(0), nil)

		h, err := FinalityLatest.Head(ctx, client, 12)
		require.NoError(t, err)
		require.Equal(t, uint64(0), h.Number.Uint64())
	})

	t.Run("rpc error", func(t *testing.T) {
		client := mocks.NewEthClient(t)
		client.On("GetLatestBlockHeader", mock.Anything).Return(nil, errors.New("down"))

		_, err := FinalityLatest.Head(ctx, client, 12)
		require.ErrorContains(t, err, "down")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := BlockFinality("pending").Head(ctx, mocks.NewEthClient(t), 0)
		require.Error(t, err)
	})
}
