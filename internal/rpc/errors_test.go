package rpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockDataError struct {
	data any
	msg  string
}

func (m *mockDataError) Error() string  { return m.msg }
func (m *mockDataError) ErrorData() any { return m.data }

func TestIsTooManyResultsError(t *testing.T) {
	t.Parallel()

	const suggested = "Query returned more than 20000 results. Try with this block range [0x7dfd25, 0x7e0fcc]."

	tests := []struct {
		name      string
		err       error
		wantMatch bool
		wantData  string
	}{
		{name: "nil error"},
		{name: "unrelated error", err: errors.New("some other error"), wantData: "some other error"},
		{
			name:      "data error with suggested range",
			err:       &mockDataError{data: suggested, msg: "invalid params"},
			wantMatch: true,
			wantData:  suggested,
		},
		{
			name:      "plain message",
			err:       errors.New("query returned more than 10000 results"),
			wantMatch: true,
			wantData:  "query returned more than 10000 results",
		},
		{
			name:      "block range too large",
			err:       errors.New("eth_getLogs block range is too large, max 2000"),
			wantMatch: true,
			wantData:  "eth_getLogs block range is too large, max 2000",
		},
		{
			name:     "data error without data",
			err:      &mockDataError{msg: "execution reverted"},
			wantData: "execution reverted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			match, data := IsTooManyResultsError(tt.err)
			require.Equal(t, tt.wantMatch, match)
			require.Equal(t, tt.wantData, data)
		})
	}
}

func TestParseSuggestedBlockRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantFrom uint64
		wantTo   uint64
		wantOK   bool
	}{
		{name: "empty"},
		{
			name:     "suggested range",
			input:    "Query returned more than 20000 results. Try with this block range [0x7dfd25, 0x7e0fcc].",
			wantFrom: 0x7dfd25,
			wantTo:   0x7e0fcc,
			wantOK:   true,
		},
		{name: "no brackets", input: "Query returned more than 20000 results."},
		{name: "decimal values", input: "range [100, 200]"},
		{name: "inverted range", input: "range [0x10, 0x1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			from, to, ok := ParseSuggestedBlockRange(tt.input)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantFrom, from)
			require.Equal(t, tt.wantTo, to)
		})
	}
}
