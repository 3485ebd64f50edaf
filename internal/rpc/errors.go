package rpc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/fundify/indexer/internal/common"
)

var (
	tooManyResultsRe = regexp.MustCompile(`(?i)query returned more than \d+ results`)
	suggestedRangeRe = regexp.MustCompile(`\[(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)\]`)

	// Messages other providers use when an eth_getLogs range is too wide.
	rangeTooWideMessages = []string{
		"block range is too large",
		"block range too large",
		"exceed maximum block range",
		"log response size exceeded",
		"query timeout exceeded",
	}
)

// IsTooManyResultsError reports whether err means the eth_getLogs range must be narrowed.
// The second return value is the provider's error text, which may carry a suggested range.
func IsTooManyResultsError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	text := err.Error()

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		text = fmt.Sprintf("%v", dataErr.ErrorData())
	}

	if tooManyResultsRe.MatchString(text) {
		return true, text
	}

	lower := strings.ToLower(text)
	for _, msg := range rangeTooWideMessages {
		if strings.Contains(lower, msg) {
			return true, text
		}
	}

	return false, text
}

// ParseSuggestedBlockRange extracts a suggested block range such as
// "Try with this block range [0x7dfd25, 0x7e0fcc]." from a provider error.
func ParseSuggestedBlockRange(err string) (fromBlock, toBlock uint64, ok bool) {
	matches := suggestedRangeRe.FindStringSubmatch(err)

	const expectedMatches = 3 // full match + 2 groups
	if len(matches) != expectedMatches {
		return 0, 0, false
	}

	from, err1 := common.ParseBlockNumber(matches[1])
	to, err2 := common.ParseBlockNumber(matches[2])
	if err1 != nil || err2 != nil || to < from {
		return 0, 0, false
	}

	return from, to, true
}
