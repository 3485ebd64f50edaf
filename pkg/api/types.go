package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/readmodel"
)

// ListResponse wraps a page of records.
type ListResponse struct {
	Items      any              `json:"items"`
	Pagination PaginationResult `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Count   int  `json:"count"`
	HasMore bool `json:"has_more"`
}

// InvestmentsResponse lists the investments of a project together with their summary.
type InvestmentsResponse struct {
	Investments []*readmodel.Investment      `json:"investments"`
	Summary     *readmodel.InvestmentSummary `json:"summary"`
	Pagination  PaginationResult             `json:"pagination"`
}

// VoteCheckResponse tells whether an address voted in a cycle.
type VoteCheckResponse struct {
	Owner    common.Address `json:"owner"`
	Index    uint64         `json:"index"`
	Cycle    uint64         `json:"cycle"`
	Voter    common.Address `json:"voter"`
	HasVoted bool           `json:"has_voted"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse reports indexing progress and read-model sizes.
type StatusResponse struct {
	Contract             common.Address   `json:"contract"`
	LastIndexedBlock     uint64           `json:"last_indexed_block"`
	LastIndexedBlockHash common.Hash      `json:"last_indexed_block_hash"`
	LastIndexedAt        *time.Time       `json:"last_indexed_at,omitempty"`
	Records              map[string]int64 `json:"records"`
}
