package readmodel

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Table names.
const (
	tableProjects      = "projects"
	tableInvestments   = "investments"
	tableFundReleases  = "fund_releases"
	tableVotingCycles  = "voting_cycles"
	tableVotes         = "votes"
	tableProcessedLogs = "processed_logs"
)

// Project is the mutable aggregate of a crowdfunding project, keyed by (Owner, Index).
// Amounts are whole ether units.
type Project struct {
	ID          string          `meddler:"id" json:"id"`
	Owner       common.Address  `meddler:"owner,address" json:"owner"`
	Index       uint64          `meddler:"project_index" json:"index"`
	Goal        decimal.Decimal `meddler:"goal" json:"goal"`
	Milestones  uint64          `meddler:"milestones" json:"milestones"`
	Funded      decimal.Decimal `meddler:"funded" json:"funded"`
	Released    decimal.Decimal `meddler:"released" json:"released"`
	Timestamp   uint64          `meddler:"timestamp" json:"timestamp"`
	Title       string          `meddler:"title" json:"title"`
	Description string          `meddler:"description" json:"description"`
	Category    string          `meddler:"category" json:"category"`
	BlockNumber uint64          `meddler:"block_number" json:"block_number"`
	TxHash      common.Hash     `meddler:"tx_hash,hash" json:"tx_hash"`
	CreatedAt   int64           `meddler:"created_at" json:"created_at"`
	UpdatedAt   int64           `meddler:"updated_at" json:"updated_at"`
}

// Investment is one immutable ProjectFunded record.
type Investment struct {
	ID              string          `meddler:"id" json:"id"`
	Funder          common.Address  `meddler:"funder,address" json:"funder"`
	InvestmentIndex uint64          `meddler:"investment_index" json:"investment_index"`
	Amount          decimal.Decimal `meddler:"amount" json:"amount"`
	ProjectOwner    common.Address  `meddler:"project_owner,address" json:"project_owner"`
	ProjectIndex    uint64          `meddler:"project_index" json:"project_index"`
	Timestamp       uint64          `meddler:"timestamp" json:"timestamp"`
	BlockNumber     uint64          `meddler:"block_number" json:"block_number"`
	TxHash          common.Hash     `meddler:"tx_hash,hash" json:"tx_hash"`
	LogIndex        uint            `meddler:"log_index" json:"log_index"`
	CreatedAt       int64           `meddler:"created_at" json:"created_at"`
}

// FundsRelease is the audit record of a ProjectFundsReleased event.
type FundsRelease struct {
	ID           string          `meddler:"id" json:"id"`
	Owner        common.Address  `meddler:"owner,address" json:"owner"`
	ProjectIndex uint64          `meddler:"project_index" json:"project_index"`
	Amount       decimal.Decimal `meddler:"amount" json:"amount"`
	To           common.Address  `meddler:"recipient,address" json:"to"`
	Cycle        uint64          `meddler:"voting_cycle" json:"cycle"`
	Timestamp    uint64          `meddler:"timestamp" json:"timestamp"`
	BlockNumber  uint64          `meddler:"block_number" json:"block_number"`
	TxHash       common.Hash     `meddler:"tx_hash,hash" json:"tx_hash"`
	LogIndex     uint            `meddler:"log_index" json:"log_index"`
	CreatedAt    int64           `meddler:"created_at" json:"created_at"`
}

// VotingCycle is keyed by (ProjectOwner, ProjectIndex, VotingCycle).
// VotesGathered and Ended are the only mutable fields.
type VotingCycle struct {
	ID             string          `meddler:"id" json:"id"`
	ProjectOwner   common.Address  `meddler:"project_owner,address" json:"project_owner"`
	ProjectIndex   uint64          `meddler:"project_index" json:"project_index"`
	VotingCycle    uint64          `meddler:"voting_cycle" json:"voting_cycle"`
	Amount         decimal.Decimal `meddler:"amount" json:"amount"`
	DepositWallet  common.Address  `meddler:"deposit_wallet,address" json:"deposit_wallet"`
	VotingDeadline uint64          `meddler:"voting_deadline" json:"voting_deadline"`
	VotesNeeded    uint64          `meddler:"votes_needed" json:"votes_needed"`
	VotesGathered  uint64          `meddler:"votes_gathered" json:"votes_gathered"`
	Ended          bool            `meddler:"ended" json:"ended"`
	BlockNumber    uint64          `meddler:"block_number" json:"block_number"`
	TxHash         common.Hash     `meddler:"tx_hash,hash" json:"tx_hash"`
	CreatedAt      int64           `meddler:"created_at" json:"created_at"`
	UpdatedAt      int64           `meddler:"updated_at" json:"updated_at"`
}

// Vote is one immutable Voted record. Repeat voters are not collapsed.
type Vote struct {
	ID           string         `meddler:"id" json:"id"`
	ProjectOwner common.Address `meddler:"project_owner,address" json:"project_owner"`
	ProjectIndex uint64         `meddler:"project_index" json:"project_index"`
	VotingCycle  uint64         `meddler:"voting_cycle" json:"voting_cycle"`
	Voter        common.Address `meddler:"voter,address" json:"voter"`
	BlockNumber  uint64         `meddler:"block_number" json:"block_number"`
	TxHash       common.Hash    `meddler:"tx_hash,hash" json:"tx_hash"`
	LogIndex     uint           `meddler:"log_index" json:"log_index"`
	CreatedAt    int64          `meddler:"created_at" json:"created_at"`
}

// ProcessedLog marks a log as applied to the read model.
type ProcessedLog struct {
	TxHash      common.Hash `meddler:"tx_hash,hash"`
	LogIndex    uint        `meddler:"log_index"`
	BlockNumber uint64      `meddler:"block_number"`
}

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	Owner    *common.Address
	Category string
	Limit    int
	Offset   int
}

// Page limits a listing.
type Page struct {
	Limit  int
	Offset int
}

// InvestmentSummary aggregates the investments of a project.
type InvestmentSummary struct {
	TotalInvestors    int                `json:"total_investors"`
	TotalInvestments  int                `json:"total_investments"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	AverageInvestment decimal.Decimal    `json:"average_investment"`
	ByFunder          []FunderInvestment `json:"by_funder"`
}

// FunderInvestment is the per-funder part of an InvestmentSummary.
type FunderInvestment struct {
	Funder      common.Address  `json:"funder"`
	Investments int             `json:"investments"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}
