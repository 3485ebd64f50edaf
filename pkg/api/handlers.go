package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/internal/readmodel"
	"github.com/fundify/indexer/pkg/downloader"
	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ReadModel is the read-model query surface served by the API.
type ReadModel interface {
	GetProjectByID(ctx context.Context, id string) (*readmodel.Project, error)
	GetProject(ctx context.Context, owner common.Address, index uint64) (*readmodel.Project, error)
	ListProjects(ctx context.Context, filter readmodel.ProjectFilter) ([]*readmodel.Project, error)
	ListInvestments(ctx context.Context, owner common.Address, index uint64, page readmodel.Page) ([]*readmodel.Investment, error)
	ListInvestmentsByFunder(ctx context.Context, funder common.Address, page readmodel.Page) ([]*readmodel.Investment, error)
	InvestmentSummary(ctx context.Context, owner common.Address, index uint64) (*readmodel.InvestmentSummary, error)
	ListVotingCycles(ctx context.Context, owner common.Address, index uint64, activeOnly bool) ([]*readmodel.VotingCycle, error)
	GetVotingCycle(ctx context.Context, owner common.Address, index, cycle uint64) (*readmodel.VotingCycle, error)
	ListVotes(ctx context.Context, owner common.Address, index, cycle uint64) ([]*readmodel.Vote, error)
	HasVoted(ctx context.Context, owner common.Address, index, cycle uint64, voter common.Address) (bool, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// StatusProvider exposes the indexing checkpoint.
type StatusProvider interface {
	GetState(ctx context.Context) (*downloader.SyncState, error)
}

var _ ReadModel = (*readmodel.Store)(nil)

// Handler handles HTTP requests for the API.
type Handler struct {
	store  ReadModel
	status StatusProvider
	log    *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(store ReadModel, status StatusProvider, log *logger.Logger) *Handler {
	return &Handler{
		store:  store,
		status: status,
		log:    log,
	}
}

// Health returns the liveness of the API.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// GetStatus returns the indexing checkpoint and the number of records per table.
// @Summary Indexing status
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 500 {object} ErrorResponse
// @Router /status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.status.GetState(r.Context())
	if err != nil {
		h.log.Errorf("failed to get sync state: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get sync state")
		return
	}

	counts, err := h.store.Counts(r.Context())
	if err != nil {
		h.log.Errorf("failed to count records: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to count records")
		return
	}

	response := StatusResponse{
		Contract:             state.ContractAddress,
		LastIndexedBlock:     state.LastIndexedBlock,
		LastIndexedBlockHash: state.LastIndexedBlockHash,
		Records:              counts,
	}
	if !state.IsFresh() {
		at := time.Unix(state.LastIndexedTimestamp, 0).UTC()
		response.LastIndexedAt = &at
	}

	respondJSON(w, http.StatusOK, response)
}

// ListProjects lists projects, newest first.
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param owner query string false "Owner address"
// @Param category query string false "Category"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Records to skip" default(0)
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := readmodel.ProjectFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if raw := r.URL.Query().Get("owner"); raw != "" {
		owner, err := parseAddress("owner", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Owner = &owner
	}

	projects, err := h.store.ListProjects(r.Context(), filter)
	if err != nil {
		h.log.Errorf("failed to list projects: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: projects, Pagination: pagination(page, len(projects))})
}

// GetProjectByID returns a project by its id.
// @Summary Get project by id
// @Tags Projects
// @Produce json
// @Param id path string true "Project id (UUID)"
// @Success 200 {object} readmodel.Project
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id} [get]
func (h *Handler) GetProjectByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := uuid.Validate(id); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid project id %q", id))
		return
	}

	project, err := h.store.GetProjectByID(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err, "project")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// GetProject returns a project by owner and index.
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param owner path string true "Owner address"
// @Param index path int true "Project index"
// @Success 200 {object} readmodel.Project
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{owner}/{index} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	owner, index, err := parseProjectKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.store.GetProject(r.Context(), owner, index)
	if err != nil {
		h.respondStoreError(w, err, "project")
		return
	}

	respondJSON(w, http.StatusOK, project)
}

// GetProjectInvestments lists the investments of a project with a summary.
// @Summary List project investments
// @Tags Investments
// @Produce json
// @Param owner path string true "Owner address"
// @Param index path int true "Project index"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Records to skip" default(0)
// @Success 200 {object} InvestmentsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{owner}/{index}/investments [get]
func (h *Handler) GetProjectInvestments(w http.ResponseWriter, r *http.Request) {
	owner, index, err := parseProjectKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.GetProject(r.Context(), owner, index); err != nil {
		h.respondStoreError(w, err, "project")
		return
	}

	investments, err := h.store.ListInvestments(r.Context(), owner, index, page)
	if err != nil {
		h.respondStoreError(w, err, "investments")
		return
	}

	summary, err := h.store.InvestmentSummary(r.Context(), owner, index)
	if err != nil {
		h.respondStoreError(w, err, "investment summary")
		return
	}

	respondJSON(w, http.StatusOK, InvestmentsResponse{
		Investments: investments,
		Summary:     summary,
		Pagination:  pagination(page, len(investments)),
	})
}

// ListVotingCycles lists the voting cycles of a project. With active=true only the latest
// cycle that has not ended is returned.
// @Summary List voting cycles
// @Tags Voting
// @Produce json
// @Param owner path string true "Owner address"
// @Param index path int true "Project index"
// @Param active query bool false "Return only the latest active cycle"
// @Success 200 {array} readmodel.VotingCycle
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{owner}/{index}/voting-cycles [get]
func (h *Handler) ListVotingCycles(w http.ResponseWriter, r *http.Request) {
	owner, index, err := parseProjectKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		activeOnly, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid active: must be true or false")
			return
		}
	}

	cycles, err := h.store.ListVotingCycles(r.Context(), owner, index, activeOnly)
	if err != nil {
		h.respondStoreError(w, err, "voting cycles")
		return
	}

	if !activeOnly {
		respondJSON(w, http.StatusOK, cycles)
		return
	}

	if len(cycles) == 0 {
		respondError(w, http.StatusNotFound, "no active voting cycle")
		return
	}

	respondJSON(w, http.StatusOK, cycles[len(cycles)-1])
}

// ListVotes lists the votes cast in a voting cycle.
// @Summary List votes
// @Tags Voting
// @Produce json
// @Param owner path string true "Owner address"
// @Param index path int true "Project index"
// @Param cycle path int true "Voting cycle"
// @Success 200 {array} readmodel.Vote
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{owner}/{index}/voting-cycles/{cycle}/votes [get]
func (h *Handler) ListVotes(w http.ResponseWriter, r *http.Request) {
	owner, index, err := parseProjectKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cycle, err := parseUint("cycle", r.PathValue("cycle"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.GetVotingCycle(r.Context(), owner, index, cycle); err != nil {
		h.respondStoreError(w, err, "voting cycle")
		return
	}

	votes, err := h.store.ListVotes(r.Context(), owner, index, cycle)
	if err != nil {
		h.respondStoreError(w, err, "votes")
		return
	}

	respondJSON(w, http.StatusOK, votes)
}

// CheckVote tells whether an address voted in a voting cycle.
// @Summary Check vote
// @Tags Voting
// @Produce json
// @Param owner query string true "Owner address"
// @Param index query int true "Project index"
// @Param cycle query int true "Voting cycle"
// @Param voter query string true "Voter address"
// @Success 200 {object} VoteCheckResponse
// @Failure 400 {object} ErrorResponse
// @Router /votes/check [get]
func (h *Handler) CheckVote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	owner, err := parseAddress("owner", q.Get("owner"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index, err := parseUint("index", q.Get("index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cycle, err := parseUint("cycle", q.Get("cycle"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	voter, err := parseAddress("voter", q.Get("voter"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	voted, err := h.store.HasVoted(r.Context(), owner, index, cycle, voter)
	if err != nil {
		h.respondStoreError(w, err, "vote")
		return
	}

	respondJSON(w, http.StatusOK, VoteCheckResponse{
		Owner:    owner,
		Index:    index,
		Cycle:    cycle,
		Voter:    voter,
		HasVoted: voted,
	})
}

// ListInvestorInvestments lists the investments made by an address.
// @Summary List investments of an investor
// @Tags Investments
// @Produce json
// @Param address path string true "Investor address"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Records to skip" default(0)
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Router /investors/{address}/investments [get]
func (h *Handler) ListInvestorInvestments(w http.ResponseWriter, r *http.Request) {
	funder, err := parseAddress("address", r.PathValue("address"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := parsePage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	investments, err := h.store.ListInvestmentsByFunder(r.Context(), funder, page)
	if err != nil {
		h.respondStoreError(w, err, "investments")
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: investments, Pagination: pagination(page, len(investments))})
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, readmodel.ErrNotFound) {
		respondError(w, http.StatusNotFound, what+" not found")
		return
	}

	h.log.Errorf("failed to query %s: %v", what, err)
	respondError(w, http.StatusInternalServerError, "failed to query "+what)
}

func parseProjectKey(r *http.Request) (common.Address, uint64, error) {
	owner, err := parseAddress("owner", r.PathValue("owner"))
	if err != nil {
		return common.Address{}, 0, err
	}

	index, err := parseUint("index", r.PathValue("index"))
	if err != nil {
		return common.Address{}, 0, err
	}

	return owner, index, nil
}

func parseAddress(name, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid %s: %q is not an address", name, raw)
	}

	return common.HexToAddress(raw), nil
}

func parseUint(name, raw string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", name)
	}

	return v, nil
}

// parsePage parses limit and offset query parameters.
func parsePage(r *http.Request) (readmodel.Page, error) {
	page := readmodel.Page{Limit: defaultLimit}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > maxLimit {
			return page, fmt.Errorf("invalid limit: must be between 1 and %d", maxLimit)
		}
		page.Limit = limit
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return page, fmt.Errorf("invalid offset: must be non-negative")
		}
		page.Offset = offset
	}

	return page, nil
}

func pagination(page readmodel.Page, count int) PaginationResult {
	return PaginationResult{
		Limit:   page.Limit,
		Offset:  page.Offset,
		Count:   count,
		HasMore: count == page.Limit,
	}
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// encode first so an encoding error can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
