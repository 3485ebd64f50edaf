package projection

import (
	"github.com/fundify/indexer/internal/events"
	"github.com/fundify/indexer/internal/readmodel"
	"github.com/shopspring/decimal"
)

func (a *applier) OnProjectCreated(e *events.ProjectCreated) error {
	exists, err := a.tx.ProjectExists(a.ctx, e.Owner, e.Index)
	if err != nil {
		return err
	}
	if exists {
		a.projector.log.Warnf("project already exists, skipping: owner=%s, index=%d", e.Owner.Hex(), e.Index)
		a.skipped = true
		return nil
	}

	entry := a.projector.metadata.For(e.Owner, e.Index)
	pos := e.Position()

	err = a.tx.InsertProject(&readmodel.Project{
		Owner:       e.Owner,
		Index:       e.Index,
		Goal:        e.Goal,
		Milestones:  e.Milestones,
		Funded:      decimal.Zero,
		Released:    decimal.Zero,
		Timestamp:   e.Timestamp,
		Title:       entry.Title,
		Description: entry.Description,
		Category:    entry.Category,
		BlockNumber: pos.BlockNumber,
		TxHash:      pos.TxHash,
	})
	if err != nil {
		return err
	}

	a.projector.log.Infof("project created: owner=%s, index=%d, goal=%s", e.Owner.Hex(), e.Index, e.Goal)

	return nil
}

func (a *applier) OnProjectFunded(e *events.ProjectFunded) error {
	matched, err := a.tx.AddProjectFunded(a.ctx, e.ProjectOwner, e.ProjectIndex, e.Amount)
	if err != nil {
		return err
	}
	if !matched {
		a.projector.log.Warnf("funded project not found: owner=%s, index=%d", e.ProjectOwner.Hex(), e.ProjectIndex)
	}

	pos := e.Position()

	return a.tx.InsertInvestment(&readmodel.Investment{
		Funder:          e.Funder,
		InvestmentIndex: e.InvestmentIndex,
		Amount:          e.Amount,
		ProjectOwner:    e.ProjectOwner,
		ProjectIndex:    e.ProjectIndex,
		Timestamp:       e.Timestamp,
		BlockNumber:     pos.BlockNumber,
		TxHash:          pos.TxHash,
		LogIndex:        pos.LogIndex,
	})
}

func (a *applier) OnProjectFundsReleased(e *events.ProjectFundsReleased) error {
	matched, err := a.tx.AddProjectReleased(a.ctx, e.Owner, e.Index, e.Amount)
	if err != nil {
		return err
	}
	if !matched {
		a.projector.log.Warnf("released project not found: owner=%s, index=%d", e.Owner.Hex(), e.Index)
	}

	pos := e.Position()

	err = a.tx.InsertFundsRelease(&readmodel.FundsRelease{
		Owner:        e.Owner,
		ProjectIndex: e.Index,
		Amount:       e.Amount,
		To:           e.To,
		Cycle:        e.Cycle,
		Timestamp:    e.Timestamp,
		BlockNumber:  pos.BlockNumber,
		TxHash:       pos.TxHash,
		LogIndex:     pos.LogIndex,
	})
	if err != nil {
		return err
	}

	ended, err := a.tx.EndVotingCycle(a.ctx, e.Owner, e.Index, e.Cycle)
	if err != nil {
		return err
	}
	if !ended {
		a.projector.log.Warnf("released voting cycle not found: owner=%s, index=%d, cycle=%d",
			e.Owner.Hex(), e.Index, e.Cycle)
	}

	return nil
}

func (a *applier) OnVotingCycleInitiated(e *events.VotingCycleInitiated) error {
	exists, err := a.tx.VotingCycleExists(a.ctx, e.ProjectOwner, e.ProjectIndex, e.VotingCycle)
	if err != nil {
		return err
	}
	if exists {
		a.projector.log.Warnf("voting cycle already exists, skipping: owner=%s, index=%d, cycle=%d",
			e.ProjectOwner.Hex(), e.ProjectIndex, e.VotingCycle)
		a.skipped = true
		return nil
	}

	pos := e.Position()

	return a.tx.InsertVotingCycle(&readmodel.VotingCycle{
		ProjectOwner:   e.ProjectOwner,
		ProjectIndex:   e.ProjectIndex,
		VotingCycle:    e.VotingCycle,
		Amount:         e.Amount,
		DepositWallet:  e.DepositWallet,
		VotingDeadline: e.VotingDeadline,
		VotesNeeded:    e.VotesNeeded,
		BlockNumber:    pos.BlockNumber,
		TxHash:         pos.TxHash,
	})
}

func (a *applier) OnVoted(e *events.Voted) error {
	pos := e.Position()

	err := a.tx.InsertVote(&readmodel.Vote{
		ProjectOwner: e.ProjectOwner,
		ProjectIndex: e.ProjectIndex,
		VotingCycle:  e.VotingCycle,
		Voter:        e.VoteBy,
		BlockNumber:  pos.BlockNumber,
		TxHash:       pos.TxHash,
		LogIndex:     pos.LogIndex,
	})
	if err != nil {
		return err
	}

	matched, err := a.tx.IncrementVotesGathered(a.ctx, e.ProjectOwner, e.ProjectIndex, e.VotingCycle)
	if err != nil {
		return err
	}
	if !matched {
		a.projector.log.Warnf("voted cycle not found: owner=%s, index=%d, cycle=%d",
			e.ProjectOwner.Hex(), e.ProjectIndex, e.VotingCycle)
	}

	return nil
}
