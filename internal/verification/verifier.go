// Package verification re-derives the deterministic parts of the ledger and
// reports tampering: record addresses, trade ids, ownership fields, and the
// gap-free sequence invariant are all recomputable from public data.
package verification

import (
	"context"
	"fmt"

	"swap-ledger/internal/addressing"
	"swap-ledger/internal/domain"
	"swap-ledger/internal/idhash"
	"swap-ledger/internal/storage"
)

// FieldDivergence represents a mismatch between a stored and a recomputed value.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // recomputed value
	Actual   interface{} // stored value
}

// RecordResult contains the verification outcome for a single record.
type RecordResult struct {
	Sequence    uint64            // sequence slot that was checked
	Missing     bool              // true if no record exists at the derived address
	Match       bool              // true if all recomputed fields match
	Divergences []FieldDivergence // list of divergent fields
}

// UserReport contains verification results for one user's full chain.
type UserReport struct {
	User            domain.Identity // verified user
	TradeCount      uint64          // counter value from the user state
	CheckedRecords  int             // records inspected
	MatchedRecords  int             // records with no divergences
	MissingRecords  int             // sequence slots with no record (gap)
	Results         []RecordResult  // individual results, sequence order
}

// Clean reports whether the chain verified with no gaps or divergences.
func (r *UserReport) Clean() bool {
	return r.MissingRecords == 0 && r.MatchedRecords == r.CheckedRecords
}

// Verifier checks stored ledger records against recomputation.
type Verifier struct {
	states storage.UserStateStore
	trades storage.TradeRecordStore
}

// NewVerifier creates a Verifier over the given stores.
func NewVerifier(states storage.UserStateStore, trades storage.TradeRecordStore) *Verifier {
	return &Verifier{states: states, trades: trades}
}

// VerifyUser walks sequence slots 0..tradeCount-1 for one user: each slot's
// derived address must hold a record whose owner, sequence, and trade id
// recompute to the stored values.
func (v *Verifier) VerifyUser(ctx context.Context, user domain.Identity) (*UserReport, error) {
	state, err := v.states.Get(ctx, addressing.UserStateAddress(user))
	if err != nil {
		return nil, fmt.Errorf("get user state: %w", err)
	}

	report := &UserReport{User: user, TradeCount: state.TradeCount}

	for seq := uint64(0); seq < state.TradeCount; seq++ {
		result := v.verifyRecord(ctx, user, seq)
		report.CheckedRecords++
		if result.Missing {
			report.MissingRecords++
		} else if result.Match {
			report.MatchedRecords++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// VerifyAll verifies every registered user's chain.
func (v *Verifier) VerifyAll(ctx context.Context) ([]*UserReport, error) {
	states, err := v.states.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user states: %w", err)
	}

	reports := make([]*UserReport, 0, len(states))
	for _, state := range states {
		report, err := v.VerifyUser(ctx, state.Owner)
		if err != nil {
			return nil, fmt.Errorf("verify user %s: %w", state.Owner, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// verifyRecord checks the record at one (user, sequence) slot.
func (v *Verifier) verifyRecord(ctx context.Context, user domain.Identity, seq uint64) RecordResult {
	result := RecordResult{Sequence: seq}

	addr := addressing.TradeRecordAddress(user, seq)
	record, err := v.trades.Get(ctx, addr)
	if err != nil {
		result.Missing = true
		return result
	}

	if record.Address != addr {
		result.Divergences = append(result.Divergences, FieldDivergence{
			Field:    "Address",
			Expected: addr.String(),
			Actual:   record.Address.String(),
		})
	}
	if record.User != user {
		result.Divergences = append(result.Divergences, FieldDivergence{
			Field:    "User",
			Expected: user.String(),
			Actual:   record.User.String(),
		})
	}
	if record.Sequence != seq {
		result.Divergences = append(result.Divergences, FieldDivergence{
			Field:    "Sequence",
			Expected: seq,
			Actual:   record.Sequence,
		})
	}

	wantID := idhash.ComputeTradeID(
		record.User, record.Sequence,
		record.TokenIn, record.TokenOut,
		record.Amount, record.Price,
	)
	if record.TradeID != wantID {
		result.Divergences = append(result.Divergences, FieldDivergence{
			Field:    "TradeID",
			Expected: wantID.String(),
			Actual:   record.TradeID.String(),
		})
	}

	result.Match = len(result.Divergences) == 0
	return result
}
