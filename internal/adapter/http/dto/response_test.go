package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestMovementFromDomain_BalancesOnlyWhenCompleted(t *testing.T) {
	completed := &domain.Movement{
		ID:            "m1",
		Seq:           3,
		Amount:        decimal.NewFromInt(30),
		Status:        domain.MovementStatusCompleted,
		SourceBalance: decimal.NewFromInt(70),
		DestBalance:   decimal.NewFromInt(80),
		CreatedAt:     time.Now(),
	}
	rejected := &domain.Movement{
		ID:     "m2",
		Amount: decimal.NewFromInt(50),
		Status: domain.MovementStatusRejected,
		Reason: domain.ReasonInsufficientFunds,
	}

	got := MovementsFromDomain([]*domain.Movement{completed, rejected})
	if got[0].SourceBalance == nil || !got[0].SourceBalance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected source balance on completed movement, got %+v", got[0])
	}
	if got[1].SourceBalance != nil || got[1].DestBalance != nil {
		t.Fatalf("expected no balances on rejected movement, got %+v", got[1])
	}
	if got[1].Reason != domain.ReasonInsufficientFunds {
		t.Fatalf("expected rejection reason, got %q", got[1].Reason)
	}
}

func TestTransferFromDomain(t *testing.T) {
	result := &domain.TransferResult{
		Movement:  &domain.Movement{ID: "m1", Status: domain.MovementStatusCompleted, Amount: decimal.NewFromInt(30)},
		Source:    &domain.Account{ID: "a", Balance: decimal.NewFromInt(70)},
		Dest:      &domain.Account{ID: "b", Balance: decimal.NewFromInt(80)},
		Duplicate: true,
	}

	resp := TransferFromDomain(result)
	if resp.Movement.ID != "m1" || !resp.Duplicate {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Source.ID != "a" || resp.Dest.ID != "b" {
		t.Fatalf("expected account snapshots, got %+v / %+v", resp.Source, resp.Dest)
	}

	body, err := json.Marshal(TransferFromDomain(&domain.TransferResult{Movement: result.Movement}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(body), `"source"`) {
		t.Fatalf("expected source to be omitted when absent, got %s", body)
	}
}

func TestConsistencyFromResult(t *testing.T) {
	ok := ConsistencyFromResult(&usecase.ConservationResult{Consistent: true})
	if ok.Status != "consistent" {
		t.Fatalf("expected consistent status, got %s", ok.Status)
	}

	bad := ConsistencyFromResult(&usecase.ConservationResult{
		TotalBalance: decimal.NewFromInt(10),
		TotalOpening: decimal.NewFromInt(11),
	})
	if bad.Status != "inconsistent" || bad.Consistent {
		t.Fatalf("expected inconsistent status, got %+v", bad)
	}
}

func TestReportFromResult(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalAccounts:      2,
		ReconciledAccounts: 1,
		TotalBalance:       decimal.NewFromInt(200),
		TotalOpening:       decimal.NewFromInt(200),
		LedgerConsistent:   true,
		Discrepancies: []*usecase.ReconciliationResult{{
			AccountID:         "acc-2",
			RecordedBalance:   decimal.NewFromInt(90),
			CalculatedBalance: decimal.NewFromInt(100),
			Difference:        decimal.NewFromInt(-10),
		}},
	}

	resp := ReportFromResult(report)
	if resp.TotalAccounts != 2 || resp.ReconciledAccounts != 1 || !resp.LedgerConsistent {
		t.Fatalf("unexpected report %+v", resp)
	}
	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].AccountID != "acc-2" {
		t.Fatalf("unexpected discrepancies %+v", resp.Discrepancies)
	}
	if !resp.Discrepancies[0].Difference.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("unexpected difference %s", resp.Discrepancies[0].Difference)
	}
}
