package verification

import (
	"context"
	"testing"

	"swap-ledger/internal/addressing"
	"swap-ledger/internal/domain"
	"swap-ledger/internal/ledger"
	"swap-ledger/internal/storage"
	"swap-ledger/internal/storage/memory"
)

func testIdentity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

// tamperedTrades overlays mutations on an honest append-only store so tests
// can corrupt individual slots.
type tamperedTrades struct {
	storage.TradeRecordStore
	replaced map[domain.Address]*domain.TradeRecord
	deleted  map[domain.Address]bool
}

func tamper(inner storage.TradeRecordStore) *tamperedTrades {
	return &tamperedTrades{
		TradeRecordStore: inner,
		replaced:         make(map[domain.Address]*domain.TradeRecord),
		deleted:          make(map[domain.Address]bool),
	}
}

func (s *tamperedTrades) Get(ctx context.Context, addr domain.Address) (*domain.TradeRecord, error) {
	if s.deleted[addr] {
		return nil, storage.ErrNotFound
	}
	if t, ok := s.replaced[addr]; ok {
		cp := *t
		return &cp, nil
	}
	return s.TradeRecordStore.Get(ctx, addr)
}

type fixture struct {
	service  *ledger.Service
	states   *memory.UserStateStore
	trades   *tamperedTrades
	verifier *Verifier

	user domain.Identity
	tok  domain.Identity
}

// newFixture logs n trades for one user through the real service so the
// stored chain is honest by construction.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()

	f := &fixture{
		states: memory.NewUserStateStore(),
		trades: tamper(memory.NewTradeRecordStore()),
		user:   testIdentity(0x01),
		tok:    testIdentity(0x10),
	}
	f.service = ledger.NewService(memory.NewConfigStore(), f.states, f.trades, nil)
	f.verifier = NewVerifier(f.states, f.trades)

	ctx := context.Background()
	if _, err := f.service.InitializeConfig(ctx, testIdentity(0xAA), []domain.Identity{f.tok}, 1); err != nil {
		t.Fatalf("InitializeConfig: %v", err)
	}
	if _, err := f.service.InitializeUser(ctx, f.user); err != nil {
		t.Fatalf("InitializeUser: %v", err)
	}
	for i := 0; i < n; i++ {
		_, err := f.service.LogTrade(ctx, f.user, f.user, domain.TradeInput{
			TokenIn:  f.tok,
			TokenOut: f.tok,
			Amount:   uint64(100 + i),
			Price:    uint64(10 + i),
		})
		if err != nil {
			t.Fatalf("LogTrade #%d: %v", i, err)
		}
	}
	return f
}

func TestVerifyUserCleanChain(t *testing.T) {
	f := newFixture(t, 3)

	report, err := f.verifier.VerifyUser(context.Background(), f.user)
	if err != nil {
		t.Fatalf("VerifyUser: %v", err)
	}
	if !report.Clean() {
		t.Errorf("honest chain reported dirty: %+v", report)
	}
	if report.TradeCount != 3 || report.CheckedRecords != 3 || report.MatchedRecords != 3 {
		t.Errorf("report counts = %d/%d/%d, want 3/3/3",
			report.TradeCount, report.CheckedRecords, report.MatchedRecords)
	}
}

func TestVerifyUserDetectsTampering(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	// Tamper with the amount at sequence 1 without recomputing the id.
	addr := addressing.TradeRecordAddress(f.user, 1)
	record, err := f.trades.Get(ctx, addr)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	record.Amount += 1
	f.trades.replaced[addr] = record

	report, err := f.verifier.VerifyUser(ctx, f.user)
	if err != nil {
		t.Fatalf("VerifyUser: %v", err)
	}
	if report.Clean() {
		t.Fatal("tampered chain reported clean")
	}
	if report.MatchedRecords != 1 {
		t.Errorf("matched records = %d, want 1", report.MatchedRecords)
	}

	tampered := report.Results[1]
	if tampered.Match || tampered.Missing {
		t.Fatalf("sequence 1 result = %+v, want divergent", tampered)
	}
	found := false
	for _, d := range tampered.Divergences {
		if d.Field == "TradeID" {
			found = true
		}
	}
	if !found {
		t.Error("amount tampering did not surface as a TradeID divergence")
	}
}

func TestVerifyUserDetectsGap(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	f.trades.deleted[addressing.TradeRecordAddress(f.user, 1)] = true

	report, err := f.verifier.VerifyUser(ctx, f.user)
	if err != nil {
		t.Fatalf("VerifyUser: %v", err)
	}
	if report.Clean() {
		t.Fatal("gapped chain reported clean")
	}
	if report.MissingRecords != 1 {
		t.Errorf("missing records = %d, want 1", report.MissingRecords)
	}
	if !report.Results[1].Missing {
		t.Error("sequence 1 not flagged missing")
	}
}

func TestVerifyAll(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	other := testIdentity(0x02)
	if _, err := f.service.InitializeUser(ctx, other); err != nil {
		t.Fatalf("InitializeUser: %v", err)
	}
	if _, err := f.service.LogTrade(ctx, other, other, domain.TradeInput{
		TokenIn: f.tok, TokenOut: f.tok, Amount: 5, Price: 1,
	}); err != nil {
		t.Fatalf("LogTrade: %v", err)
	}

	reports, err := f.verifier.VerifyAll(ctx)
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("%d reports, want 2", len(reports))
	}
	for _, r := range reports {
		if !r.Clean() {
			t.Errorf("user %s reported dirty", r.User)
		}
	}
}
