// Package ledger implements the permissioned append-only trade ledger:
// config initialization, user registration, and trade logging with
// deterministic addressing and gap-free per-user sequencing.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swap-ledger/internal/addressing"
	"swap-ledger/internal/domain"
	"swap-ledger/internal/events"
	"swap-ledger/internal/idhash"
	"swap-ledger/internal/observability"
	"swap-ledger/internal/storage"
)

// Service validates and applies ledger state transitions. All coordination
// happens through the stores' create-if-absent and guarded-increment
// primitives; the service itself holds no locks.
type Service struct {
	configs storage.ConfigStore
	states  storage.UserStateStore
	trades  storage.TradeRecordStore
	emitter events.Emitter
	metrics *observability.Metrics

	// now supplies record timestamps; overridable in tests.
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches a metrics instance.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger service. A nil emitter disables notifications.
func NewService(
	configs storage.ConfigStore,
	states storage.UserStateStore,
	trades storage.TradeRecordStore,
	emitter events.Emitter,
	opts ...Option,
) *Service {
	s := &Service{
		configs: configs,
		states:  states,
		trades:  trades,
		emitter: emitter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitializeConfig creates the singleton config record. The caller becomes
// the admin; the only authorization check is that the config address is
// still fresh. Returns ErrAlreadyInitialized on a second call.
func (s *Service) InitializeConfig(
	ctx context.Context,
	admin domain.Identity,
	whitelist []domain.Identity,
	protocolVersion uint16,
) (domain.Address, error) {
	addr := addressing.ConfigAddress()

	if len(whitelist) > domain.MaxWhitelist {
		return addr, ErrWhitelistTooLarge
	}

	cfg := &domain.Config{
		Admin:           admin,
		Whitelist:       append([]domain.Identity(nil), whitelist...),
		ProtocolVersion: protocolVersion,
		CreatedAt:       s.now().UnixMilli(),
	}

	if err := s.configs.Create(ctx, addr, cfg); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return addr, ErrAlreadyInitialized
		}
		return addr, fmt.Errorf("create config: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ConfigsInitialized.Inc()
	}
	return addr, nil
}

// Config reads the config record. Returns ErrConfigNotInitialized if it
// does not exist yet.
func (s *Service) Config(ctx context.Context) (*domain.Config, error) {
	cfg, err := s.configs.Get(ctx, addressing.ConfigAddress())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrConfigNotInitialized
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return cfg, nil
}

// InitializeUser creates the user's state record with a zero trade count.
// Returns ErrAlreadyInitialized on a second call for the same user.
func (s *Service) InitializeUser(ctx context.Context, user domain.Identity) (domain.Address, error) {
	addr := addressing.UserStateAddress(user)

	st := &domain.UserState{Owner: user, TradeCount: 0}
	if err := s.states.Create(ctx, addr, st); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return addr, ErrAlreadyInitialized
		}
		return addr, fmt.Errorf("create user state: %w", err)
	}

	if s.metrics != nil {
		s.metrics.UsersInitialized.Inc()
	}
	return addr, nil
}

// UserState reads a user's state record. Returns ErrUserNotInitialized if
// it does not exist yet.
func (s *Service) UserState(ctx context.Context, user domain.Identity) (*domain.UserState, error) {
	st, err := s.states.Get(ctx, addressing.UserStateAddress(user))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotInitialized
		}
		return nil, fmt.Errorf("get user state: %w", err)
	}
	return st, nil
}

// LogTrade validates and appends one trade for user. Preconditions are
// checked in a fixed order and the first failure is reported; nothing is
// written until all checks pass. On success the record is created at its
// derived (user, sequence) address, the user's trade count is incremented by
// exactly 1, and a TradeEvent is emitted fire-and-forget.
//
// Two concurrent calls that read the same sequence race for one address:
// the loser fails with ErrRecordAlreadyExists and should retry after
// re-reading the trade count. LogTrade is not idempotent; every successful
// call consumes a sequence number.
func (s *Service) LogTrade(
	ctx context.Context,
	user domain.Identity,
	signer domain.Identity,
	in domain.TradeInput,
) (*domain.TradeRecord, error) {
	cfg, err := s.configs.Get(ctx, addressing.ConfigAddress())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, s.reject(ErrConfigNotInitialized)
		}
		return nil, fmt.Errorf("get config: %w", err)
	}

	stateAddr := addressing.UserStateAddress(user)
	state, err := s.states.Get(ctx, stateAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, s.reject(ErrUserNotInitialized)
		}
		return nil, fmt.Errorf("get user state: %w", err)
	}

	// Only the user itself or the designated admin may log for this user.
	if signer != user && signer != cfg.Admin {
		return nil, s.reject(ErrUnauthorized)
	}

	if in.Amount == 0 {
		return nil, s.reject(ErrInvalidAmount)
	}

	if !cfg.Whitelisted(in.TokenIn) || !cfg.Whitelisted(in.TokenOut) {
		return nil, s.reject(ErrTokenNotWhitelisted)
	}

	sequence := state.TradeCount
	record := &domain.TradeRecord{
		Address:     addressing.TradeRecordAddress(user, sequence),
		User:        user,
		Sequence:    sequence,
		TradeType:   in.TradeType,
		TokenIn:     in.TokenIn,
		TokenOut:    in.TokenOut,
		Amount:      in.Amount,
		Price:       in.Price,
		SlippageBps: in.SlippageBps,
		Tag:         in.Tag,
		TradeID:     idhash.ComputeTradeID(user, sequence, in.TokenIn, in.TokenOut, in.Amount, in.Price),
		Timestamp:   s.now().UnixMilli(),
	}

	// The record write is the commit point. Create-if-absent on the derived
	// address rejects the loser of a same-sequence race.
	if err := s.trades.Create(ctx, record.Address, record); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			if s.metrics != nil {
				s.metrics.SequenceConflicts.Inc()
			}
			return nil, s.reject(ErrRecordAlreadyExists)
		}
		return nil, fmt.Errorf("create trade record: %w", err)
	}

	// Guarded increment: only advances if the count still equals the
	// sequence this record consumed.
	if err := s.states.CompareAndIncrement(ctx, stateAddr, sequence); err != nil {
		if errors.Is(err, storage.ErrStaleCounter) {
			if s.metrics != nil {
				s.metrics.SequenceConflicts.Inc()
			}
			return nil, s.reject(ErrConcurrentConflict)
		}
		return nil, fmt.Errorf("increment trade count: %w", err)
	}

	if s.emitter != nil {
		s.emitter.Emit(record.Event())
	}
	if s.metrics != nil {
		s.metrics.TradesLogged.Inc()
	}
	return record, nil
}

// Trade reads the record at (user, sequence). Returns storage.ErrNotFound
// if no such trade was logged.
func (s *Service) Trade(ctx context.Context, user domain.Identity, sequence uint64) (*domain.TradeRecord, error) {
	return s.trades.Get(ctx, addressing.TradeRecordAddress(user, sequence))
}

// Trades lists all of a user's records in sequence order.
func (s *Service) Trades(ctx context.Context, user domain.Identity) ([]*domain.TradeRecord, error) {
	return s.trades.ListByUser(ctx, user)
}

// reject counts a validation failure and returns it unchanged.
func (s *Service) reject(err error) error {
	if s.metrics != nil {
		s.metrics.TradeLogFailures.WithLabelValues(failureReason(err)).Inc()
	}
	return err
}

// failureReason maps a ledger error to a stable metric label.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrConfigNotInitialized):
		return "config_not_initialized"
	case errors.Is(err, ErrUserNotInitialized):
		return "user_not_initialized"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrTokenNotWhitelisted):
		return "token_not_whitelisted"
	case errors.Is(err, ErrRecordAlreadyExists):
		return "record_already_exists"
	case errors.Is(err, ErrConcurrentConflict):
		return "concurrent_conflict"
	default:
		return "other"
	}
}
