package postgres

import (
	"context"
	"fmt"

	"swap-ledger/internal/domain"
	"swap-ledger/internal/storage"
)

// ConfigStore implements storage.ConfigStore using PostgreSQL.
type ConfigStore struct {
	pool *Pool
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(pool *Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

// Create stores the config at addr. Returns ErrDuplicateKey if one exists.
func (s *ConfigStore) Create(ctx context.Context, addr domain.Address, c *domain.Config) error {
	if c == nil {
		return storage.ErrInvalidInput
	}

	whitelist := make([][]byte, len(c.Whitelist))
	for i, asset := range c.Whitelist {
		whitelist[i] = append([]byte(nil), asset[:]...)
	}

	query := `
		INSERT INTO configs (address, admin, whitelist, protocol_version, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		addr[:], c.Admin[:], whitelist, int32(c.ProtocolVersion), c.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert config: %w", err)
	}
	return nil
}

// Get retrieves the config at addr. Returns ErrNotFound if not exists.
func (s *ConfigStore) Get(ctx context.Context, addr domain.Address) (*domain.Config, error) {
	query := `
		SELECT admin, whitelist, protocol_version, created_at
		FROM configs
		WHERE address = $1
	`

	var (
		admin           []byte
		whitelist       [][]byte
		protocolVersion int32
		createdAt       int64
	)
	err := s.pool.QueryRow(ctx, query, addr[:]).Scan(&admin, &whitelist, &protocolVersion, &createdAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get config: %w", err)
	}

	c := &domain.Config{
		ProtocolVersion: uint16(protocolVersion),
		CreatedAt:       createdAt,
	}
	copy(c.Admin[:], admin)
	c.Whitelist = make([]domain.Identity, len(whitelist))
	for i, raw := range whitelist {
		copy(c.Whitelist[i][:], raw)
	}
	return c, nil
}
