package ledgerhost

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// instanceKey is the sentinel contract-data key used by ContractInstance,
// matching the "instance" shorthand in spec.md §4.6.
const instanceKey = "instance"

// PostgresBackend is the default production ledger-state Backend. It reads
// from the upstream ingestion database (spec.md §6.3 INGESTOR_DB) rather
// than owning any write path: the ledger sub-host is read-only (spec.md
// §4.6).
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend wraps an already-connected pool pointed at the
// ingestion database.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func hexID(id [32]byte) string {
	return hex.EncodeToString(id[:])
}

// ContractDataByIDAndKey looks up a single contract-data row by contract
// id and an externally-decoded key string.
func (b *PostgresBackend) ContractDataByIDAndKey(contractID [32]byte, key []byte) (bool, []byte, error) {
	var data []byte
	err := b.pool.QueryRow(context.Background(),
		`SELECT data FROM contract_data WHERE contract_id = $1 AND key = $2`,
		hexID(contractID), key,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("ledgerhost/postgres: contract data: %w", err)
	}
	return true, data, nil
}

// ContractInstance looks up the sentinel "instance" contract-data entry.
func (b *PostgresBackend) ContractInstance(contractID [32]byte) (bool, []byte, error) {
	return b.ContractDataByIDAndKey(contractID, []byte(instanceKey))
}

// ContractEntries lists every contract-data row for contractID.
func (b *PostgresBackend) ContractEntries(contractID [32]byte) ([][]byte, error) {
	rows, err := b.pool.Query(context.Background(),
		`SELECT data FROM contract_data WHERE contract_id = $1`,
		hexID(contractID),
	)
	if err != nil {
		return nil, fmt.Errorf("ledgerhost/postgres: contract entries: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// Account looks up a single account row by account id.
func (b *PostgresBackend) Account(accountID [32]byte) (bool, []byte, error) {
	var data []byte
	err := b.pool.QueryRow(context.Background(),
		`SELECT data FROM accounts WHERE account_id = $1`,
		hexID(accountID),
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("ledgerhost/postgres: account: %w", err)
	}
	return true, data, nil
}
