// Package ledgerhost implements the read-only ledger-state sub-host:
// contract-data, contract-instance, contract-entries and account lookups
// by opaque 32-byte identifier.
package ledgerhost

import (
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/xycloo/zephyr-vm-go/host/memmanager"
	"github.com/xycloo/zephyr-vm-go/host/status"
	"github.com/xycloo/zephyr-vm-go/host/wire"
)

var log = logger.GetOrCreate("host/ledgerhost")

// Backend is the pluggable ledger-state reader.
type Backend interface {
	ContractDataByIDAndKey(contractID [32]byte, key []byte) (found bool, data []byte, err error)
	ContractInstance(contractID [32]byte) (found bool, data []byte, err error)
	ContractEntries(contractID [32]byte) ([][]byte, error)
	Account(accountID [32]byte) (found bool, data []byte, err error)
}

// Host is the ledger sub-host attached to a single VM invocation.
type Host struct {
	backend Backend
	mem     *memmanager.Manager
}

// New returns a ledger sub-host backed by backend, sharing mem with the
// rest of the Host State.
func New(backend Backend, mem *memmanager.Manager) *Host {
	return &Host{backend: backend, mem: mem}
}

// ReadContractDataByIDAndKey implements
// read_contract_data_entry_by_contract_id_and_key.
func (h *Host) ReadContractDataByIDAndKey(contractID [32]byte, key []byte) (off, length int64, st status.Status) {
	found, data, err := h.backend.ContractDataByIDAndKey(contractID, key)
	if err != nil {
		log.Warn("read_contract_data_entry_by_contract_id_and_key: backend error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	return h.writeEntry(found, data)
}

// ReadContractInstance implements read_contract_instance.
func (h *Host) ReadContractInstance(contractID [32]byte) (off, length int64, st status.Status) {
	found, data, err := h.backend.ContractInstance(contractID)
	if err != nil {
		log.Warn("read_contract_instance: backend error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	return h.writeEntry(found, data)
}

// ReadContractEntries implements read_contract_entries_by_contract.
func (h *Host) ReadContractEntries(contractID [32]byte) (off, length int64, st status.Status) {
	entries, err := h.backend.ContractEntries(contractID)
	if err != nil {
		log.Warn("read_contract_entries_by_contract: backend error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}

	records := make([]*wire.LedgerEntryRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, &wire.LedgerEntryRecord{Found: true, Data: e})
	}

	encoded, err := wire.MarshalLedgerEntries(records)
	if err != nil {
		return 0, 0, status.ZephyrQueryError
	}
	return h.writeBack(encoded)
}

// RawEntries returns the raw, undecoded entry blobs for contractID, for
// callers (such as read_contract_entries_by_contract_to_env) that build an
// embedded-host object from them directly rather than writing them into
// guest linear memory.
func (h *Host) RawEntries(contractID [32]byte) ([][]byte, error) {
	return h.backend.ContractEntries(contractID)
}

// ReadAccount implements read_account_from_ledger.
func (h *Host) ReadAccount(accountID [32]byte) (off, length int64, st status.Status) {
	found, data, err := h.backend.Account(accountID)
	if err != nil {
		log.Warn("read_account_from_ledger: backend error", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	return h.writeEntry(found, data)
}

func (h *Host) writeEntry(found bool, data []byte) (off, length int64, st status.Status) {
	encoded, err := wire.MarshalLedgerEntry(found, data)
	if err != nil {
		return 0, 0, status.ZephyrQueryError
	}
	return h.writeBack(encoded)
}

func (h *Host) writeBack(encoded []byte) (off, length int64, st status.Status) {
	offAfter, n, err := h.mem.Write(encoded)
	if err != nil {
		log.Warn("ledgerhost: write-back failed", "error", err)
		return 0, 0, status.ZephyrQueryError
	}
	return offAfter, n, status.OK
}
