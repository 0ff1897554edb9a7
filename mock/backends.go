// Package mock provides settable-function-field fakes for the pluggable
// backend interfaces, mirroring the teacher's mock/context style.
package mock

import (
	"github.com/xycloo/zephyr-vm-go/host/dbhost"
	"github.com/xycloo/zephyr-vm-go/host/ledgerhost"
)

var _ dbhost.Backend = (*DatabaseBackendMock)(nil)

// DatabaseBackendMock is used in tests to check database sub-host wiring
// without a real Postgres connection.
type DatabaseBackendMock struct {
	WriteCalled  func(tenant int64, digest [16]byte, row dbhost.Row) error
	UpdateCalled func(tenant int64, digest [16]byte, row dbhost.Row, preds []dbhost.Predicate) error
	ReadCalled   func(tenant int64, digest [16]byte, columns []int64, preds []dbhost.Predicate) ([]byte, error)
}

func (m *DatabaseBackendMock) Write(tenant int64, digest [16]byte, row dbhost.Row) error {
	if m.WriteCalled != nil {
		return m.WriteCalled(tenant, digest, row)
	}
	return nil
}

func (m *DatabaseBackendMock) Update(tenant int64, digest [16]byte, row dbhost.Row, preds []dbhost.Predicate) error {
	if m.UpdateCalled != nil {
		return m.UpdateCalled(tenant, digest, row, preds)
	}
	return nil
}

func (m *DatabaseBackendMock) Read(tenant int64, digest [16]byte, columns []int64, preds []dbhost.Predicate) ([]byte, error) {
	if m.ReadCalled != nil {
		return m.ReadCalled(tenant, digest, columns, preds)
	}
	return nil, nil
}

var _ ledgerhost.Backend = (*LedgerBackendMock)(nil)

// LedgerBackendMock is used in tests to check ledger sub-host wiring.
type LedgerBackendMock struct {
	ContractDataByIDAndKeyCalled func(contractID [32]byte, key []byte) (bool, []byte, error)
	ContractInstanceCalled       func(contractID [32]byte) (bool, []byte, error)
	ContractEntriesCalled        func(contractID [32]byte) ([][]byte, error)
	AccountCalled                func(accountID [32]byte) (bool, []byte, error)
}

func (m *LedgerBackendMock) ContractDataByIDAndKey(contractID [32]byte, key []byte) (bool, []byte, error) {
	if m.ContractDataByIDAndKeyCalled != nil {
		return m.ContractDataByIDAndKeyCalled(contractID, key)
	}
	return false, nil, nil
}

func (m *LedgerBackendMock) ContractInstance(contractID [32]byte) (bool, []byte, error) {
	if m.ContractInstanceCalled != nil {
		return m.ContractInstanceCalled(contractID)
	}
	return false, nil, nil
}

func (m *LedgerBackendMock) ContractEntries(contractID [32]byte) ([][]byte, error) {
	if m.ContractEntriesCalled != nil {
		return m.ContractEntriesCalled(contractID)
	}
	return nil, nil
}

func (m *LedgerBackendMock) Account(accountID [32]byte) (bool, []byte, error) {
	if m.AccountCalled != nil {
		return m.AccountCalled(accountID)
	}
	return false, nil, nil
}

// ProgramLoaderMock resolves every binary id to a fixed WASM module.
type ProgramLoaderMock struct {
	Bytes []byte
	Err   error
}

func (m *ProgramLoaderMock) Load(binaryID uint32) ([]byte, error) {
	return m.Bytes, m.Err
}
