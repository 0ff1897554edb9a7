// Package wire defines the stable, gogo/protobuf-encoded payloads that
// cross the database sub-host's read path and the ledger sub-host (relay
// messages stay raw bytes): a Go-native replacement for the original
// implementation's ad hoc bincode/XDR framing (see SPEC_FULL.md §D.3).
package wire

import (
	"github.com/gogo/protobuf/proto"
)

// Row is one matched database row: parallel Columns/Values slices.
type Row struct {
	Columns []int64  `protobuf:"varint,1,rep,name=columns" json:"columns,omitempty"`
	Values  [][]byte `protobuf:"bytes,2,rep,name=values" json:"values,omitempty"`
}

func (m *Row) Reset()         { *m = Row{} }
func (m *Row) String() string { return proto.CompactTextString(m) }
func (*Row) ProtoMessage()    {}

// RowSet is the opaque byte string returned to the guest by the database
// sub-host's read ABI (spec.md §3 "Database record"; §4.5 "Read result").
type RowSet struct {
	Rows []*Row `protobuf:"bytes,1,rep,name=rows" json:"rows,omitempty"`
}

func (m *RowSet) Reset()         { *m = RowSet{} }
func (m *RowSet) String() string { return proto.CompactTextString(m) }
func (*RowSet) ProtoMessage()    {}

// MarshalRowSet encodes rows for write-back into guest memory.
func MarshalRowSet(rows []*Row) ([]byte, error) {
	return proto.Marshal(&RowSet{Rows: rows})
}

// UnmarshalRowSet is the read-side counterpart of MarshalRowSet.
func UnmarshalRowSet(data []byte) (*RowSet, error) {
	rs := &RowSet{}
	if err := proto.Unmarshal(data, rs); err != nil {
		return nil, err
	}
	return rs, nil
}

// LedgerEntryRecord is the serialized form of a single ledger-state lookup
// result (spec.md §3 "Ledger-state record"; §4.6).
type LedgerEntryRecord struct {
	Found bool   `protobuf:"varint,1,opt,name=found" json:"found,omitempty"`
	Data  []byte `protobuf:"bytes,2,opt,name=data" json:"data,omitempty"`
}

func (m *LedgerEntryRecord) Reset()         { *m = LedgerEntryRecord{} }
func (m *LedgerEntryRecord) String() string { return proto.CompactTextString(m) }
func (*LedgerEntryRecord) ProtoMessage()    {}

// MarshalLedgerEntry encodes a single ledger lookup result.
func MarshalLedgerEntry(found bool, data []byte) ([]byte, error) {
	return proto.Marshal(&LedgerEntryRecord{Found: found, Data: data})
}

// LedgerEntryList serializes the bulk "entries by contract" response.
type LedgerEntryList struct {
	Entries []*LedgerEntryRecord `protobuf:"bytes,1,rep,name=entries" json:"entries,omitempty"`
}

func (m *LedgerEntryList) Reset()         { *m = LedgerEntryList{} }
func (m *LedgerEntryList) String() string { return proto.CompactTextString(m) }
func (*LedgerEntryList) ProtoMessage()    {}

// MarshalLedgerEntries encodes the bulk response.
func MarshalLedgerEntries(entries []*LedgerEntryRecord) ([]byte, error) {
	return proto.Marshal(&LedgerEntryList{Entries: entries})
}

// ResultEnvelope is a versioned framing for the host result buffer (spec.md
// §3 "Host result buffer"). The Execution Wrapper does not use it: it
// returns the drained result buffer as a plain string.
type ResultEnvelope struct {
	Body string `protobuf:"bytes,1,opt,name=body" json:"body,omitempty"`
}

func (m *ResultEnvelope) Reset()         { *m = ResultEnvelope{} }
func (m *ResultEnvelope) String() string { return proto.CompactTextString(m) }
func (*ResultEnvelope) ProtoMessage()    {}

// MarshalResult encodes the final result string.
func MarshalResult(body string) ([]byte, error) {
	return proto.Marshal(&ResultEnvelope{Body: body})
}

// UnmarshalResult decodes a result envelope back into its body string.
func UnmarshalResult(data []byte) (string, error) {
	env := &ResultEnvelope{}
	if err := proto.Unmarshal(data, env); err != nil {
		return "", err
	}
	return env.Body, nil
}
