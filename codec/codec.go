// Package codec implements the wire encoding used to pass 32-byte
// identifiers (contract ids, account ids, network ids) across the
// host-call ABI as four big-endian int64 parts.
package codec

import (
	"encoding/binary"
	"errors"
)

// ErrBadLength is returned when a byte slice is not exactly 32 bytes long.
var ErrBadLength = errors.New("codec: identifier must be exactly 32 bytes")

// EncodeID32 splits a 32-byte identifier into four big-endian int64 parts,
// most-significant part first.
func EncodeID32(id []byte) (p0, p1, p2, p3 int64, err error) {
	if len(id) != 32 {
		return 0, 0, 0, 0, ErrBadLength
	}
	p0 = int64(binary.BigEndian.Uint64(id[0:8]))
	p1 = int64(binary.BigEndian.Uint64(id[8:16]))
	p2 = int64(binary.BigEndian.Uint64(id[16:24]))
	p3 = int64(binary.BigEndian.Uint64(id[24:32]))
	return p0, p1, p2, p3, nil
}

// DecodeID32 reassembles a 32-byte identifier from its four big-endian int64
// parts.
func DecodeID32(p0, p1, p2, p3 int64) []byte {
	id := make([]byte, 32)
	binary.BigEndian.PutUint64(id[0:8], uint64(p0))
	binary.BigEndian.PutUint64(id[8:16], uint64(p1))
	binary.BigEndian.PutUint64(id[16:24], uint64(p2))
	binary.BigEndian.PutUint64(id[24:32], uint64(p3))
	return id
}

// I64LE encodes v as 8 little-endian bytes, used by the database sub-host's
// table digest (spec: MD5(i64le(table_symbol) || i64le(tenant_id))).
func I64LE(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}
