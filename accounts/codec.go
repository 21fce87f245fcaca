package accounts

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Snapshot layout: 8 byte magic, 8 byte big-endian xxhash64 of the
// payload, json payload. The checksum separates a corrupt file from a
// merely outdated schema; json keeps old snapshots readable when the
// record gains new fields.
var snapshotMagic = [8]byte{'o', 'r', 'p', 'h', 'e', 'u', 's', '1'}

const snapshotHeaderLen = 16

func encodeSnapshot(records map[string]*Record) ([]byte, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("unable to encode account snapshot, cause %w", err)
	}
	buf := make([]byte, 0, snapshotHeaderLen+len(payload))
	buf = append(buf, snapshotMagic[:]...)
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(payload))
	buf = append(buf, sum[:]...)
	return append(buf, payload...), nil
}

func decodeSnapshot(path string, buf []byte) (map[string]*Record, error) {
	if len(buf) < snapshotHeaderLen || !bytes.Equal(buf[:8], snapshotMagic[:]) {
		return nil, CorruptSnapshotError{Path: path, Reason: "missing snapshot header"}
	}
	payload := buf[snapshotHeaderLen:]
	if binary.BigEndian.Uint64(buf[8:snapshotHeaderLen]) != xxhash.Sum64(payload) {
		return nil, CorruptSnapshotError{Path: path, Reason: "checksum mismatch"}
	}
	var records map[string]*Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, CorruptSnapshotError{Path: path, Reason: fmt.Sprintf("unable to decode payload: %v", err)}
	}
	if records == nil {
		records = make(map[string]*Record)
	}
	return records, nil
}
