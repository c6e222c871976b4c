// Package save handles durable per-player save blobs: structural
// verification of the binary format and a filesystem repository keyed
// by (profile, username).
package save

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Формат блоба: заголовок little-endian, затем payload.
//
//	[0:4]   magic "WSAV"
//	[4:6]   version uint16
//	[6:10]  payload length uint32
//	[10:14] CRC32 (IEEE) payload uint32
//
// Verify не интерпретирует payload — содержимое для координатора
// непрозрачно, проверяется только структура.
const (
	headerSize = 14
	version    = 1
)

var magic = [4]byte{'W', 'S', 'A', 'V'}

// ErrCorrupt reports a blob that failed structural verification.
var ErrCorrupt = errors.New("corrupt save blob")

// Verify checks the structural integrity of a save blob. A blob that
// fails here must never be written over a previously good one.
func Verify(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("%w: %d bytes, want at least %d", ErrCorrupt, len(data), headerSize)
	}
	if [4]byte(data[:4]) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != version {
		return fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	payload := data[headerSize:]
	if n := binary.LittleEndian.Uint32(data[6:10]); int(n) != len(payload) {
		return fmt.Errorf("%w: declared payload %d bytes, got %d", ErrCorrupt, n, len(payload))
	}
	if sum := binary.LittleEndian.Uint32(data[10:14]); sum != crc32.ChecksumIEEE(payload) {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return nil
}

// Encode wraps a payload in a valid blob header. World nodes build
// their blobs the same way; here it is used by tests and tooling.
func Encode(payload []byte) []byte {
	blob := make([]byte, headerSize+len(payload))
	copy(blob[:4], magic[:])
	binary.LittleEndian.PutUint16(blob[4:6], version)
	binary.LittleEndian.PutUint32(blob[6:10], uint32(len(payload)))
	binary.LittleEndian.PutUint32(blob[10:14], crc32.ChecksumIEEE(payload))
	copy(blob[headerSize:], payload)
	return blob
}
