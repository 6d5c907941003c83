package near

import (
	"bytes"
	"encoding/binary"
	"math/big"
)

// borshWriter serializes values in the ledger's binary transaction format:
// little-endian integers, u32 length prefixes for strings and vectors.
type borshWriter struct {
	buf bytes.Buffer
}

func (w *borshWriter) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *borshWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *borshWriter) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// u128 writes v as 16 little-endian bytes. Values wider than 128 bits are truncated.
func (w *borshWriter) u128(v *big.Int) {
	var b [16]byte
	if v != nil {
		be := v.Bytes()
		for i := 0; i < len(be) && i < 16; i++ {
			b[i] = be[len(be)-1-i]
		}
	}
	w.buf.Write(b[:])
}

func (w *borshWriter) fixed(b []byte) {
	w.buf.Write(b)
}

func (w *borshWriter) bytes(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *borshWriter) string(s string) {
	w.bytes([]byte(s))
}

func (w *borshWriter) Bytes() []byte {
	return w.buf.Bytes()
}
