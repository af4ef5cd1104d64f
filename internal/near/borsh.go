package near

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
)

// borshWriter implements the subset of borsh needed to encode transactions:
// little endian integers, u32 length prefixed strings and vectors.
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

func (w *borshWriter) u128(v *big.Int) error {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return fmt.Errorf("value %s does not fit in u128", v.String())
	}

	be := v.FillBytes(make([]byte, 16))

	// reverse into little endian
	for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
		be[i], be[j] = be[j], be[i]
	}

	w.buf.Write(be)
	return nil
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
