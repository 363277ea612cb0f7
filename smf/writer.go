package smf

import "github.com/pkg/errors"

// MaxVLQ is the largest value a 4-byte variable-length quantity can hold.
const MaxVLQ = 0x0FFFFFFF

// Writer appends big-endian values to a growing buffer. The first failed
// write is kept and reported by Err; later writes are dropped.
type Writer struct {
	buf []byte
	err error
}

func (w *Writer) U8(v uint8) {
	if w.err == nil {
		w.buf = append(w.buf, v)
	}
}

func (w *Writer) U16(v uint16) {
	if w.err == nil {
		w.buf = append(w.buf, byte(v>>8), byte(v))
	}
}

func (w *Writer) U24(v uint32) {
	if w.err != nil {
		return
	}
	if v > 0xFFFFFF {
		w.err = errors.Errorf("value %d does not fit in 24 bits", v)
		return
	}
	w.buf = append(w.buf, byte(v>>16), byte(v>>8), byte(v))
}

func (w *Writer) U32(v uint32) {
	if w.err == nil {
		w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

func (w *Writer) Tag(s string) {
	if w.err == nil {
		w.buf = append(w.buf, s...)
	}
}

func (w *Writer) Raw(b []byte) {
	if w.err == nil {
		w.buf = append(w.buf, b...)
	}
}

// VLQ writes v with the fewest bytes possible.
func (w *Writer) VLQ(v uint32) {
	if w.err != nil {
		return
	}
	if v > MaxVLQ {
		w.err = errors.Errorf("value %d exceeds variable-length quantity range", v)
		return
	}
	w.buf = AppendVLQ(w.buf, v)
}

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Err() error { return w.err }

// AppendVLQ appends the variable-length encoding of v, which must not exceed
// MaxVLQ.
func AppendVLQ(dst []byte, v uint32) []byte {
	var tmp [4]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7f)
	for v >>= 7; v > 0 && i > 0; v >>= 7 {
		i--
		tmp[i] = byte(v&0x7f) | 0x80
	}
	return append(dst, tmp[i:]...)
}
