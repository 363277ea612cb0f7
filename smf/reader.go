package smf

import "github.com/pkg/errors"

// Reader is a big-endian cursor over an immutable byte slice.
type Reader struct {
	buf  []byte
	pos  int
	base int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset returns the absolute position of the cursor in the outermost buffer.
func (r *Reader) Offset() int { return r.base + r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if n < 0 || r.Len() < n {
		return errors.Wrapf(ErrUnexpectedEOF, "need %d bytes, have %d", n, r.Len())
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	b := r.buf[r.pos:]
	r.pos += 2
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *Reader) U24() (uint32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	b := r.buf[r.pos:]
	r.pos += 3
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	b := r.buf[r.pos:]
	r.pos += 4
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// VLQ reads a MIDI variable-length quantity: 7 bits per byte, most
// significant group first, high bit set on every byte but the last.
func (r *Reader) VLQ() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := r.U8()
		if err != nil {
			return 0, err
		}
		v = v<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	return 0, errors.Wrap(ErrInvalidFormat, "variable-length quantity longer than 4 bytes")
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// Tag consumes len(want) bytes and checks them against want.
func (r *Reader) Tag(want string) error {
	b, err := r.Bytes(len(want))
	if err != nil {
		return err
	}
	if string(b) != want {
		return errors.Wrapf(ErrInvalidFormat, "expected tag %q, got %q", want, b)
	}
	return nil
}

// Sub consumes the next n bytes and returns a Reader confined to them.
func (r *Reader) Sub(n int) (*Reader, error) {
	base := r.Offset()
	b, err := r.Bytes(n)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: b, base: base}, nil
}

func (r *Reader) unread() {
	if r.pos > 0 {
		r.pos--
	}
}
