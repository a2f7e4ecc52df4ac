package docx

import "io"

// Reader is a byte-at-a-time string reader which keeps track of the current
// position. The xml.Decoder consumes it one byte per Read call, so Pos()
// always points directly behind the token the decoder just returned. That is
// the property the RunParser relies on to map tags to byte offsets.
type Reader struct {
	s string
	i int64
	z int64
}

// NewReader returns a Reader over the given string.
func NewReader(s string) *Reader {
	return &Reader{
		s: s,
		i: 0,
		z: int64(len(s)),
	}
}

// String returns the underlying string.
func (r *Reader) String() string {
	return r.s
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.i >= r.z {
		return 0
	}
	return int(r.z - r.i)
}

// Size returns the total length of the underlying string.
func (r *Reader) Size() int64 {
	return r.z
}

// Pos returns the current byte position.
func (r *Reader) Pos() int64 {
	return r.i
}

// Read implements io.Reader, returning at most one byte per call.
func (r *Reader) Read(b []byte) (int, error) {
	if r.i >= r.z {
		return 0, io.EOF
	}
	if len(b) == 0 {
		return 0, nil
	}
	b[0] = r.s[r.i]
	r.i += 1
	return 1, nil
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.i >= r.z {
		return 0, io.EOF
	}
	b := r.s[r.i]
	r.i++
	return b, nil
}
