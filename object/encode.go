package object

import (
	"bytes"
	"encoding/binary"
	"io"
)

// encoder writes the little-endian primitives of the object format.
type encoder struct {
	w   io.Writer
	n   int64
	err error
}

func (enc *encoder) write(data []byte) {
	if enc.err != nil {
		return
	}
	n, err := enc.w.Write(data)
	enc.n += int64(n)
	enc.err = err
}

func (enc *encoder) uint32(value uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	enc.write(buf[:])
}

func (enc *encoder) bytes(data []byte) {
	enc.uint32(uint32(len(data)))
	enc.write(data)
}

func (enc *encoder) string(text string) {
	enc.bytes([]byte(text))
}

// decoder reads the little-endian primitives of the object format.
// The first error sticks; later reads return zero values.
type decoder struct {
	r   io.Reader
	err error
}

func (dec *decoder) uint32() (value uint32) {
	if dec.err != nil {
		return
	}
	var buf [4]byte
	_, dec.err = io.ReadFull(dec.r, buf[:])
	if dec.err != nil {
		return
	}
	value = binary.LittleEndian.Uint32(buf[:])
	return
}

func (dec *decoder) bytes() (data []byte) {
	size := dec.uint32()
	if dec.err != nil {
		return
	}

	// Copy rather than allocate up front, so a garbage length fails at EOF.
	var buf bytes.Buffer
	_, err := io.CopyN(&buf, dec.r, int64(size))
	if err != nil {
		dec.err = io.ErrUnexpectedEOF
		return
	}

	data = buf.Bytes()
	if data == nil {
		data = []byte{}
	}
	return
}

func (dec *decoder) string() string {
	return string(dec.bytes())
}

func (dec *decoder) byte() (value byte) {
	if dec.err != nil {
		return
	}
	var buf [1]byte
	_, dec.err = io.ReadFull(dec.r, buf[:])
	value = buf[0]
	return
}
