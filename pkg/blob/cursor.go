package blob

import (
	"encoding/binary"
	"fmt"
	"math"
)

// writeCursor accumulates a little-endian byte buffer the way the teacher's
// MP4 box writer builds up a box body before patching in its size, just
// without the box nesting this format doesn't need.
type writeCursor struct {
	buf []byte
}

func (c *writeCursor) len() int { return len(c.buf) }

func (c *writeCursor) putU8(v uint8) { c.buf = append(c.buf, v) }

func (c *writeCursor) putU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	c.buf = append(c.buf, tmp[:]...)
}

func (c *writeCursor) putU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	c.buf = append(c.buf, tmp[:]...)
}

func (c *writeCursor) putU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	c.buf = append(c.buf, tmp[:]...)
}

func (c *writeCursor) putF32(v float32) { c.putU32(math.Float32bits(v)) }

func (c *writeCursor) putBytes(b []byte) { c.buf = append(c.buf, b...) }

// align pads with zero bytes until len(buf) is a multiple of n.
func (c *writeCursor) align(n int) {
	for len(c.buf)%n != 0 {
		c.buf = append(c.buf, 0)
	}
}

// readCursor reads back the same little-endian encoding from a fixed byte
// slice, returning ErrTruncated instead of panicking on a short read.
type readCursor struct {
	buf []byte
	pos int
}

func (c *readCursor) need(n int) error {
	if c.pos+n > len(c.buf) {
		return fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, c.pos, len(c.buf), ErrTruncated)
	}
	return nil
}

func (c *readCursor) getU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *readCursor) getU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *readCursor) getU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *readCursor) getU64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

func (c *readCursor) getF32() (float32, error) {
	bits, err := c.getU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

func (c *readCursor) getBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

func (c *readCursor) align(n int) error {
	for c.pos%n != 0 {
		if _, err := c.getU8(); err != nil {
			return err
		}
	}
	return nil
}
