package mpreach

import (
	"encoding/binary"
	"fmt"
)

// cursor is a forward-only reader over an attribute or NLRI byte range. Every
// read is bounds checked; a read past the end returns ErrTruncated and leaves
// the cursor where it was.
type cursor struct {
	data []byte
	off  int
}

func newCursor(b []byte) cursor {
	return cursor{data: b}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.off
}

func (c *cursor) offset() int {
	return c.off
}

func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, c.off, c.remaining(), ErrTruncated)
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// rest consumes and returns everything left.
func (c *cursor) rest() []byte {
	b := c.data[c.off:]
	c.off = len(c.data)
	return b
}
