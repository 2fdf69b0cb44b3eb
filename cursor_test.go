package mpreach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor(t *testing.T) {
	c := newCursor([]byte{0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x03, 0xff})

	u8, err := c.uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)

	u16, err := c.uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), u16)

	u32, err := c.uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), u32)
	assert.Equal(t, 7, c.offset())
	assert.Equal(t, 1, c.remaining())

	_, err = c.uint16()
	assert.ErrorIs(t, err, ErrTruncated)
	// a failed read does not move the cursor
	assert.Equal(t, 7, c.offset())

	assert.Equal(t, []byte{0xff}, c.rest())
	assert.Equal(t, 0, c.remaining())
	assert.Empty(t, c.rest())
}

func TestCursor_TakeNegative(t *testing.T) {
	c := newCursor([]byte{0x01})
	_, err := c.take(-1)
	assert.ErrorIs(t, err, ErrTruncated)
}
