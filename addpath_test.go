package mpreach

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPathTuple_Decode(t *testing.T) {
	tests := []struct {
		name    string
		b       []byte
		want    AddPathTuple
		wantErr bool
	}{
		{
			name: "receive",
			b:    []byte{0x00, 0x01, 0x01, 0x01},
			want: AddPathTuple{AFI: AFI_IPV4, SAFI: SAFI_UNICAST, Rx: true},
		},
		{
			name: "send",
			b:    []byte{0x00, 0x02, 0x04, 0x02},
			want: AddPathTuple{AFI: AFI_IPV6, SAFI: SAFI_NLRI_LABEL, Tx: true},
		},
		{
			name: "both",
			b:    []byte{0x00, 0x02, 0x01, 0x03},
			want: AddPathTuple{AFI: AFI_IPV6, SAFI: SAFI_UNICAST, Tx: true, Rx: true},
		},
		{
			name:    "invalid mode",
			b:       []byte{0x00, 0x01, 0x01, 0x04},
			wantErr: true,
		},
		{
			name:    "short",
			b:       []byte{0x00, 0x01, 0x01},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a AddPathTuple
			err := a.Decode(tt.b)
			if tt.wantErr {
				var n *Notification
				assert.True(t, errors.As(err, &n))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a)
			assert.Equal(t, tt.b, a.Encode())
		})
	}
}

func TestAddPathTableFromCapabilities(t *testing.T) {
	caps := []Capability{
		NewMPExtensionsCapability(AFI_IPV4, SAFI_UNICAST),
		NewAddPathCapability([]AddPathTuple{
			{AFI: AFI_IPV4, SAFI: SAFI_UNICAST, Rx: true},
			{AFI: AFI_IPV6, SAFI: SAFI_UNICAST, Tx: true},
			{AFI: AFI_IPV6, SAFI: SAFI_NLRI_LABEL, Tx: true, Rx: true},
		}),
	}
	table, err := AddPathTableFromCapabilities(caps)
	require.NoError(t, err)
	assert.True(t, table.SupportsAddPath(AFI_IPV4, SAFI_UNICAST))
	assert.False(t, table.SupportsAddPath(AFI_IPV6, SAFI_UNICAST))
	assert.True(t, table.SupportsAddPath(AFI_IPV6, SAFI_NLRI_LABEL))
	assert.False(t, table.SupportsAddPath(AFI_IPV4, SAFI_NLRI_LABEL))
	assert.ElementsMatch(t, []AFISAFI{
		{AFI: AFI_IPV4, SAFI: SAFI_UNICAST},
		{AFI: AFI_IPV6, SAFI: SAFI_NLRI_LABEL},
	}, table.Families())

	_, err = AddPathTableFromCapabilities([]Capability{{Code: CAP_ADD_PATH, Value: []byte{0x00}}})
	assert.Error(t, err)
}

func TestAddPathTable_Nil(t *testing.T) {
	var table *AddPathTable
	assert.False(t, table.SupportsAddPath(AFI_IPV4, SAFI_UNICAST))
	assert.Nil(t, table.Families())

	var zero AddPathTable
	assert.False(t, zero.SupportsAddPath(AFI_IPV4, SAFI_UNICAST))
	zero.Enable(AFI_IPV4, SAFI_UNICAST)
	assert.True(t, zero.SupportsAddPath(AFI_IPV4, SAFI_UNICAST))
}

func TestParseAFISAFI(t *testing.T) {
	tests := []struct {
		in      string
		want    AFISAFI
		wantErr bool
	}{
		{in: "ipv4/unicast", want: AFISAFI{AFI: AFI_IPV4, SAFI: SAFI_UNICAST}},
		{in: "IPv6/labeled-unicast", want: AFISAFI{AFI: AFI_IPV6, SAFI: SAFI_NLRI_LABEL}},
		{in: " ipv6/label ", want: AFISAFI{AFI: AFI_IPV6, SAFI: SAFI_NLRI_LABEL}},
		{in: "16388/71", want: AFISAFI{AFI: AFI_BGPLS, SAFI: SAFI_BGPLS}},
		{in: "ipv4", wantErr: true},
		{in: "ipv5/unicast", wantErr: true},
		{in: "ipv4/256", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAFISAFI(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			// String round trips through ParseAFISAFI
			again, err := ParseAFISAFI(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}
