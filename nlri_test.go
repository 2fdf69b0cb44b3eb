package mpreach

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNLRIDecoder(shape nlriShape, afi uint16, safi uint8, addPath bool) nlriDecoder {
	return nlriDecoder{
		shape:   shape,
		afi:     afi,
		safi:    safi,
		addPath: addPath,
		logger:  defaultLogger(),
	}
}

func TestNLRIDecoder_Unicast(t *testing.T) {
	tests := []struct {
		name    string
		afi     uint16
		addPath bool
		b       []byte
		want    []netip.Prefix
		wantIDs []uint32
		wantErr error
	}{
		{
			name: "empty",
			afi:  AFI_IPV4,
			b:    nil,
			want: nil,
		},
		{
			name: "default route",
			afi:  AFI_IPV4,
			b:    []byte{0x00},
			want: []netip.Prefix{netip.MustParsePrefix("0.0.0.0/0")},
		},
		{
			name: "host route and /24",
			afi:  AFI_IPV4,
			b: []byte{
				0x20, 192, 168, 1, 1,
				0x18, 10, 0, 0,
			},
			want: []netip.Prefix{
				netip.MustParsePrefix("192.168.1.1/32"),
				netip.MustParsePrefix("10.0.0.0/24"),
			},
		},
		{
			name: "non-octet prefix length",
			afi:  AFI_IPV4,
			b:    []byte{0x11, 172, 16, 128},
			want: []netip.Prefix{netip.MustParsePrefix("172.16.128.0/17")},
		},
		{
			name: "ipv6 /128",
			afi:  AFI_IPV6,
			b: []byte{
				0x80,
				0x20, 0x01, 0x0d, 0xb8, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
			},
			want: []netip.Prefix{netip.MustParsePrefix("2001:db8::1/128")},
		},
		{
			name: "ipv6 default route",
			afi:  AFI_IPV6,
			b:    []byte{0x00},
			want: []netip.Prefix{netip.MustParsePrefix("::/0")},
		},
		{
			name:    "add-path",
			afi:     AFI_IPV4,
			addPath: true,
			b: []byte{
				0x00, 0x00, 0x00, 0x07, 0x18, 10, 0, 0,
				0x00, 0x00, 0x00, 0x08, 0x18, 10, 0, 1,
			},
			want: []netip.Prefix{
				netip.MustParsePrefix("10.0.0.0/24"),
				netip.MustParsePrefix("10.0.1.0/24"),
			},
			wantIDs: []uint32{7, 8},
		},
		{
			// fewer than 4 bytes left so no path identifier is read
			name:    "add-path short tail",
			afi:     AFI_IPV4,
			addPath: true,
			b:       []byte{0x10, 10, 1},
			want:    []netip.Prefix{netip.MustParsePrefix("10.1.0.0/16")},
			wantIDs: []uint32{0},
		},
		{
			name: "truncated prefix keeps earlier records",
			afi:  AFI_IPV4,
			b: []byte{
				0x18, 10, 0, 0,
				0x18, 10, 0,
			},
			want:    []netip.Prefix{netip.MustParsePrefix("10.0.0.0/24")},
			wantErr: ErrTruncated,
		},
		{
			name:    "ipv4 prefix length too long",
			afi:     AFI_IPV4,
			b:       []byte{0x21, 1, 2, 3, 4, 5},
			want:    []netip.Prefix{},
			wantErr: ErrMalformed,
		},
		{
			name: "ipv6 prefix length too long",
			afi:  AFI_IPV6,
			b: append([]byte{0x81},
				make([]byte, 17)...),
			want:    []netip.Prefix{},
			wantErr: ErrMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestNLRIDecoder(shapeUnicast, tt.afi, SAFI_UNICAST, tt.addPath)
			got, err := d.decode(tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var de *DecodeError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, "decode nlri", de.Op)
			} else {
				assert.NoError(t, err)
			}
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			prefixes := make([]netip.Prefix, 0, len(got))
			for i, r := range got {
				prefixes = append(prefixes, r.NetipPrefix())
				assert.Equal(t, tt.afi, r.AFI)
				assert.Equal(t, SAFI_UNICAST, r.SAFI)
				assert.Empty(t, r.Labels)
				if tt.wantIDs != nil {
					assert.Equal(t, tt.wantIDs[i], r.PathID)
				}
			}
			assert.Equal(t, tt.want, prefixes)
		})
	}
}

func TestNLRIDecoder_ZeroFillsAddress(t *testing.T) {
	d := newTestNLRIDecoder(shapeUnicast, AFI_IPV4, SAFI_UNICAST, false)
	got, err := d.decode([]byte{
		0x20, 0xff, 0xff, 0xff, 0xff,
		0x08, 0x0a,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, [4]byte{0x0a, 0, 0, 0}, got[1].PrefixBin)
	assert.Equal(t, netip.MustParseAddr("10.0.0.0"), got[1].Prefix)
}

func TestNLRIDecoder_Labeled(t *testing.T) {
	tests := []struct {
		name       string
		afi        uint16
		addPath    bool
		b          []byte
		wantPrefix []netip.Prefix
		wantLabels [][]Label
		wantIDs    []uint32
		wantErr    error
	}{
		{
			name: "single label",
			afi:  AFI_IPV4,
			b:    []byte{0x30, 0x00, 0x06, 0x41, 192, 168, 1},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("192.168.1.0/24"),
			},
			wantLabels: [][]Label{
				{{Value: 100, BottomOfStack: true}},
			},
		},
		{
			name: "label stack",
			afi:  AFI_IPV4,
			b: []byte{
				0x48,
				0x00, 0x06, 0x40,
				0x00, 0x0c, 0x81,
				192, 168, 1,
			},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("192.168.1.0/24"),
			},
			wantLabels: [][]Label{
				{{Value: 100}, {Value: 200, BottomOfStack: true}},
			},
		},
		{
			name: "withdraw label",
			afi:  AFI_IPV4,
			b:    []byte{0x30, 0x80, 0x00, 0x00, 192, 168, 1},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("192.168.1.0/24"),
			},
			wantLabels: [][]Label{
				{{Value: 0x80000}},
			},
		},
		{
			name: "label only default route",
			afi:  AFI_IPV6,
			b:    []byte{0x18, 0x00, 0x00, 0x31},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("::/0"),
			},
			wantLabels: [][]Label{
				{{Value: 3, BottomOfStack: true}},
			},
		},
		{
			name:    "add-path",
			afi:     AFI_IPV6,
			addPath: true,
			b: []byte{
				0x00, 0x00, 0x00, 0x02,
				0x58, 0x00, 0x06, 0x41,
				0x20, 0x01, 0x0d, 0xb8, 0x00, 0x00, 0x00, 0x01,
			},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("2001:db8:0:1::/64"),
			},
			wantLabels: [][]Label{
				{{Value: 100, BottomOfStack: true}},
			},
			wantIDs: []uint32{2},
		},
		{
			name:       "add-path trailing path id",
			afi:        AFI_IPV4,
			addPath:    true,
			b:          []byte{0x00, 0x00, 0x00, 0x01},
			wantPrefix: []netip.Prefix{},
		},
		{
			name: "length shorter than label",
			afi:  AFI_IPV4,
			b:    []byte{0x14, 0x00, 0x06, 0x41},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("0.0.0.0/0"),
			},
			wantLabels: [][]Label{
				{{Value: 100, BottomOfStack: true}},
			},
		},
		{
			name: "short record followed by record",
			afi:  AFI_IPV4,
			b: []byte{
				0x14, 0x00, 0x06, 0x40,
				0x30, 0x00, 0x06, 0x41, 10, 0, 0,
			},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("0.0.0.0/0"),
				netip.MustParsePrefix("10.0.0.0/24"),
			},
			wantLabels: [][]Label{
				{{Value: 100}},
				{{Value: 100, BottomOfStack: true}},
			},
		},
		{
			name: "stack without bottom runs out of bytes",
			afi:  AFI_IPV4,
			b: []byte{
				0x30,
				0x00, 0x06, 0x40,
				0x00, 0x0c, 0x80,
			},
			wantPrefix: []netip.Prefix{
				netip.MustParsePrefix("0.0.0.0/0"),
			},
			wantLabels: [][]Label{
				{{Value: 100}, {Value: 200}},
			},
		},
		{
			name:       "prefix exceeds family",
			afi:        AFI_IPV4,
			b:          []byte{0x39, 0x00, 0x06, 0x41, 1, 2, 3, 4, 5},
			wantPrefix: []netip.Prefix{},
			wantErr:    ErrMalformed,
		},
		{
			name:       "truncated label",
			afi:        AFI_IPV4,
			b:          []byte{0x30, 0x00, 0x06},
			wantPrefix: []netip.Prefix{},
			wantErr:    ErrTruncated,
		},
		{
			name:       "truncated prefix",
			afi:        AFI_IPV4,
			b:          []byte{0x30, 0x00, 0x06, 0x41, 192},
			wantPrefix: []netip.Prefix{},
			wantErr:    ErrTruncated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestNLRIDecoder(shapeLabeled, tt.afi, SAFI_NLRI_LABEL, tt.addPath)
			got, err := d.decode(tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			prefixes := make([]netip.Prefix, 0, len(got))
			labels := make([][]Label, 0, len(got))
			for i, r := range got {
				prefixes = append(prefixes, r.NetipPrefix())
				labels = append(labels, r.Labels)
				if tt.wantIDs != nil {
					assert.Equal(t, tt.wantIDs[i], r.PathID)
				}
			}
			assert.Equal(t, tt.wantPrefix, prefixes)
			if tt.wantLabels != nil {
				assert.Equal(t, tt.wantLabels, labels)
			}
		})
	}
}
