package commands

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwhited/mpreach"
)

const (
	bgpHeaderLen     = 19
	bgpMsgTypeUpdate = 2
)

var bgpMarker = bytes.Repeat([]byte{0xff}, 16)

// updateBody returns the UPDATE body of b. b is either a complete BGP
// message, recognized by its marker, or already the body.
func updateBody(b []byte) ([]byte, error) {
	if !bytes.HasPrefix(b, bgpMarker) {
		return b, nil
	}
	if len(b) < bgpHeaderLen {
		return nil, fmt.Errorf("bgp message header: %d bytes, want %d", len(b), bgpHeaderLen)
	}
	msgLen := int(binary.BigEndian.Uint16(b[16:18]))
	if msgLen < bgpHeaderLen || msgLen > len(b) {
		return nil, fmt.Errorf("bgp message length %d invalid for %d bytes", msgLen, len(b))
	}
	if b[18] != bgpMsgTypeUpdate {
		return nil, fmt.Errorf("bgp message type %d is not UPDATE", b[18])
	}
	return b[bgpHeaderLen:msgLen], nil
}

func updateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <hex>",
		Short: "Parse a BGP UPDATE message",
		Long: "Parse a BGP UPDATE message given as hex, either the complete message " +
			"including its 19 byte header or only the message body.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseHex(args[0])
			if err != nil {
				return err
			}
			body, err := updateBody(b)
			if err != nil {
				return err
			}

			u, err := mpreach.NewUpdateParser(a.decoderOptions(nil)...).Parse(body)
			if u == nil {
				a.metrics.IncMessages("notification")
				return err
			}
			if werr := writeUpdate(cmd.OutOrStdout(), a.outputFormat, u); werr != nil {
				return werr
			}
			switch {
			case err != nil:
				a.metrics.IncMessages("notification")
				return err
			case u.Errs != nil:
				a.metrics.IncMessages("partial")
			default:
				a.metrics.IncMessages("ok")
			}
			return nil
		},
	}
}
