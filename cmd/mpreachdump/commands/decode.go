package commands

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwhited/mpreach"
)

var errReencodeMismatch = errors.New("re-encoded NLRI differ from input")

// parseHex accepts hex with optional whitespace, ':' separators and a
// leading 0x.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', ':':
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse hex input: %w", err)
	}
	return b, nil
}

// reencodeCheck compares the NLRI field nlri against the encoding of the
// records decoded from it.
func (a *app) reencodeCheck(f mpreach.AFISAFI, nlri []byte, records []mpreach.NLRIRecord) error {
	got := mpreach.EncodeNLRI(records, a.addPath.SupportsAddPath(f.AFI, f.SAFI))
	if bytes.Equal(got, nlri) {
		return nil
	}
	a.logger.Warn("re-encoded NLRI differ from input",
		slog.String("family", f.String()),
		slog.String("input", hex.EncodeToString(nlri)),
		slog.String("reencoded", hex.EncodeToString(got)),
	)
	return fmt.Errorf("%s: %w", f, errReencodeMismatch)
}

func decodeCmd(a *app) *cobra.Command {
	var unreach bool

	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode MP_REACH_NLRI or MP_UNREACH_NLRI attribute data",
		Long: "Decode the value of an MP_REACH_NLRI attribute, or with --unreach an " +
			"MP_UNREACH_NLRI attribute, given as hex without the attribute header.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := parseHex(args[0])
			if err != nil {
				return err
			}

			d := mpreach.NewReachDecoder(a.decoderOptions(nil)...)
			if unreach {
				return a.runDecodeUnreach(cmd, d, b)
			}
			return a.runDecodeReach(cmd, d, b)
		},
	}

	cmd.Flags().BoolVar(&unreach, "unreach", false, "decode MP_UNREACH_NLRI attribute data")

	return cmd
}

func (a *app) runDecodeReach(cmd *cobra.Command, d *mpreach.ReachDecoder, b []byte) error {
	p, decodeErr := d.Decode(b)
	if p == nil {
		return decodeErr
	}
	f := mpreach.AFISAFI{AFI: p.AFI, SAFI: p.SAFI}
	out := reachJSON{
		Action:  "announce",
		Family:  f.String(),
		NextHop: p.NextHop.String(),
		Skipped: skippedString(p.Skipped),
		Records: recordsJSON(p.Records),
		Error:   errString(decodeErr),
	}
	if err := writeReach(cmd.OutOrStdout(), a.outputFormat, out); err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}
	if a.cfg.Decode.ReencodeCheck && p.Skipped == mpreach.NotSkipped {
		// AFI, SAFI, next hop length, next hop, reserved
		return a.reencodeCheck(f, b[4+int(b[3])+1:], p.Records)
	}
	return nil
}

func (a *app) runDecodeUnreach(cmd *cobra.Command, d *mpreach.ReachDecoder, b []byte) error {
	p, decodeErr := d.DecodeUnreach(b)
	if p == nil {
		return decodeErr
	}
	f := mpreach.AFISAFI{AFI: p.AFI, SAFI: p.SAFI}
	out := reachJSON{
		Action:  "withdraw",
		Family:  f.String(),
		Skipped: skippedString(p.Skipped),
		Records: recordsJSON(p.Withdrawn),
		Error:   errString(decodeErr),
	}
	if p.EndOfRIB() {
		out.Skipped = "end-of-rib"
	}
	if err := writeReach(cmd.OutOrStdout(), a.outputFormat, out); err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}
	if a.cfg.Decode.ReencodeCheck && p.Skipped == mpreach.NotSkipped {
		// AFI, SAFI
		return a.reencodeCheck(f, b[3:], p.Withdrawn)
	}
	return nil
}
