// Package commands implements the mpreachdump CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jwhited/mpreach"
)

const (
	formatJSON  = "json"
	formatTable = "table"
	valueNone   = "-"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatTable:
		return nil
	}
	return fmt.Errorf("%w: %q", errUnsupportedFormat, format)
}

type recordJSON struct {
	Family string `json:"family"`
	mpreach.NLRIFields
}

func recordsJSON(records []mpreach.NLRIRecord) []recordJSON {
	out := make([]recordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, recordJSON{
			Family:     mpreach.AFISAFI{AFI: r.AFI, SAFI: r.SAFI}.String(),
			NLRIFields: r.Fields(),
		})
	}
	return out
}

type reachJSON struct {
	Action  string       `json:"action"`
	Family  string       `json:"family"`
	NextHop string       `json:"next_hop,omitempty"`
	Skipped string       `json:"skipped,omitempty"`
	Records []recordJSON `json:"records"`
	Error   string       `json:"error,omitempty"`
}

type updateJSON struct {
	Attrs     map[string][]string `json:"attrs"`
	NLRI      []recordJSON        `json:"nlri"`
	Withdrawn []recordJSON        `json:"withdrawn"`
	Errors    string              `json:"errors,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func skippedString(s mpreach.SkipReason) string {
	if s == mpreach.NotSkipped {
		return ""
	}
	return s.String()
}

func newUpdateJSON(u *mpreach.ParsedUpdate) updateJSON {
	out := updateJSON{
		Attrs:     make(map[string][]string, len(u.Attrs)),
		NLRI:      recordsJSON(u.NLRI),
		Withdrawn: recordsJSON(u.Withdrawn),
		Errors:    errString(u.Errs),
	}
	for _, a := range u.Attrs {
		out.Attrs[a.Name] = a.Values
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func labelsString(labels []string) string {
	if len(labels) == 0 {
		return valueNone
	}
	return strings.Join(labels, ",")
}

func writeRecordRows(w io.Writer, action string, records []recordJSON) {
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%s\t%s\n",
			action,
			r.Family,
			r.Prefix,
			r.PrefixLength,
			r.PathID,
			labelsString(r.Labels),
		)
	}
}

const recordHeader = "ACTION\tFAMILY\tPREFIX\tPATH-ID\tLABELS"

// writeReach renders a decoded MP_REACH_NLRI or MP_UNREACH_NLRI attribute.
func writeReach(w io.Writer, format string, v reachJSON) error {
	if format == formatJSON {
		return writeJSON(w, v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Family:\t%s\n", v.Family)
	if v.NextHop != "" {
		fmt.Fprintf(tw, "Next Hop:\t%s\n", v.NextHop)
	}
	if v.Skipped != "" {
		fmt.Fprintf(tw, "Skipped:\t%s\n", v.Skipped)
	}
	if v.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", v.Error)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush tabwriter: %w", err)
	}
	if len(v.Records) == 0 {
		return nil
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, recordHeader)
	writeRecordRows(tw, v.Action, v.Records)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush tabwriter: %w", err)
	}
	return nil
}

// writeUpdate renders a parsed UPDATE. Attributes are listed in type code
// order.
func writeUpdate(w io.Writer, format string, u *mpreach.ParsedUpdate) error {
	v := newUpdateJSON(u)
	if format == formatJSON {
		return writeJSON(w, v)
	}
	codes := make([]int, 0, len(u.Attrs))
	for code := range u.Attrs {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, code := range codes {
		a := u.Attrs[uint8(code)]
		fmt.Fprintf(tw, "%s:\t%s\n", a.Name, strings.Join(a.Values, " "))
	}
	if v.Errors != "" {
		fmt.Fprintf(tw, "errors:\t%s\n", strings.ReplaceAll(v.Errors, "\n", "; "))
	}
	if len(v.NLRI)+len(v.Withdrawn) > 0 {
		fmt.Fprintln(tw, recordHeader)
		writeRecordRows(tw, "announce", v.NLRI)
		writeRecordRows(tw, "withdraw", v.Withdrawn)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush tabwriter: %w", err)
	}
	return nil
}
