package commands

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/osrg/gobgp/v3/pkg/packet/mrt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jwhited/mpreach"
	"github.com/jwhited/mpreach/internal/config"
)

// shutdownTimeout is the maximum time to wait for the metrics server to
// drain active connections.
const shutdownTimeout = 10 * time.Second

// maxMRTRecord bounds a single MRT record, header included.
const maxMRTRecord = 1 << 20

var errShortBGP4MP = errors.New("bgp4mp record too short")

// addPathAll enables path identifiers for every family, as the *_ADDPATH
// BGP4MP subtypes require.
// https://www.rfc-editor.org/rfc/rfc8050#section-3
type addPathAll struct{}

func (addPathAll) SupportsAddPath(uint16, uint8) bool { return true }

// mrtUpdate is a BGP UPDATE extracted from a BGP4MP record.
type mrtUpdate struct {
	index   int
	time    time.Time
	peer    netip.Addr
	peerAS  uint32
	addPath bool
	body    []byte
}

type mrtResult struct {
	msg    *mrtUpdate
	update *mpreach.ParsedUpdate
	err    error
}

// parseBGP4MP extracts the UPDATE carried by a BGP4MP message record. A nil
// *mrtUpdate with a nil error means the record carries something else.
// https://www.rfc-editor.org/rfc/rfc6396#section-4.4
func parseBGP4MP(h *mrt.MRTHeader, data []byte) (*mrtUpdate, error) {
	m := &mrtUpdate{time: time.Unix(int64(h.Timestamp), 0).UTC()}
	if h.Type == mrt.BGP4MP_ET {
		if len(data) < 4 {
			return nil, errShortBGP4MP
		}
		m.time = m.time.Add(time.Duration(binary.BigEndian.Uint32(data)) * time.Microsecond)
		data = data[4:]
	}

	asLen := 2
	switch mrt.MRTSubTypeBGP4MP(h.SubType) {
	case mrt.MESSAGE, mrt.MESSAGE_LOCAL:
	case mrt.MESSAGE_ADDPATH, mrt.MESSAGE_LOCAL_ADDPATH:
		m.addPath = true
	case mrt.MESSAGE_AS4, mrt.MESSAGE_AS4_LOCAL:
		asLen = 4
	case mrt.MESSAGE_AS4_ADDPATH, mrt.MESSAGE_AS4_LOCAL_ADDPATH:
		asLen = 4
		m.addPath = true
	default:
		return nil, nil
	}

	// peer AS, local AS, interface index, address family
	if len(data) < 2*asLen+4 {
		return nil, errShortBGP4MP
	}
	if asLen == 4 {
		m.peerAS = binary.BigEndian.Uint32(data)
	} else {
		m.peerAS = uint32(binary.BigEndian.Uint16(data))
	}
	data = data[2*asLen+2:]
	afi := binary.BigEndian.Uint16(data)
	data = data[2:]

	ipLen := 4
	if afi == mpreach.AFI_IPV6 {
		ipLen = 16
	}
	if len(data) < 2*ipLen {
		return nil, errShortBGP4MP
	}
	m.peer, _ = netip.AddrFromSlice(data[:ipLen])
	data = data[2*ipLen:]

	if len(data) < bgpHeaderLen || data[18] != bgpMsgTypeUpdate {
		return nil, nil
	}
	body, err := updateBody(data)
	if err != nil {
		return nil, err
	}
	m.body = body
	return m, nil
}

// readMRT feeds every UPDATE found in r to updates.
func readMRT(ctx context.Context, r io.Reader, logger *slog.Logger, updates chan<- *mrtUpdate) error {
	defer close(updates)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxMRTRecord)
	scanner.Split(mrt.SplitMrt)

	index := 0
	for scanner.Scan() {
		rec := scanner.Bytes()
		var h mrt.MRTHeader
		if err := h.DecodeFromBytes(rec); err != nil {
			return fmt.Errorf("mrt header: %w", err)
		}
		if h.Type != mrt.BGP4MP && h.Type != mrt.BGP4MP_ET {
			continue
		}
		m, err := parseBGP4MP(&h, rec[mrt.MRT_COMMON_HEADER_LEN:])
		if err != nil {
			logger.Warn("skipping bgp4mp record",
				slog.Int("record", index),
				slog.String("error", err.Error()),
			)
			continue
		}
		if m == nil {
			continue
		}
		// bytes returned by the scanner are reused on the next Scan
		m.body = append([]byte(nil), m.body...)
		m.index = index
		index++

		select {
		case updates <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read mrt: %w", err)
	}
	return nil
}

// decodeMRT parses the UPDATEs in r with the given number of workers and
// returns the results in file order.
func (a *app) decodeMRT(ctx context.Context, r io.Reader, workers int) ([]mrtResult, error) {
	g, gCtx := errgroup.WithContext(ctx)

	updates := make(chan *mrtUpdate, workers)
	results := make(chan mrtResult, workers)

	g.Go(func() error {
		return readMRT(gCtx, r, a.logger, updates)
	})

	plain := mpreach.NewUpdateParser(a.decoderOptions(nil)...)
	withPathIDs := mpreach.NewUpdateParser(a.decoderOptions(addPathAll{})...)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for m := range updates {
				p := plain
				if m.addPath {
					p = withPathIDs
				}
				u, err := p.Parse(m.body)
				select {
				case results <- mrtResult{msg: m, update: u, err: err}:
				case <-gCtx.Done():
					return gCtx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]mrtResult, 0)
	for res := range results {
		switch {
		case res.update == nil || res.err != nil:
			a.metrics.IncMessages("notification")
		case res.update.Errs != nil:
			a.metrics.IncMessages("partial")
		default:
			a.metrics.IncMessages("ok")
		}
		collected = append(collected, res)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].msg.index < collected[j].msg.index
	})
	return collected, nil
}

type mrtUpdateJSON struct {
	Time   time.Time   `json:"time"`
	Peer   string      `json:"peer"`
	PeerAS uint32      `json:"peer_as"`
	Update *updateJSON `json:"update,omitempty"`
	Error  string      `json:"error,omitempty"`
}

func writeMRT(w io.Writer, format string, results []mrtResult) error {
	if format == formatJSON {
		out := make([]mrtUpdateJSON, 0, len(results))
		for _, res := range results {
			v := mrtUpdateJSON{
				Time:   res.msg.time,
				Peer:   res.msg.peer.String(),
				PeerAS: res.msg.peerAS,
				Error:  errString(res.err),
			}
			if res.update != nil {
				u := newUpdateJSON(res.update)
				v.Update = &u
			}
			out = append(out, v)
		}
		return writeJSON(w, out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPEER\t"+recordHeader)
	for _, res := range results {
		if res.update == nil {
			continue
		}
		prefix := res.msg.time.Format(time.RFC3339) + "\t" + res.msg.peer.String() + "\t"
		for _, r := range recordsJSON(res.update.NLRI) {
			fmt.Fprint(tw, prefix)
			writeRecordRows(tw, "announce", []recordJSON{r})
		}
		for _, r := range recordsJSON(res.update.Withdrawn) {
			fmt.Fprint(tw, prefix)
			writeRecordRows(tw, "withdraw", []recordJSON{r})
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush tabwriter: %w", err)
	}
	return nil
}

// listenAndServe serves srv on addr until the server is shut down.
func listenAndServe(ctx context.Context, srv *http.Server, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

// newMetricsServer creates an HTTP server for the Prometheus metrics endpoint.
func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// withMetricsServer runs work while serving metrics when metrics.addr is set.
// With hold the endpoint stays up after work returns until ctx is done.
func (a *app) withMetricsServer(ctx context.Context, hold bool, work func(context.Context) error) error {
	if a.cfg.Metrics.Addr == "" {
		return work(ctx)
	}

	srv := newMetricsServer(a.cfg.Metrics, a.reg)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return listenAndServe(gCtx, srv, a.cfg.Metrics.Addr)
	})
	g.Go(func() error {
		err := work(gCtx)
		if err == nil && hold {
			a.logger.Info("serving metrics until interrupted",
				slog.String("addr", a.cfg.Metrics.Addr),
				slog.String("path", a.cfg.Metrics.Path),
			)
			<-gCtx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
			err = fmt.Errorf("shutdown metrics server: %w", serr)
		}
		return err
	})

	return g.Wait()
}

func mrtCmd(a *app) *cobra.Command {
	var (
		workers int
		hold    bool
	)

	cmd := &cobra.Command{
		Use:   "mrt <file>",
		Short: "Decode the BGP4MP UPDATE messages of an MRT dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = a.cfg.Decode.Workers
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open mrt file: %w", err)
			}
			defer f.Close()

			return a.withMetricsServer(cmd.Context(), hold, func(ctx context.Context) error {
				start := time.Now()
				results, err := a.decodeMRT(ctx, f, workers)
				if err != nil {
					return err
				}
				a.logger.Info("decoded mrt file",
					slog.String("file", args[0]),
					slog.Int("updates", len(results)),
					slog.Int("workers", workers),
					slog.Duration("elapsed", time.Since(start)),
				)
				return writeMRT(cmd.OutOrStdout(), a.outputFormat, results)
			})
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "decode workers (default decode.workers)")
	cmd.Flags().BoolVar(&hold, "hold", false, "keep serving metrics after decoding until interrupted")

	return cmd
}
