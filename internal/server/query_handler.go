// Package server implements the UDP DNS service for burrowdns.
//
// Goroutine Model:
//
// The UDP server spawns one receiver goroutine plus a fixed pool of worker
// goroutines. Each request is handled start-to-finish by one worker with its
// own buffers and packet structures; nothing is shared between requests, so
// per-request processing keeps strictly sequential semantics.
//
// Error Handling:
//
// Resolver failures become SERVFAIL responses, requests without a question
// become FORMERR, and a failure to encode or send a response is logged
// without ever stopping the serve loop.
package server

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cvanloo/burrowdns/internal/database"
	"github.com/cvanloo/burrowdns/internal/dnswire"
	"github.com/cvanloo/burrowdns/internal/metrics"
	"github.com/cvanloo/burrowdns/internal/resolvers"
)

// prunePeriod is how many query-log inserts pass between retention prunes.
const prunePeriod = 256

// QueryHandler turns one request datagram into one response datagram.
type QueryHandler struct {
	Logger   *slog.Logger       // Optional logger for debug output
	Resolver resolvers.Resolver // Resolution strategy
	Stats    *DNSStats          // Optional statistics collector

	QueryLog        *database.DB // Optional persistent query log
	QueryLogMaxRows int          // Retention budget for the query log

	inserts atomic.Uint64
}

// Handle processes one raw DNS request and returns the wire bytes of the
// response, or nil if no response can be produced (undecodable header, or
// the response itself failed to encode).
//
// Response construction:
//   - The transaction ID is echoed; QR, RD and RA are set.
//   - No question in the request -> FORMERR.
//   - Resolver failure -> SERVFAIL with the question copied in.
//   - Otherwise the upstream rcode and all three record sections are copied.
func (h *QueryHandler) Handle(ctx context.Context, src string, reqBytes []byte) []byte {
	start := time.Now()
	if h.Stats != nil {
		h.Stats.RecordQuery()
	}

	req, err := dnswire.ReadPacket(dnswire.NewPacketBufferFrom(reqBytes))
	if err != nil {
		return h.handleParseError(ctx, src, reqBytes, err)
	}

	resp := &dnswire.Packet{
		Header: dnswire.Header{
			ID:                 req.Header.ID,
			Response:           true,
			RecursionDesired:   true,
			RecursionAvailable: true,
		},
	}

	source := "formerr"
	if len(req.Questions) == 0 {
		resp.Header.Rcode = dnswire.RcodeFormErr
	} else {
		q := req.Questions[0]
		metrics.Queries.WithLabelValues(q.Type.String()).Inc()
		resp.Questions = append(resp.Questions, q)

		result, err := h.Resolver.Resolve(ctx, q.Name, q.Type)
		if err != nil {
			if h.Logger != nil {
				h.Logger.WarnContext(ctx, "resolution failed", "qname", q.Name, "err", err)
			}
			resp.Header.Rcode = dnswire.RcodeServFail
			source = "servfail"
		} else {
			upstream := result.Packet
			resp.Header.Rcode = upstream.Header.Rcode
			resp.Answers = append(resp.Answers, upstream.Answers...)
			resp.Authorities = append(resp.Authorities, upstream.Authorities...)
			resp.Additionals = append(resp.Additionals, upstream.Additionals...)
			source = result.Source
		}
	}

	h.finish(ctx, src, req, resp, source, time.Since(start))

	out := dnswire.NewPacketBuffer()
	if err := resp.Write(out); err != nil {
		if h.Logger != nil {
			h.Logger.ErrorContext(ctx, "failed to encode response", "id", resp.Header.ID, "err", err)
		}
		return nil
	}
	return out.Bytes()
}

// handleParseError answers an undecodable request with FORMERR when at least
// the header survives, and drops it otherwise.
func (h *QueryHandler) handleParseError(ctx context.Context, src string, reqBytes []byte, parseErr error) []byte {
	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "undecodable request", "src", src, "bytes", len(reqBytes), "err", parseErr)
	}
	if h.Stats != nil {
		h.Stats.RecordError()
	}

	header, err := dnswire.ReadHeader(dnswire.NewPacketBufferFrom(reqBytes))
	if err != nil {
		return nil
	}

	resp := &dnswire.Packet{
		Header: dnswire.Header{
			ID:                 header.ID,
			Response:           true,
			RecursionDesired:   true,
			RecursionAvailable: true,
			Rcode:              dnswire.RcodeFormErr,
		},
	}
	metrics.Responses.WithLabelValues(resp.Header.Rcode.String()).Inc()

	out := dnswire.NewPacketBuffer()
	if err := resp.Write(out); err != nil {
		return nil
	}
	return out.Bytes()
}

// finish updates statistics, metrics, logging and the query log for one
// handled request.
func (h *QueryHandler) finish(ctx context.Context, src string, req, resp *dnswire.Packet, source string, elapsed time.Duration) {
	rcode := resp.Header.Rcode

	metrics.Responses.WithLabelValues(rcode.String()).Inc()
	if h.Stats != nil {
		h.Stats.RecordLatency(elapsed.Nanoseconds())
		switch rcode {
		case dnswire.RcodeNXDomain:
			h.Stats.RecordNXDOMAIN()
		case dnswire.RcodeNoError:
		default:
			h.Stats.RecordError()
		}
	}

	qname, qtype := "<no-question>", ""
	if len(req.Questions) > 0 {
		qname = req.Questions[0].Name
		qtype = req.Questions[0].Type.String()
	}

	if h.Logger != nil && h.Logger.Enabled(ctx, slog.LevelDebug) {
		h.Logger.DebugContext(ctx, "dns request",
			"src", src,
			"id", int(req.Header.ID),
			"qname", qname,
			"qtype", qtype,
			"rcode", rcode.String(),
			"source", source,
			"elapsed", elapsed,
		)
	}

	if h.QueryLog != nil {
		entry := database.QueryLogEntry{
			AskedAt:    time.Now(),
			Client:     src,
			QName:      qname,
			QType:      qtype,
			Rcode:      rcode.String(),
			Source:     source,
			DurationMs: elapsed.Milliseconds(),
		}
		// The log is best-effort and must never delay the response path.
		go h.record(entry)
	}
}

// record inserts one query-log row and prunes the log every prunePeriod
// inserts. Runs outside the response path.
func (h *QueryHandler) record(entry database.QueryLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.QueryLog.InsertQueryLog(ctx, entry); err != nil {
		if h.Logger != nil {
			h.Logger.WarnContext(ctx, "query log insert failed", "err", err)
		}
		return
	}
	if h.inserts.Add(1)%prunePeriod == 0 {
		if err := h.QueryLog.PruneQueryLog(ctx, h.QueryLogMaxRows); err != nil && h.Logger != nil {
			h.Logger.WarnContext(ctx, "query log prune failed", "err", err)
		}
	}
}
