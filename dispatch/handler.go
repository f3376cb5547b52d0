// Package dispatch implements DNSSRC's single entry point: one
// dns.Handler that every transport (UDP, TCP, DoT, DoH, DoQ) feeds
// through, mirroring the teacher's server.Server.ServeDNS shape but
// replacing its middleware chain with the zone/generator pipeline
// spec.md §4.D describes as a contract, not a recipe.
package dispatch

import (
	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"

	"github.com/dgroves/dnssrc/generator"
	"github.com/dgroves/dnssrc/wire"
	"github.com/dgroves/dnssrc/zone"
)

// Handler dispatches parsed queries against one zone. A Handler is
// bound to exactly one transport label (spec.md §4.E: transport never
// changes answer content beyond UDP truncation, so that one knob is
// all each instance needs).
type Handler struct {
	Zone      *zone.Config
	State     *generator.State
	Transport string // "udp", "tcp", "tls", "https", "quic"

	// OnDispatch, if set, is called after every reply is written, with
	// the matched leaf label ("@" for apex queries, "" where no leaf
	// label applies, such as refused/notimplemented queries) and the
	// final rcode -- the hook server/metrics.go uses
	// to count queries by (transport, label, rcode), grounded on the
	// teacher's middleware/metrics package.
	OnDispatch func(transport, label string, rcode int)
}

// New returns a Handler for one transport, sharing z and st with every
// other transport's Handler.
func New(z *zone.Config, st *generator.State, transport string) *Handler {
	return &Handler{Zone: z, State: st, Transport: transport}
}

// ServeDNS implements dns.Handler. Nothing that arrives on the wire
// may crash the server (spec.md §7): a panic anywhere below this
// point is recovered and converted to SERVFAIL.
func (h *Handler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	defer func() {
		if rec := recover(); rec != nil {
			zlog.Error("dnssrc: recovered panic in dispatch", "error", rec, "transport", h.Transport)
			h.reply(w, r, servfail(r), "")
		}
	}()

	if r == nil || len(r.Question) != 1 {
		// Parse failed before the question was known: uncounted, per
		// spec.md §3/§4.D step 1. UDP drops it silently; stream
		// transports answer FORMERR echoing the query's id.
		if r != nil && h.Transport != "udp" {
			formerr := new(dns.Msg)
			formerr.SetRcode(r, dns.RcodeFormatError)
			h.reply(w, r, formerr, "")
		}
		return
	}

	h.State.Next()

	q := r.Question[0]

	resp := new(dns.Msg)
	resp.SetReply(r)
	resp.Compress = false

	if r.Opcode != dns.OpcodeQuery {
		resp.Rcode = dns.RcodeNotImplemented
		h.reply(w, r, resp, "")
		return
	}

	verdict, label := h.Zone.Classify(q)

	switch verdict {
	case zone.VerdictNotImplemented:
		resp.Rcode = dns.RcodeNotImplemented
		h.reply(w, r, resp, "")

	case zone.VerdictRefused:
		resp.Rcode = dns.RcodeRefused
		h.reply(w, r, resp, "")

	case zone.VerdictApex:
		h.serveApex(w, r, resp, q)

	case zone.VerdictNXDOMAIN:
		resp.Rcode = dns.RcodeNameError
		h.Zone.Frame(resp)
		h.reply(w, r, resp, label)

	case zone.VerdictLeaf:
		h.serveLeaf(w, r, resp, q, label)
	}
}

func (h *Handler) serveApex(w dns.ResponseWriter, r, resp *dns.Msg, q dns.Question) {
	switch q.Qtype {
	case dns.TypeSOA:
		resp.Answer = []dns.RR{h.Zone.SOARecord(h.Zone.Apex)}
	case dns.TypeNS:
		resp.Answer = h.Zone.NSRecords(h.Zone.Apex)
	}
	// A/AAAA/anything else at the apex: empty NOERROR, per spec.md §4.B.

	resp.Rcode = dns.RcodeSuccess
	h.Zone.Frame(resp)
	h.reply(w, r, resp, "@")
}

func (h *Handler) serveLeaf(w dns.ResponseWriter, r, resp *dns.Msg, q dns.Question, label string) {
	// Each configured NS name is glued externally; DNSSRC itself
	// answers empty for it (spec.md §4.B: "the server does not know
	// its own external addresses").
	if h.Zone.IsNSName(q.Name) {
		resp.Rcode = dns.RcodeSuccess
		h.Zone.Frame(resp)
		h.reply(w, r, resp, label)
		return
	}

	fn := generator.Lookup(label)
	if fn == nil {
		resp.Rcode = dns.RcodeNameError
		h.Zone.Frame(resp)
		h.reply(w, r, resp, label)
		return
	}

	req := generator.Request{
		Msg:        r,
		Transport:  h.Transport,
		RemoteAddr: w.RemoteAddr(),
		LocalAddr:  w.LocalAddr(),
		ECS:        wire.FindECS(r),
	}

	result, err := fn(req, h.Zone.TTL, h.State)
	if err != nil {
		zlog.Error("dnssrc: generator error", "label", label, "error", err.Error())
		resp.Rcode = dns.RcodeServerFailure
		h.reply(w, r, resp, label)
		return
	}

	resp.Answer = result.RRs
	resp.Rcode = dns.RcodeSuccess
	h.Zone.Frame(resp)
	h.reply(w, r, resp, label)
}

// reply echoes the OPT, truncates over UDP, writes the message and
// fires the metrics hook.
func (h *Handler) reply(w dns.ResponseWriter, req, resp *dns.Msg, label string) {
	wire.EchoOPT(req, resp)

	if h.Transport == "udp" {
		wire.Truncate(req, resp)
	}

	if err := w.WriteMsg(resp); err != nil {
		zlog.Warn("dnssrc: write failed", "transport", h.Transport, "error", err.Error())
	}

	if h.OnDispatch != nil {
		h.OnDispatch(h.Transport, label, resp.Rcode)
	}
}

func servfail(r *dns.Msg) *dns.Msg {
	m := new(dns.Msg)
	if r != nil {
		m.SetReply(r)
	}
	m.Rcode = dns.RcodeServerFailure
	return m
}
