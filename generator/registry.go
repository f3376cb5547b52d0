package generator

import (
	"net"

	"github.com/miekg/dns"

	"github.com/dgroves/dnssrc/wire"
)

// Request bundles everything a generator needs beyond the zone's
// static configuration: the parsed query, the connection it arrived
// on, and which transport carried it.
type Request struct {
	Msg        *dns.Msg
	Transport  string // "udp", "tcp", "tls", "https", "quic"
	RemoteAddr net.Addr
	LocalAddr  net.Addr

	// ECS is the parsed client-subnet option, or nil if the query
	// carried none. Its Address is as the client sent it; ECS.Masked
	// and ECS.String apply the source-prefix mask.
	ECS *wire.ECS
}

// Question is a convenience accessor -- dispatch.Handler only invokes
// a generator for a message carrying exactly one question.
func (r Request) Question() dns.Question {
	return r.Msg.Question[0]
}

// Result is a generator's answer: the RRs for the answer section, all
// with their TTL already set.
type Result struct {
	RRs []dns.RR
}

// Func is a synthetic record generator: a pure function of the
// request, the server's TTL policy and its shared state. It performs
// no I/O and must not block.
type Func func(req Request, ttl uint32, st *State) (Result, error)

var registry = map[string]Func{}

// Register adds a generator under its leaf label. Called from each
// generator file's init(), mirroring the teacher's
// middleware.Register idiom but against a flat map instead of an
// ordered chain -- spec.md §9 asks for a flat table keyed on label
// over virtual dispatch.
func Register(label string, fn Func) {
	registry[label] = fn
}

// Lookup returns the generator registered for label, or nil if none
// matches -- the caller (dispatch.Handler) turns a miss into NXDOMAIN.
func Lookup(label string) Func {
	return registry[label]
}
