package generator

import (
	"github.com/miekg/dns"
)

func init() {
	Register("myip", myip)
}

// myip answers with the peer's address in the family the query asked
// for; a family mismatch (A asked over an IPv6 connection, or vice
// versa) yields an empty NOERROR answer rather than an error, per
// spec.md's table.
func myip(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	ip := hostIP(req.RemoteAddr)
	if ip == nil {
		return Result{}, nil
	}

	switch q.Qtype {
	case dns.TypeA:
		if v4 := ip.To4(); v4 != nil {
			return Result{RRs: []dns.RR{aRR(q.Name, ttl, v4)}}, nil
		}
	case dns.TypeAAAA:
		if ip.To4() == nil {
			return Result{RRs: []dns.RR{aaaaRR(q.Name, ttl, ip.To16())}}, nil
		}
	}

	return Result{}, nil
}
