package generator

import (
	"fmt"

	"github.com/miekg/dns"
)

func init() {
	Register("edns", ednsSummary)
	Register("edns-cs", ednsClientSubnet)
}

// ednsSummary reports the EDNS parameters the query carried. Absent
// EDNS yields an empty NOERROR answer, matching spec.md's table.
func ednsSummary(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	opt := req.Msg.IsEdns0()
	if opt == nil {
		return Result{}, nil
	}

	summary := fmt.Sprintf(
		"version: %d dnssec_ok: %t max_payload: %d opts: %d",
		opt.Version(), opt.Do(), opt.UDPSize(), len(opt.Option),
	)

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, summary)}}, nil
}

// ednsClientSubnet answers with the masked ECS network, formatted
// "<network>/<prefix>", for A, AAAA and TXT alike -- the network
// string already carries the address family, so no type-specific
// encoding is needed. Absent ECS yields an empty NOERROR answer.
func ednsClientSubnet(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()

	switch q.Qtype {
	case dns.TypeA, dns.TypeAAAA, dns.TypeTXT:
	default:
		return Result{}, nil
	}

	if req.ECS == nil {
		return Result{}, nil
	}

	rendered := req.ECS.String()
	if rendered == "" {
		return Result{}, nil
	}

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, rendered)}}, nil
}
