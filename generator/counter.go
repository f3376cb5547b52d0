package generator

import (
	"strconv"

	"github.com/miekg/dns"
)

func init() {
	Register("counter", counter)
}

// counter answers with the server's monotonic query counter as a
// decimal string. spec.md leaves QTYPE A/AAAA ambiguous here and
// defers to the source: original_source's do_handle_request_counter
// always builds a TXT-shaped RDATA regardless of the requested type,
// so DNSSRC does the same for A, AAAA and TXT alike -- it never
// invents an IP-valued counter.
func counter(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()

	switch q.Qtype {
	case dns.TypeTXT, dns.TypeA, dns.TypeAAAA:
		value := strconv.FormatUint(st.Counter(), 10)
		return Result{RRs: []dns.RR{txtRR(q.Name, ttl, value)}}, nil
	}

	return Result{}, nil
}
