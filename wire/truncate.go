package wire

import "github.com/miekg/dns"

// Truncate applies the UDP truncation rule from spec.md §4.D step 7:
// if the packed response exceeds the query's advertised EDNS payload
// size (raised to 512 when smaller), or 512 when the query carried no
// EDNS, the response is cut down to header+question (plus the echoed
// OPT) with TC=1.
// Stream transports never truncate -- callers for TCP/DoT/DoH/DoQ
// must not call this.
func Truncate(req, resp *dns.Msg) {
	limit := 512
	if opt := req.IsEdns0(); opt != nil {
		if size := int(opt.UDPSize()); size > limit {
			limit = size
		}
	}

	if resp.Len() <= limit {
		return
	}

	resp.Truncated = true
	resp.Answer = nil
	resp.Ns = nil
	resp.Extra = nil

	EchoOPT(req, resp)
}
