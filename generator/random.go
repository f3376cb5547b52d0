package generator

import (
	"net"

	"github.com/miekg/dns"
)

func init() {
	Register("random", random)
}

func random(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()

	switch q.Qtype {
	case dns.TypeA:
		v := st.RandomUint32()
		ip := net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
		return Result{RRs: []dns.RR{aRR(q.Name, ttl, ip.To4())}}, nil
	case dns.TypeAAAA:
		buf := make(net.IP, net.IPv6len)
		for i := 0; i < net.IPv6len; i += 4 {
			v := st.RandomUint32()
			buf[i] = byte(v >> 24)
			buf[i+1] = byte(v >> 16)
			buf[i+2] = byte(v >> 8)
			buf[i+3] = byte(v)
		}
		return Result{RRs: []dns.RR{aaaaRR(q.Name, ttl, buf)}}, nil
	case dns.TypeTXT:
		return Result{RRs: []dns.RR{txtRR(q.Name, ttl, st.RandomAlphanumeric())}}, nil
	}

	return Result{}, nil
}
