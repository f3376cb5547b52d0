package generator

import (
	"github.com/miekg/dns"
)

func init() {
	Register("myport", myport)
	Register("myaddr", myaddr)
}

func myport(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	port := hostPort(req.RemoteAddr)

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, port)}}, nil
}

func myaddr(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	ip := hostIP(req.RemoteAddr)
	if ip == nil {
		return Result{}, nil
	}

	port := hostPort(req.RemoteAddr)

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, ip.String(), port)}}, nil
}
