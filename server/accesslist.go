package server

import (
	"net"

	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"
	"github.com/yl2chen/cidranger"
)

// AccessList wraps a dns.Handler, silently dropping every query from
// a peer outside the configured CIDR set. Grounded on the teacher's
// accesslist package, collapsed from a middleware-chain step into a
// plain Handler wrapper since DNSSRC has no chain to join.
type AccessList struct {
	ranger cidranger.Ranger
	open   bool
	next   dns.Handler
}

// NewAccessList builds an AccessList from a list of CIDRs (IPv4 or
// IPv6). An empty list allows every peer.
func NewAccessList(cidrs []string, next dns.Handler) (*AccessList, error) {
	a := &AccessList{ranger: cidranger.NewPCTrieRanger(), open: len(cidrs) == 0, next: next}

	for _, cidr := range cidrs {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}

		if err := a.ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet)); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *AccessList) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	if a.open {
		a.next.ServeDNS(w, r)
		return
	}

	host, _, err := net.SplitHostPort(w.RemoteAddr().String())
	if err != nil {
		host = w.RemoteAddr().String()
	}

	allowed, err := a.ranger.Contains(net.ParseIP(host))
	if err != nil {
		zlog.Warn("dnssrc: access list lookup failed", "peer", host, "error", err.Error())
	}

	if !allowed {
		// No reply: an unlisted peer shouldn't learn this server exists.
		return
	}

	a.next.ServeDNS(w, r)
}
