package generator

import (
	"net"

	"github.com/miekg/dns"
)

func txtRR(name string, ttl uint32, strs ...string) dns.RR {
	return &dns.TXT{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: ttl},
		Txt: strs,
	}
}

func aRR(name string, ttl uint32, ip net.IP) dns.RR {
	return &dns.A{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
		A:   ip,
	}
}

func aaaaRR(name string, ttl uint32, ip net.IP) dns.RR {
	return &dns.AAAA{
		Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeAAAA, Class: dns.ClassINET, Ttl: ttl},
		AAAA: ip,
	}
}

// hostIP splits an address of the form "host:port" (or a bare QUIC/TCP
// net.Addr's String()) down to just the host, parsed as a net.IP.
func hostIP(addr net.Addr) net.IP {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return net.ParseIP(addr.String())
	}

	return net.ParseIP(host)
}

func hostPort(addr net.Addr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}

	return port
}
