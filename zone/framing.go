package zone

import "github.com/miekg/dns"

// NSRecords returns the zone's NS RRset for name (the apex, normally).
func (c *Config) NSRecords(name string) []dns.RR {
	rrs := make([]dns.RR, 0, len(c.NS))
	for _, ns := range c.NS {
		rrs = append(rrs, &dns.NS{
			Hdr: dns.RR_Header{Name: name, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: c.TTL},
			Ns:  ns,
		})
	}

	return rrs
}

// SOARecord returns the zone's SOA RR for name, with the TTL spec.md
// §4.C requires for authority-section framing: SOA.minimum.
func (c *Config) SOARecord(name string) dns.RR {
	return &dns.SOA{
		Hdr:     dns.RR_Header{Name: name, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: c.SOA.Minimum},
		Ns:      c.SOA.MName,
		Mbox:    c.SOA.RName,
		Serial:  c.SOA.Serial,
		Refresh: c.SOA.Refresh,
		Retry:   c.SOA.Retry,
		Expire:  c.SOA.Expire,
		Minttl:  c.SOA.Minimum,
	}
}

// Frame finishes a response per spec.md §4.C/§4.D: sets AA=1, and
// populates the authority section with the zone's NS set when the
// answer is non-empty, or the SOA (at minimum TTL) when it's empty --
// covering both the NXDOMAIN and empty-NOERROR cases.
func (c *Config) Frame(resp *dns.Msg) {
	resp.Authoritative = true

	if len(resp.Answer) > 0 {
		resp.Ns = c.NSRecords(c.Apex)
		return
	}

	resp.Ns = []dns.RR{c.SOARecord(c.Apex)}
}
