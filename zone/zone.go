// Package zone holds the authoritative zone DNSSRC serves: the apex
// name, its SOA/NS records and default TTL, and the containment and
// framing rules spec.md §4.C requires of every response.
package zone

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// SOA mirrors the configurable fields of the zone's SOA record.
type SOA struct {
	MName, RName                          string
	Serial, Refresh, Retry, Expire, Minimum uint32
}

// Config is the zone's immutable, process-wide apex configuration.
// Every field is stored in lowercase canonical form so label matching
// stays case-insensitive per DNS rules (spec.md §3's invariant).
type Config struct {
	Apex string
	TTL  uint32
	NS   []string
	SOA  SOA
}

// NewConfig canonicalizes domain, the NS name set and the SOA name
// pair into a ready-to-serve Config.
func NewConfig(domain string, ttl uint32, ns []string, soaNames [2]string, soaValues [5]uint32) (*Config, error) {
	if domain == "" {
		return nil, fmt.Errorf("zone: domain must not be empty")
	}

	if len(ns) == 0 {
		return nil, fmt.Errorf("zone: at least one NS name is required")
	}

	names := make([]string, len(ns))
	for i, n := range ns {
		names[i] = dns.CanonicalName(n)
	}

	return &Config{
		Apex: dns.CanonicalName(domain),
		TTL:  ttl,
		NS:   names,
		SOA: SOA{
			MName:   dns.CanonicalName(soaNames[0]),
			RName:   dns.CanonicalName(soaNames[1]),
			Serial:  soaValues[0],
			Refresh: soaValues[1],
			Retry:   soaValues[2],
			Expire:  soaValues[3],
			Minimum: soaValues[4],
		},
	}, nil
}

// Verdict is the outcome of classifying an incoming question against
// the zone, per spec.md §4.C's three pre-dispatch checks.
type Verdict int

const (
	// VerdictApex: the question names the zone apex itself (SOA/NS/other).
	VerdictApex Verdict = iota
	// VerdictLeaf: the question is exactly one label below the apex --
	// Label holds that leftmost label, lowercased.
	VerdictLeaf
	// VerdictNXDOMAIN: in-zone, but neither the apex nor one label below it.
	VerdictNXDOMAIN
	// VerdictRefused: the question is outside this zone entirely.
	VerdictRefused
	// VerdictNotImplemented: the question's class isn't IN.
	VerdictNotImplemented
)

// Classify applies spec.md §4.C's class/containment/depth checks and
// returns the leftmost label when the question lands exactly one
// label below the apex.
func (c *Config) Classify(q dns.Question) (Verdict, string) {
	if q.Qclass != dns.ClassINET {
		return VerdictNotImplemented, ""
	}

	name := dns.CanonicalName(q.Name)

	if name == c.Apex {
		return VerdictApex, ""
	}

	if !dns.IsSubDomain(c.Apex, name) {
		return VerdictRefused, ""
	}

	labels := dns.SplitDomainName(name)
	apexLabels := dns.SplitDomainName(c.Apex)

	if len(labels) != len(apexLabels)+1 {
		return VerdictNXDOMAIN, ""
	}

	return VerdictLeaf, strings.ToLower(labels[0])
}

// IsNSName reports whether name (already canonical) is one of the
// zone's configured NS names -- used to answer the empty A/AAAA
// spec.md requires for each NS name.
func (c *Config) IsNSName(name string) bool {
	canon := dns.CanonicalName(name)
	for _, ns := range c.NS {
		if ns == canon {
			return true
		}
	}

	return false
}
