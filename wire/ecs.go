// Package wire adapts the raw miekg/dns wire layer to the pieces
// DNSSRC's generators need: EDNS-Client-Subnet extraction and masking,
// OPT echoing, and UDP truncation.
package wire

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// ECS is a parsed EDNS-Client-Subnet option (RFC 7871).
type ECS struct {
	Family       uint16
	SourcePrefix uint8
	ScopePrefix  uint8
	Address      net.IP
}

// FindECS returns the client-subnet option carried on req's OPT record,
// if any.
func FindECS(req *dns.Msg) *ECS {
	opt := req.IsEdns0()
	if opt == nil {
		return nil
	}

	for _, o := range opt.Option {
		sub, ok := o.(*dns.EDNS0_SUBNET)
		if !ok {
			continue
		}

		return &ECS{
			Family:       sub.Family,
			SourcePrefix: sub.SourceNetmask,
			ScopePrefix:  sub.SourceScope,
			Address:      sub.Address,
		}
	}

	return nil
}

// Masked returns the network portion of e, with every bit below
// SourcePrefix cleared. The source may arrive unmasked -- some
// resolvers forward the client's address as-is -- so this never trusts
// the caller to have done it already.
func (e *ECS) Masked() net.IP {
	bits := familyBits(e.Family)

	addr := e.Address
	if e.Family == 1 {
		addr = addr.To4()
	} else {
		addr = addr.To16()
	}

	if addr == nil {
		return nil
	}

	mask := net.CIDRMask(int(e.SourcePrefix), bits)

	return addr.Mask(mask)
}

// String renders the masked network as "<network>/<prefix>", the form
// the edns-cs generator answers with.
func (e *ECS) String() string {
	network := e.Masked()
	if network == nil {
		return ""
	}

	return fmt.Sprintf("%s/%d", network.String(), e.SourcePrefix)
}

func familyBits(family uint16) int {
	if family == 1 {
		return net.IPv4len * 8
	}

	return net.IPv6len * 8
}
