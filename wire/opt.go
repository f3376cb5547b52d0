package wire

import "github.com/miekg/dns"

// DefaultMsgSize is the UDP payload size DNSSRC advertises on every
// response OPT record, per spec.md's default of 1232.
const DefaultMsgSize = 1232

// EchoOPT attaches a response OPT to resp when req carried one, per
// spec.md's invariant that an EDNS query always gets back exactly one
// OPT whose udp-payload-size is the server's configured maximum and
// whose DO bit matches the query. It never reuses req's OPT record --
// a fresh one is built so the response isn't aliasing the request.
func EchoOPT(req, resp *dns.Msg) {
	reqOPT := req.IsEdns0()
	if reqOPT == nil {
		return
	}

	opt := &dns.OPT{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeOPT,
		},
	}
	opt.SetUDPSize(DefaultMsgSize)
	opt.SetDo(reqOPT.Do())

	resp.Extra = append(resp.Extra, opt)
}
