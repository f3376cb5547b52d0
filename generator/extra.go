package generator

import (
	"github.com/miekg/dns"
)

func init() {
	Register("help", help)
	Register("version", version)
	Register("protocol", protocol)
}

// Version is the server's build version, reported by the `version`
// label. cmd/dnssrc sets it at startup the way the teacher threads
// BuildVersion/config.ServerVersion() through its own main.go.
var Version = "dev"

const helpText = "Available queries are: myip/A/AAAA, myport/TXT, myaddr/TXT, " +
	"counter/TXT/A/AAAA, random/A/AAAA/TXT, edns/TXT, edns-cs/A/AAAA/TXT, " +
	"timestamp/TXT, timestamp0/TXT, help/TXT, protocol/TXT, version/TXT"

// help lists every supported label/QTYPE combination. Supplemented
// from original_source/src/handler.rs's do_handle_request_help; not
// in spec.md's table, but nothing in its Non-goals excludes it.
func help(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, helpText)}}, nil
}

// version reports the server's build version. Supplemented from
// original_source's do_handle_request_version.
func version(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, Version)}}, nil
}

// protocol reports which transport carried the query and which IP
// family the peer used, e.g. "udp IPv4" or "https IPv6". Supplemented
// from original_source's do_handle_request_protocol.
func protocol(req Request, ttl uint32, st *State) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	family := "Unknown"
	if ip := hostIP(req.RemoteAddr); ip != nil {
		if ip.To4() != nil {
			family = "IPv4"
		} else {
			family = "IPv6"
		}
	}

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, req.Transport+" "+family)}}, nil
}
