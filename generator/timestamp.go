package generator

import (
	"strconv"
	"time"

	"github.com/miekg/dns"
)

func init() {
	Register("timestamp", timestamp)
	Register("timestamp0", timestampZero)
}

func timestamp(req Request, ttl uint32, st *State) (Result, error) {
	return timestampAt(req, ttl)
}

// timestampZero answers the same value as timestamp but with TTL=0,
// so caching resolvers can't mask latency probes with a stale answer.
func timestampZero(req Request, ttl uint32, st *State) (Result, error) {
	return timestampAt(req, 0)
}

func timestampAt(req Request, ttl uint32) (Result, error) {
	q := req.Question()
	if q.Qtype != dns.TypeTXT {
		return Result{}, nil
	}

	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)

	return Result{RRs: []dns.RR{txtRR(q.Name, ttl, millis)}}, nil
}
