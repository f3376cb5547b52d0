package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func Test_metricsObserveIncrementsCounter(t *testing.T) {
	m := NewMetrics()

	m.Observe("udp", "myip", dns.RcodeSuccess)
	m.Observe("udp", "myip", dns.RcodeSuccess)
	m.Observe("udp", "", dns.RcodeRefused)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `dnssrc_queries_total{label="myip",rcode="NOERROR",transport="udp"} 2`)
	assert.Contains(t, body, `dnssrc_queries_total{label="-",rcode="REFUSED",transport="udp"} 1`)
}
