package dispatch

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"

	"github.com/dgroves/dnssrc/generator"
	"github.com/dgroves/dnssrc/mock"
	"github.com/dgroves/dnssrc/zone"
)

func testZone(t *testing.T) *zone.Config {
	t.Helper()

	z, err := zone.NewConfig("test.example.com.", 5,
		[]string{"ns0.test.example.com.", "ns1.test.example.com."},
		[2]string{"ns0.test.example.com.", "hostmaster.test.example.com."},
		[5]uint32{1, 86400, 7200, 3600000, 300})
	assert.NoError(t, err)

	return z
}

func Test_apexSOA(t *testing.T) {
	h := New(testZone(t), generator.NewState(), "udp")

	req := new(dns.Msg)
	req.SetQuestion("test.example.com.", dns.TypeSOA)

	w := mock.NewWriter("udp", "203.0.113.7:40000")
	h.ServeDNS(w, req)

	assert.True(t, w.Written())
	assert.Equal(t, dns.RcodeSuccess, w.Msg().Rcode)
	assert.Len(t, w.Msg().Answer, 1)
	assert.True(t, w.Msg().Authoritative)
}

func Test_leafGenerator(t *testing.T) {
	h := New(testZone(t), generator.NewState(), "udp")

	req := new(dns.Msg)
	req.SetQuestion("myip.test.example.com.", dns.TypeA)

	w := mock.NewWriter("udp", "203.0.113.7:40000")
	h.ServeDNS(w, req)

	assert.True(t, w.Written())
	assert.Equal(t, dns.RcodeSuccess, w.Msg().Rcode)
	assert.Len(t, w.Msg().Answer, 1)

	a, ok := w.Msg().Answer[0].(*dns.A)
	assert.True(t, ok)
	assert.Equal(t, "203.0.113.7", a.A.String())
}

func Test_unknownLeafIsNXDOMAIN(t *testing.T) {
	h := New(testZone(t), generator.NewState(), "udp")

	req := new(dns.Msg)
	req.SetQuestion("bogus.test.example.com.", dns.TypeA)

	w := mock.NewWriter("udp", "203.0.113.7:40000")
	h.ServeDNS(w, req)

	assert.Equal(t, dns.RcodeNameError, w.Msg().Rcode)
	assert.Len(t, w.Msg().Ns, 1)
}

func Test_nsNameAnswersEmpty(t *testing.T) {
	h := New(testZone(t), generator.NewState(), "udp")

	req := new(dns.Msg)
	req.SetQuestion("ns0.test.example.com.", dns.TypeA)

	w := mock.NewWriter("udp", "203.0.113.7:40000")
	h.ServeDNS(w, req)

	assert.Equal(t, dns.RcodeSuccess, w.Msg().Rcode)
	assert.Empty(t, w.Msg().Answer)
}

func Test_outOfZoneIsRefused(t *testing.T) {
	h := New(testZone(t), generator.NewState(), "udp")

	req := new(dns.Msg)
	req.SetQuestion("myip.other.example.net.", dns.TypeA)

	w := mock.NewWriter("udp", "203.0.113.7:40000")
	h.ServeDNS(w, req)

	assert.Equal(t, dns.RcodeRefused, w.Msg().Rcode)
}

func Test_counterIncrementsOnEveryDispatch(t *testing.T) {
	st := generator.NewState()
	h := New(testZone(t), st, "udp")

	for i := 0; i < 3; i++ {
		req := new(dns.Msg)
		req.SetQuestion("myip.test.example.com.", dns.TypeA)
		h.ServeDNS(mock.NewWriter("udp", "203.0.113.7:40000"), req)
	}

	assert.Equal(t, uint64(3), st.Counter())
}

func Test_dispatchHookFires(t *testing.T) {
	h := New(testZone(t), generator.NewState(), "udp")

	var gotTransport, gotLabel string
	var gotRcode int
	h.OnDispatch = func(transport, label string, rcode int) {
		gotTransport, gotLabel, gotRcode = transport, label, rcode
	}

	req := new(dns.Msg)
	req.SetQuestion("myip.test.example.com.", dns.TypeA)
	h.ServeDNS(mock.NewWriter("udp", "203.0.113.7:40000"), req)

	assert.Equal(t, "udp", gotTransport)
	assert.Equal(t, "myip", gotLabel)
	assert.Equal(t, dns.RcodeSuccess, gotRcode)
}
