package zone

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	c, err := NewConfig("test.example.com.", 5,
		[]string{"ns0.test.example.com.", "ns1.test.example.com."},
		[2]string{"ns0.test.example.com.", "hostmaster.test.example.com."},
		[5]uint32{1, 86400, 7200, 3600000, 300})
	assert.NoError(t, err)

	return c
}

func Test_newConfigRejectsEmptyDomain(t *testing.T) {
	_, err := NewConfig("", 5, []string{"ns0."}, [2]string{"a.", "b."}, [5]uint32{})
	assert.Error(t, err)
}

func Test_newConfigRejectsNoNS(t *testing.T) {
	_, err := NewConfig("test.example.com.", 5, nil, [2]string{"a.", "b."}, [5]uint32{})
	assert.Error(t, err)
}

func Test_classifyApex(t *testing.T) {
	c := testConfig(t)

	verdict, label := c.Classify(dns.Question{Name: "test.example.com.", Qtype: dns.TypeSOA, Qclass: dns.ClassINET})
	assert.Equal(t, VerdictApex, verdict)
	assert.Equal(t, "", label)
}

func Test_classifyApexCaseInsensitive(t *testing.T) {
	c := testConfig(t)

	verdict, _ := c.Classify(dns.Question{Name: "TEST.Example.COM.", Qtype: dns.TypeA, Qclass: dns.ClassINET})
	assert.Equal(t, VerdictApex, verdict)
}

func Test_classifyLeaf(t *testing.T) {
	c := testConfig(t)

	verdict, label := c.Classify(dns.Question{Name: "MyIP.test.example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET})
	assert.Equal(t, VerdictLeaf, verdict)
	assert.Equal(t, "myip", label)
}

func Test_classifyNXDOMAINTooDeep(t *testing.T) {
	c := testConfig(t)

	verdict, _ := c.Classify(dns.Question{Name: "a.b.test.example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET})
	assert.Equal(t, VerdictNXDOMAIN, verdict)
}

func Test_classifyRefusedOutOfZone(t *testing.T) {
	c := testConfig(t)

	verdict, _ := c.Classify(dns.Question{Name: "myip.other.example.net.", Qtype: dns.TypeA, Qclass: dns.ClassINET})
	assert.Equal(t, VerdictRefused, verdict)
}

func Test_classifyNotImplementedNonINET(t *testing.T) {
	c := testConfig(t)

	verdict, _ := c.Classify(dns.Question{Name: "test.example.com.", Qtype: dns.TypeA, Qclass: dns.ClassCHAOS})
	assert.Equal(t, VerdictNotImplemented, verdict)
}

func Test_isNSName(t *testing.T) {
	c := testConfig(t)

	assert.True(t, c.IsNSName("ns0.test.example.com."))
	assert.True(t, c.IsNSName("NS1.Test.Example.Com."))
	assert.False(t, c.IsNSName("myip.test.example.com."))
}

func Test_frameNonEmptyAnswerUsesNS(t *testing.T) {
	c := testConfig(t)

	resp := new(dns.Msg)
	resp.Answer = []dns.RR{&dns.A{Hdr: dns.RR_Header{Name: "myip.test.example.com.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 5}}}

	c.Frame(resp)

	assert.True(t, resp.Authoritative)
	assert.Len(t, resp.Ns, 2)
	ns, ok := resp.Ns[0].(*dns.NS)
	assert.True(t, ok)
	assert.Equal(t, "ns0.test.example.com.", ns.Ns)
}

func Test_frameEmptyAnswerUsesSOAAtMinimumTTL(t *testing.T) {
	c := testConfig(t)

	resp := new(dns.Msg)

	c.Frame(resp)

	assert.True(t, resp.Authoritative)
	assert.Len(t, resp.Ns, 1)
	soa, ok := resp.Ns[0].(*dns.SOA)
	assert.True(t, ok)
	assert.Equal(t, uint32(300), soa.Hdr.Ttl)
	assert.Equal(t, uint32(300), soa.Minttl)
}
