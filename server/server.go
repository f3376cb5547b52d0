// Package server binds DNSSRC's listeners -- UDP, TCP, DNS-over-TLS,
// DNS-over-HTTPS and DNS-over-QUIC -- and wires each to a
// dispatch.Handler. Grounded on the teacher's server.Server, which
// this package keeps the shape of: a thin wrapper that turns
// configured addresses into running dns.Server/http.Server/doq.Server
// instances, rather than routing logic of its own.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/miekg/dns"
	"github.com/semihalev/zlog/v2"

	"github.com/dgroves/dnssrc/mock"
	"github.com/dgroves/dnssrc/server/doh"
	"github.com/dgroves/dnssrc/server/doq"
)

// httpListener pairs a bound listener with the *http.Server that will
// serve it once Start is called -- net/http has no separate bind
// step of its own, so Server keeps the net.Listener around to supply
// one.
type httpListener struct {
	srv *http.Server
	ln  net.Listener
}

// Server owns every listener DNSSRC has bound and is responsible for
// starting and shutting them all down together. Every Listen* method
// only binds; nothing accepts a connection until Start runs, so a bad
// address anywhere fails startup before any listener has served a
// single packet.
type Server struct {
	dnsServers  []*dns.Server
	httpServers []*httpListener
	quicServers []*doq.Server
}

// New returns an empty Server -- listeners are added one at a time via
// ListenUDP/ListenTCP/ListenTLS/ListenDoH/ListenQUIC so the caller can
// bind every configured address before starting any of them (spec.md's
// "bind all or fail" startup contract).
func New() *Server {
	return &Server{}
}

// ListenUDP binds addr and registers h to serve it once Start is
// called. The bind happens synchronously so a bad address fails
// before any server starts accepting traffic.
func (s *Server) ListenUDP(addr string, h dns.Handler) error {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("server: udp %s: %w", addr, err)
	}

	s.dnsServers = append(s.dnsServers, &dns.Server{
		PacketConn: pc,
		Handler:    h,
		Net:        "udp",
	})

	return nil
}

// ListenTCP binds addr for plain TCP queries.
func (s *Server) ListenTCP(addr string, h dns.Handler, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: tcp %s: %w", addr, err)
	}

	s.dnsServers = append(s.dnsServers, &dns.Server{
		Listener:      ln,
		Handler:       h,
		Net:           "tcp",
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxTCPQueries: 2048,
	})

	return nil
}

// ListenTLS binds addr for DNS-over-TLS, sourcing its certificate from
// cm so a rotated cert is picked up without a restart.
func (s *Server) ListenTLS(addr string, h dns.Handler, cm *CertManager) error {
	tlsConf := cm.GetTLSConfig()
	tlsConf.NextProtos = []string{"dot"}

	ln, err := tls.Listen("tcp", addr, tlsConf)
	if err != nil {
		return fmt.Errorf("server: tls %s: %w", addr, err)
	}

	s.dnsServers = append(s.dnsServers, &dns.Server{
		Listener: ln,
		Handler:  h,
		Net:      "tcp-tls",
	})

	return nil
}

// ListenDoH binds addr for DNS-over-HTTPS at the fixed /dns-query
// path. It only binds: nothing is served until Start runs.
func (s *Server) ListenDoH(addr string, h dns.Handler, cm *CertManager) error {
	ln, err := tls.Listen("tcp", addr, cm.GetTLSConfig())
	if err != nil {
		return fmt.Errorf("server: doh %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/dns-query", dohHandler(h))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.httpServers = append(s.httpServers, &httpListener{srv: srv, ln: ln})

	return nil
}

// ListenQUIC binds addr for DNS-over-QUIC. It only binds: nothing is
// served until Start runs.
func (s *Server) ListenQUIC(addr, certFile, keyFile string, h dns.Handler) error {
	qs := &doq.Server{Addr: addr, Handler: h}

	if err := qs.Listen(certFile, keyFile); err != nil {
		return fmt.Errorf("server: quic %s: %w", addr, err)
	}

	s.quicServers = append(s.quicServers, qs)

	return nil
}

func dohHandler(h dns.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := func(req *dns.Msg) *dns.Msg {
			mw := mock.NewWriter("https", r.RemoteAddr)
			h.ServeDNS(mw, req)

			if !mw.Written() {
				return nil
			}

			return mw.Msg()
		}

		doh.HandleWireFormat(handle)(w, r)
	}
}

// Start begins serving every listener bound via ListenUDP, ListenTCP,
// ListenTLS, ListenDoH and ListenQUIC. Callers should only reach this
// once every bind has succeeded and, on platforms that need it,
// privileges have already dropped -- Start is the one place DNSSRC
// starts handing out answers.
func (s *Server) Start() {
	for _, srv := range s.dnsServers {
		go func(srv *dns.Server) {
			if err := srv.ActivateAndServe(); err != nil {
				zlog.Error("dnssrc: dns listener failed", "net", srv.Net, "error", err.Error())
			}
		}(srv)
	}

	for _, hl := range s.httpServers {
		go func(hl *httpListener) {
			if err := hl.srv.Serve(hl.ln); err != nil && err != http.ErrServerClosed {
				zlog.Error("dnssrc: doh listener failed", "addr", hl.srv.Addr, "error", err.Error())
			}
		}(hl)
	}

	for _, qs := range s.quicServers {
		go func(qs *doq.Server) {
			if err := qs.Serve(); err != nil {
				zlog.Error("dnssrc: quic listener failed", "addr", qs.Addr, "error", err.Error())
			}
		}(qs)
	}
}

// Shutdown stops every listener, waiting up to ctx's deadline for
// in-flight queries to finish.
func (s *Server) Shutdown(ctx context.Context) {
	for _, srv := range s.dnsServers {
		_ = srv.ShutdownContext(ctx)
	}

	for _, hl := range s.httpServers {
		_ = hl.srv.Shutdown(ctx)
	}

	for _, qs := range s.quicServers {
		_ = qs.Shutdown()
	}
}
