// Package doq implements DNS-over-QUIC (RFC 9250): each query arrives
// as a single QUIC stream carrying a 2-byte length prefix followed by
// the packed DNS message, and the reply is framed the same way on the
// same stream before it's closed.
package doq

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/quic-go/quic-go"
	"github.com/semihalev/zlog/v2"
)

// alpnProtocols lists the ALPN tokens DNSSRC accepts: the final RFC
// 9250 identifier plus the draft identifiers some clients still send.
var alpnProtocols = []string{"doq", "doq-i02", "dq", "doq-i00", "doq-i01", "doq-i11"}

const (
	streamHeaderSize = 14 // 12-byte DNS header + 2-byte length prefix
	maxMsgSize       = 65535
	idleTimeout      = 5 * time.Second
	keepAlivePeriod  = 30 * time.Second
)

const closeCodeNone quic.ApplicationErrorCode = 0x0

// Server serves Handler over QUIC streams at Addr. Binding (Listen)
// and accepting connections (Serve) are split so a caller can fail
// startup on a bad address or certificate before any connection is
// accepted, the same bind-then-serve shape server.Server uses for its
// other transports.
type Server struct {
	Addr    string
	Handler dns.Handler

	ln *quic.Listener
}

var msgPool = sync.Pool{New: func() any { return new(dns.Msg) }}

func acquireMsg() *dns.Msg { return msgPool.Get().(*dns.Msg) }

func releaseMsg(m *dns.Msg) {
	m.Question, m.Answer, m.Ns, m.Extra = nil, nil, nil, nil
	msgPool.Put(m)
}

// Listen loads the TLS keypair and binds the QUIC listener. Serve
// must not be called until Listen has returned without error.
func (s *Server) Listen(certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}

	tlsConf := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   alpnProtocols,
		MinVersion:   tls.VersionTLS13, // DoQ requires TLS 1.3+
	}

	quicConf := &quic.Config{
		MaxIdleTimeout:         idleTimeout,
		MaxStreamReceiveWindow: maxMsgSize,
		KeepAlivePeriod:        keepAlivePeriod,
	}

	ln, err := quic.ListenAddr(s.Addr, tlsConf, quicConf)
	if err != nil {
		return err
	}

	s.ln = ln

	return nil
}

// Serve accepts connections until the listener is closed, handling
// each in its own goroutine. It blocks, so callers run it in a
// goroutine of their own.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept(context.Background())
		if err != nil {
			return err
		}

		go s.handleConnection(conn)
	}
}

// ListenAndServeQUIC binds then serves in one call, for callers (such
// as tests) that have no need to split the two steps.
func (s *Server) ListenAndServeQUIC(certFile, keyFile string) error {
	if err := s.Listen(certFile, keyFile); err != nil {
		return err
	}

	return s.Serve()
}

func (s *Server) Shutdown() error {
	if s.ln == nil {
		return nil
	}

	if err := s.ln.Close(); err != nil && !errors.Is(err, quic.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleConnection(conn *quic.Conn) {
	for {
		stream, err := conn.AcceptStream(context.Background())
		if err != nil {
			if errors.Is(err, quic.ErrServerClosed) {
				return
			}

			zlog.Debug("dnssrc: doq accept stream failed", "error", err)
			_ = conn.CloseWithError(closeCodeNone, "")

			return
		}

		go s.handleStream(conn, stream)
	}
}

func (s *Server) handleStream(conn *quic.Conn, stream *quic.Stream) {
	const closeCodeProtocolError quic.ApplicationErrorCode = 0x2 // DOQ_PROTOCOL_ERROR

	defer stream.Close()

	buf, err := io.ReadAll(io.LimitReader(stream, maxMsgSize))
	if err != nil {
		zlog.Debug("dnssrc: doq stream read failed", "error", err)
		return
	}

	if len(buf) < streamHeaderSize {
		zlog.Debug("dnssrc: doq message too small", "size", len(buf))
		_ = conn.CloseWithError(closeCodeProtocolError, "")
		return
	}

	msgLen := binary.BigEndian.Uint16(buf[:2])
	if int(msgLen) != len(buf)-2 {
		zlog.Debug("dnssrc: doq length prefix mismatch", "prefix", msgLen, "got", len(buf)-2)
		_ = conn.CloseWithError(closeCodeProtocolError, "")
		return
	}

	req := acquireMsg()
	defer releaseMsg(req)

	if err := req.Unpack(buf[2:]); err != nil {
		zlog.Debug("dnssrc: doq unpack failed", "error", err)
		_ = conn.CloseWithError(closeCodeProtocolError, "")
		return
	}

	// RFC 9250 §4.2.1: DoQ messages carry ID 0 on the wire. The query is
	// given a random ID while it is dispatched, and ResponseWriter.WriteMsg
	// sets the reply's ID back to 0.
	req.Id = dns.Id()

	s.Handler.ServeDNS(&ResponseWriter{Conn: conn, Stream: stream}, req)
}
