package doq

import (
	"encoding/binary"
	"net"

	"github.com/miekg/dns"
	"github.com/quic-go/quic-go"
)

// ResponseWriter adapts a single QUIC stream to dns.ResponseWriter so
// dispatch.Handler can answer a DoQ query the same way it answers
// every other transport.
type ResponseWriter struct {
	dns.ResponseWriter

	Conn   *quic.Conn
	Stream *quic.Stream
}

func (w *ResponseWriter) LocalAddr() net.Addr  { return w.Conn.LocalAddr() }
func (w *ResponseWriter) RemoteAddr() net.Addr { return w.Conn.RemoteAddr() }
func (w *ResponseWriter) Close() error         { return w.Stream.Close() }

func (w *ResponseWriter) Write(b []byte) (int, error) {
	return w.Stream.Write(lengthPrefix(b))
}

// WriteMsg zeroes the message ID per RFC 9250 §4.2.1 before packing
// and writing it length-prefixed to the stream.
func (w *ResponseWriter) WriteMsg(m *dns.Msg) error {
	m.Id = 0

	packed, err := m.Pack()
	if err != nil {
		_ = w.Conn.CloseWithError(0x1, err.Error())
		return err
	}

	_, err = w.Stream.Write(lengthPrefix(packed))

	return err
}

func lengthPrefix(msg []byte) []byte {
	buf := make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(buf, uint16(len(msg)))
	copy(buf[2:], msg)

	return buf
}
