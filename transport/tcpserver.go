package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"nmea-gps-emulator/nmea"
)

// maxClients is the documented connection cap, not configurable. The 11th
// concurrent client is accepted and closed without receiving any data.
const maxClients = 10

// TCPServer streams every batch to all connected clients. Sentences flow
// immediately on connect, no handshake. Zero connected clients is a valid,
// silent state; Send never returns an error.
type TCPServer struct {
	listener net.Listener
	pool     *clientPool
	done     chan struct{}
}

func NewTCPServer(listen string) (*TCPServer, error) {
	l, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", listen, err)
	}
	s := &TCPServer{
		listener: l,
		pool:     newClientPool(maxClients),
		done:     make(chan struct{}),
	}
	go s.acceptLoop()
	log.Infof("NMEA server listening on %s", l.Addr())
	return s, nil
}

// Addr reports the bound listen address.
func (s *TCPServer) Addr() net.Addr { return s.listener.Addr() }

func (s *TCPServer) acceptLoop() {
	defer close(s.done)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		if !s.pool.add(conn) {
			log.Warnf("Connection limit reached, closing %s", conn.RemoteAddr())
			conn.Close()
			continue
		}
		log.Infof("Client connected: %s", conn.RemoteAddr())
	}
}

func (s *TCPServer) Send(batch []nmea.Sentence) error {
	s.pool.broadcast(nmea.JoinBatch(batch))
	return nil
}

func (s *TCPServer) Close() error {
	err := s.listener.Close()
	<-s.done
	s.pool.closeAll()
	return err
}

// clientPool tracks live client connections. The mutex guards only the
// set itself; writes happen outside it.
type clientPool struct {
	mu    sync.Mutex
	max   int
	conns map[net.Conn]struct{}
}

func newClientPool(max int) *clientPool {
	return &clientPool{max: max, conns: make(map[net.Conn]struct{})}
}

func (p *clientPool) add(conn net.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.conns) >= p.max {
		return false
	}
	p.conns[conn] = struct{}{}
	return true
}

func (p *clientPool) remove(conn net.Conn) {
	p.mu.Lock()
	delete(p.conns, conn)
	p.mu.Unlock()
	conn.Close()
}

func (p *clientPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// broadcast writes the payload to every live connection. The lock is held
// only long enough to snapshot the connection list, so a slow write never
// blocks new accepts. A write that fails or exceeds its deadline marks
// that connection dead and removes it without affecting the others.
func (p *clientPool) broadcast(payload []byte) {
	p.mu.Lock()
	conns := make([]net.Conn, 0, len(p.conns))
	for c := range p.conns {
		conns = append(conns, c)
	}
	p.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(payload); err != nil {
			log.Infof("Client dropped: %s (%v)", conn.RemoteAddr(), err)
			p.remove(conn)
		}
	}
}

func (p *clientPool) closeAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.conns {
		c.Close()
	}
	p.conns = make(map[net.Conn]struct{})
}
