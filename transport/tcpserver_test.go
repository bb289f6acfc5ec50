package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nmea-gps-emulator/nmea"
)

func testBatch() []nmea.Sentence {
	return []nmea.Sentence{
		{Talker: nmea.TalkerID, Type: nmea.TypeHDT, Fields: []string{"274.1", "T"}},
		{Talker: nmea.TalkerID, Type: nmea.TypeZDA, Fields: []string{"125638.000", "15", "06", "2024", "0", "0"}},
	}
}

func dialTestServer(t *testing.T, s *TCPServer) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTCPServerBroadcast(t *testing.T) {
	s, err := NewTCPServer("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	client := dialTestServer(t, s)
	require.Eventually(t, func() bool { return s.pool.size() == 1 },
		2*time.Second, 10*time.Millisecond)

	batch := testBatch()
	require.NoError(t, s.Send(batch))

	want := nmea.JoinBatch(batch)
	got := make([]byte, len(want))
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = io.ReadFull(client, got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTCPServerSendWithNoClients(t *testing.T) {
	s, err := NewTCPServer("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Send(testBatch()))
}

func TestTCPServerClientLimit(t *testing.T) {
	s, err := NewTCPServer("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < maxClients; i++ {
		dialTestServer(t, s)
	}
	require.Eventually(t, func() bool { return s.pool.size() == maxClients },
		2*time.Second, 10*time.Millisecond)

	// The next client is accepted and immediately closed, never served.
	extra := dialTestServer(t, s)
	extra.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = extra.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, maxClients, s.pool.size())
}

func TestTCPServerPrunesDeadClients(t *testing.T) {
	s, err := NewTCPServer("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	keep := dialTestServer(t, s)
	gone := dialTestServer(t, s)
	require.Eventually(t, func() bool { return s.pool.size() == 2 },
		2*time.Second, 10*time.Millisecond)

	gone.Close()

	// The dead connection is detected on write and dropped; the
	// survivor keeps receiving.
	require.Eventually(t, func() bool {
		s.Send(testBatch())
		return s.pool.size() == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Send(testBatch()))
	keep.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = keep.Read(make([]byte, 64))
	assert.NoError(t, err)
}

func TestTCPServerClose(t *testing.T) {
	s, err := NewTCPServer("127.0.0.1:0")
	require.NoError(t, err)
	addr := s.Addr().String()

	client := dialTestServer(t, s)
	require.Eventually(t, func() bool { return s.pool.size() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.pool.size())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = client.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)

	_, err = net.DialTimeout("tcp", addr, 500*time.Millisecond)
	assert.Error(t, err)
}

func TestNewTCPServerBadAddress(t *testing.T) {
	_, err := NewTCPServer("999.999.999.999:10110")
	assert.Error(t, err)
}
