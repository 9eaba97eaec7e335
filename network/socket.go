// Package network adapts a connectionless UDP socket to the session core's
// transport contract: retry on interruption, surface would-block, never
// buffer or reassemble.
package network

import (
	"fmt"
	"net"
)

// ResolveServer resolves host:port to one UDP address, taking the first
// candidate the resolver returns.
func ResolveServer(hostport string) (*net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return nil, fmt.Errorf("resolving server address %q: %w", hostport, err)
	}
	return addr, nil
}

// Bind opens a local UDP endpoint on the given port (0 for OS-assigned).
// Go's net package already integrates UDP sockets with its runtime poller in
// non-blocking mode; Transport.Receive layers a short read deadline on top so
// the session core still observes the would-block/ready split its contract
// requires. Bind failures are fatal and non-recoverable in-band, per the
// session core's Binding state.
func Bind(localPort uint16) (*net.UDPConn, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(localPort)})
	if err != nil {
		return nil, fmt.Errorf("binding local udp socket on port %d: %w", localPort, err)
	}
	return conn, nil
}
