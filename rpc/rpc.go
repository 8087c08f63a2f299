// Package rpc provides the stub/skeleton plumbing shared by the naming
// server and storage server binaries: dialing a remote service and
// serving one locally. The wire protocol is net/rpc's default gob codec;
// the transport itself is out of scope for what this package is asked to
// decide, so it reaches for the standard library rather than a
// third-party RPC framework.
package rpc

import (
	"net"
	"net/rpc"
	"time"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
)

// DialTimeout is the maximum time Dial waits for a TCP connection.
var DialTimeout = 5 * time.Second

// Dial connects to the RPC service listening at addr. The returned
// client's Close method must be called when the connection is no longer
// needed.
func Dial(addr string) (*rpc.Client, error) {
	const op = "rpc.Dial"
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, errors.E(op, errors.Transport, err)
	}
	return rpc.NewClient(conn), nil
}

// Server listens for RPC connections on a single address and dispatches
// them to a net/rpc.Server with one or more receivers registered on it.
type Server struct {
	name     string
	rpc      *rpc.Server
	listener net.Listener
}

// NewServer creates a Server with receivers registered on it under name,
// using rpc.Server.RegisterName rather than Register so the exposed RPC
// service name is name itself and not the receiver's concrete Go type
// (ServiceRPC, ReadService, ...). Callers pass name matching the rpcapi
// interface name (e.g. "Service", "Registration", "Read", "Command") so
// that "<name>.<Method>" is what client.Call dials.
func NewServer(name string, receivers ...interface{}) (*Server, error) {
	const op = "rpc.NewServer"
	srv := rpc.NewServer()
	for _, r := range receivers {
		if err := srv.RegisterName(name, r); err != nil {
			return nil, errors.E(op, errors.IllegalArgument, err)
		}
	}
	return &Server{name: name, rpc: srv}, nil
}

// ListenAndServe binds addr and serves incoming connections until the
// listener is closed. It returns once the listener stops accepting, which
// happens when Close is called or the listener encounters a permanent
// error. addr may specify port 0 to bind an ephemeral port; use Addr to
// discover the port actually chosen.
func (s *Server) ListenAndServe(addr string) error {
	const op = "rpc.Server.ListenAndServe"
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.E(op, errors.Transport, err)
	}
	return s.Serve(l)
}

// Serve accepts connections on an already-bound listener until it is
// closed. Use this instead of ListenAndServe when the caller needs to
// bind the listener itself, e.g. to discover an ephemeral port before
// advertising it to another process.
func (s *Server) Serve(l net.Listener) error {
	const op = "rpc.Server.Serve"
	s.listener = l
	log.Printf("rpc: %s listening on %s", s.name, l.Addr())
	for {
		conn, err := l.Accept()
		if err != nil {
			return errors.E(op, errors.Transport, err)
		}
		go s.rpc.ServeConn(conn)
	}
}

// Addr returns the address the server is bound to. It must be called
// after ListenAndServe has bound its listener (e.g. from another
// goroutine once startup has been signaled), or it returns nil.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops the server from accepting further connections. Connections
// already being served are not interrupted.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
