package storage

import (
	"net"

	derrors "github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
	rpctransport "github.com/rvsharma-cmu/DistributedFileSystem/rpc"
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
)

// Start binds the Read and Command skeletons on readAddr and commandAddr
// (each typically ":0" to pick an ephemeral port), lists the server's
// root, registers with the naming server at namingAddr advertising
// hostname as the externally-routable host, and prunes whatever
// duplicate paths the naming server reports. It returns the two servers,
// each already serving in its own goroutine, without blocking the caller;
// their Addr and Close methods report the bound address and stop
// accepting connections.
func Start(s *Server, readAddr, commandAddr, namingAddr, hostname string) (readSrv, cmdSrv *rpctransport.Server, err error) {
	const op = "storage.Start"

	readSrv, err = rpctransport.NewServer("Read", ReadService{Server: s})
	if err != nil {
		return nil, nil, derrors.E(op, err)
	}
	cmdSrv, err = rpctransport.NewServer("Command", CommandService{Server: s})
	if err != nil {
		return nil, nil, derrors.E(op, err)
	}

	readLn, err := net.Listen("tcp", readAddr)
	if err != nil {
		return nil, nil, derrors.E(op, derrors.Transport, err)
	}
	cmdLn, err := net.Listen("tcp", commandAddr)
	if err != nil {
		readLn.Close()
		return nil, nil, derrors.E(op, derrors.Transport, err)
	}

	go serveListener(readSrv, readLn)
	go serveListener(cmdSrv, cmdLn)

	if err := register(s, readLn.Addr(), cmdLn.Addr(), namingAddr, hostname); err != nil {
		return nil, nil, derrors.E(op, err)
	}
	return readSrv, cmdSrv, nil
}

func serveListener(srv *rpctransport.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil {
		log.Error.Printf("storage: serve: %v", err)
	}
}

func register(s *Server, readAddr, commandAddr net.Addr, namingAddr, hostname string) error {
	const op = "storage.register"
	paths, err := s.List()
	if err != nil {
		return derrors.E(op, err)
	}

	client, err := rpctransport.Dial(namingAddr)
	if err != nil {
		return derrors.E(op, derrors.Transport, err)
	}
	defer client.Close()

	args := &rpcapi.RegisterArgs{
		ReadAddr:    withHost(hostname, readAddr),
		CommandAddr: withHost(hostname, commandAddr),
		Paths:       paths,
	}
	var reply rpcapi.RegisterReply
	if err := client.Call("Registration.Register", args, &reply); err != nil {
		return derrors.E(op, derrors.Transport, err)
	}

	for _, p := range reply.Duplicates {
		if _, err := s.Delete(p); err != nil {
			log.Error.Printf("storage: prune duplicate %s: %v", p, err)
			continue
		}
		if err := s.PruneEmptyAncestors(p); err != nil {
			log.Error.Printf("storage: prune ancestors of %s: %v", p, err)
		}
	}
	return nil
}

func withHost(hostname string, addr net.Addr) string {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return net.JoinHostPort(hostname, port)
}
