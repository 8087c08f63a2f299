package storage

import (
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
)

// ReadService adapts a Server to net/rpc's calling convention under the
// service name "Read", matching rpcapi.Read.
type ReadService struct {
	*Server
}

// Size implements the "Read.Size" RPC method.
func (r ReadService) Size(args *rpcapi.SizeArgs, reply *rpcapi.SizeReply) error {
	size, err := r.Server.Size(args.Path)
	if err != nil {
		return err
	}
	reply.Size = size
	return nil
}

// Read implements the "Read.Read" RPC method.
func (r ReadService) Read(args *rpcapi.ReadArgs, reply *rpcapi.ReadReply) error {
	data, err := r.Server.Read(args.Path, args.Offset, args.Length)
	if err != nil {
		return err
	}
	reply.Data = data
	return nil
}

// Write implements the "Read.Write" RPC method. It lives on the
// client-facing Read service, not Command, so that a client can write
// through the same replica handle GetStorage gave it.
func (r ReadService) Write(args *rpcapi.WriteArgs, reply *rpcapi.WriteReply) error {
	return r.Server.Write(args.Path, args.Offset, args.Data)
}

// CommandService adapts a Server to net/rpc's calling convention under
// the service name "Command", matching rpcapi.Command.
type CommandService struct {
	*Server
}

// Create implements the "Command.Create" RPC method.
func (c CommandService) Create(args *rpcapi.PathArgs, reply *rpcapi.BoolReply) error {
	ok, err := c.Server.Create(args.Path)
	if err != nil {
		return err
	}
	reply.Ok = ok
	return nil
}

// Delete implements the "Command.Delete" RPC method.
func (c CommandService) Delete(args *rpcapi.PathArgs, reply *rpcapi.BoolReply) error {
	ok, err := c.Server.Delete(args.Path)
	if err != nil {
		return err
	}
	reply.Ok = ok
	return nil
}

// Copy implements the "Command.Copy" RPC method.
func (c CommandService) Copy(args *rpcapi.CopyArgs, reply *rpcapi.CopyReply) error {
	return c.Server.Copy(args.Path, args.SourceReadAddr)
}

var (
	_ rpcapi.Read    = ReadService{}
	_ rpcapi.Command = CommandService{}
)
