package naming

import (
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
)

// ServiceRPC adapts a Service to net/rpc's calling convention under the
// service name "Service", matching rpcapi.Service.
type ServiceRPC struct {
	*Service
}

// IsDirectory implements the "Service.IsDirectory" RPC method.
func (s ServiceRPC) IsDirectory(args *rpcapi.PathArgs, reply *rpcapi.BoolReply) error {
	ok, err := s.Service.IsDirectory(args.Path)
	if err != nil {
		return err
	}
	reply.Ok = ok
	return nil
}

// List implements the "Service.List" RPC method.
func (s ServiceRPC) List(args *rpcapi.PathArgs, reply *rpcapi.StringsReply) error {
	names, err := s.Service.List(args.Path)
	if err != nil {
		return err
	}
	reply.Values = names
	return nil
}

// CreateFile implements the "Service.CreateFile" RPC method.
func (s ServiceRPC) CreateFile(args *rpcapi.PathArgs, reply *rpcapi.BoolReply) error {
	ok, err := s.Service.CreateFile(args.Path)
	if err != nil {
		return err
	}
	reply.Ok = ok
	return nil
}

// CreateDirectory implements the "Service.CreateDirectory" RPC method.
func (s ServiceRPC) CreateDirectory(args *rpcapi.PathArgs, reply *rpcapi.BoolReply) error {
	ok, err := s.Service.CreateDirectory(args.Path)
	if err != nil {
		return err
	}
	reply.Ok = ok
	return nil
}

// Delete implements the "Service.Delete" RPC method.
func (s ServiceRPC) Delete(args *rpcapi.PathArgs, reply *rpcapi.BoolReply) error {
	ok, err := s.Service.Delete(args.Path)
	if err != nil {
		return err
	}
	reply.Ok = ok
	return nil
}

// GetStorage implements the "Service.GetStorage" RPC method.
func (s ServiceRPC) GetStorage(args *rpcapi.GetStorageArgs, reply *rpcapi.GetStorageReply) error {
	addr, err := s.Service.GetStorage(args.Path)
	if err != nil {
		return err
	}
	reply.ReadAddr = addr
	return nil
}

// RegistrationRPC adapts a Service to net/rpc's calling convention under
// the service name "Registration", matching rpcapi.Registration.
type RegistrationRPC struct {
	*Service
}

// Register implements the "Registration.Register" RPC method.
func (r RegistrationRPC) Register(args *rpcapi.RegisterArgs, reply *rpcapi.RegisterReply) error {
	duplicates, err := r.Service.Register(args.ReadAddr, args.CommandAddr, args.Paths)
	if err != nil {
		return err
	}
	reply.Duplicates = duplicates
	return nil
}

var (
	_ rpcapi.Service      = ServiceRPC{}
	_ rpcapi.Registration = RegistrationRPC{}
)
