package naming

import (
	"os"
	"testing"
	"time"

	rpctransport "github.com/rvsharma-cmu/DistributedFileSystem/rpc"
	"github.com/rvsharma-cmu/DistributedFileSystem/storage"
)

// testStorageServer starts a real storage.Server behind its own Read and
// Command net/rpc listeners on ephemeral loopback ports, returning its
// addresses. Scenario tests exercise the naming service against real TCP
// connections rather than in-process mocks, so a lock-manager bug that
// only shows up across an RPC boundary (gob encoding, connection
// teardown) is caught the same way it would be in a running cluster.
func testStorageServer(t *testing.T) (readAddr, commandAddr string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "naming-test-storage")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	st, err := storage.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	readSrv, err := rpctransport.NewServer("Read", storage.ReadService{Server: st})
	if err != nil {
		t.Fatal(err)
	}
	cmdSrv, err := rpctransport.NewServer("Command", storage.CommandService{Server: st})
	if err != nil {
		t.Fatal(err)
	}

	readReady := make(chan string, 1)
	cmdReady := make(chan string, 1)
	go serveAndReport(readSrv, readReady)
	go serveAndReport(cmdSrv, cmdReady)

	readAddr = <-readReady
	commandAddr = <-cmdReady
	t.Cleanup(func() { readSrv.Close(); cmdSrv.Close() })
	return readAddr, commandAddr
}

// serveAndReport binds srv to an ephemeral loopback port and reports its
// address once bound. ListenAndServe does not return while it serves, so
// a helper goroutine polls Addr briefly until the listener is bound.
func serveAndReport(srv *rpctransport.Server, ready chan<- string) {
	go func() {
		for i := 0; i < 100; i++ {
			if a := srv.Addr(); a != nil {
				ready <- a.String()
				return
			}
			time.Sleep(time.Millisecond)
		}
		ready <- ""
	}()
	if err := srv.ListenAndServe("127.0.0.1:0"); err != nil {
		// Expected once the test closes the listener during cleanup.
		_ = err
	}
}

// newTestService wires a fresh in-memory naming.Service with a
// replication threshold high enough that scenario tests never trigger
// background replication as a side effect.
func newTestService(t *testing.T) *Service {
	t.Helper()
	tree := NewTree(1)
	registry := NewRegistry()
	locker := NewLocker(tree, registry, 1000000, 1)
	return NewService(tree, locker, registry, 1)
}
