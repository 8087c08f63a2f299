package naming

import (
	"testing"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
	rpctransport "github.com/rvsharma-cmu/DistributedFileSystem/rpc"
	"github.com/rvsharma-cmu/DistributedFileSystem/rpcapi"
)

// TestScenarioS1 mirrors the spec's literal end-to-end scenario: create
// /a/b/c and check the resulting directory structure.
func TestScenarioS1(t *testing.T) {
	svc := newTestService(t)
	readAddr, commandAddr := testStorageServer(t)
	if err := svc.registry.Add(Replica{ReadAddr: readAddr, CommandAddr: commandAddr}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CreateDirectory(path.MustParse("/a")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateDirectory(path.MustParse("/a/b")); err != nil {
		t.Fatal(err)
	}
	ok, err := svc.CreateFile(path.MustParse("/a/b/c"))
	if err != nil || !ok {
		t.Fatalf("CreateFile(/a/b/c) = %v, %v, want true, nil", ok, err)
	}

	rootNames, err := svc.List(path.Root)
	if err != nil || len(rootNames) != 1 || rootNames[0] != "a" {
		t.Fatalf("List(/) = %v, %v, want [a]", rootNames, err)
	}
	aNames, err := svc.List(path.MustParse("/a"))
	if err != nil || len(aNames) != 1 || aNames[0] != "b" {
		t.Fatalf("List(/a) = %v, %v, want [b]", aNames, err)
	}
	isDir, err := svc.IsDirectory(path.MustParse("/a/b"))
	if err != nil || !isDir {
		t.Fatalf("IsDirectory(/a/b) = %v, %v, want true, nil", isDir, err)
	}
	isDir, err = svc.IsDirectory(path.MustParse("/a/b/c"))
	if err != nil || isDir {
		t.Fatalf("IsDirectory(/a/b/c) = %v, %v, want false, nil", isDir, err)
	}
}

// TestScenarioS2 mirrors the spec's registration-dedup scenario: two
// storage servers register overlapping lists and the second's overlap is
// returned as duplicates.
func TestScenarioS2(t *testing.T) {
	svc := newTestService(t)
	r1, c1 := testStorageServer(t)
	r2, c2 := testStorageServer(t)

	dup1, err := svc.Register(r1, c1, []path.Path{path.MustParse("/x"), path.MustParse("/y")})
	if err != nil || len(dup1) != 0 {
		t.Fatalf("first Register duplicates = %v, %v, want none", dup1, err)
	}
	dup2, err := svc.Register(r2, c2, []path.Path{path.MustParse("/y"), path.MustParse("/z")})
	if err != nil || len(dup2) != 1 || dup2[0].String() != "/y" {
		t.Fatalf("second Register duplicates = %v, %v, want [/y]", dup2, err)
	}

	for _, p := range []string{"/x", "/y", "/z"} {
		if !svc.tree.Exists(path.MustParse(p)) {
			t.Fatalf("%s should exist in the tree", p)
		}
	}
	replicas, err := svc.tree.ReplicasOf(path.MustParse("/y"))
	if err != nil || len(replicas) != 1 || replicas[0].ReadAddr != r1 {
		t.Fatalf("ReplicasOf(/y) = %v, %v, want exactly the first server", replicas, err)
	}
}

// TestScenarioS3 mirrors the spec's empty-registry scenario.
func TestScenarioS3(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.CreateFile(path.MustParse("/f")); !errors.Is(errors.IllegalState, err) {
		t.Fatalf("CreateFile with empty registry error = %v, want IllegalState", err)
	}

	readAddr, commandAddr := testStorageServer(t)
	if err := svc.registry.Add(Replica{ReadAddr: readAddr, CommandAddr: commandAddr}); err != nil {
		t.Fatal(err)
	}
	ok, err := svc.CreateFile(path.MustParse("/f"))
	if err != nil || !ok {
		t.Fatalf("CreateFile after registration = %v, %v, want true, nil", ok, err)
	}
}

// TestScenarioS6 mirrors the spec's recursive-delete scenario.
func TestScenarioS6(t *testing.T) {
	svc := newTestService(t)
	readAddr, commandAddr := testStorageServer(t)
	if err := svc.registry.Add(Replica{ReadAddr: readAddr, CommandAddr: commandAddr}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.CreateDirectory(path.MustParse("/a")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateDirectory(path.MustParse("/a/b")); err != nil {
		t.Fatal(err)
	}
	if ok, err := svc.CreateFile(path.MustParse("/a/b/c")); err != nil || !ok {
		t.Fatalf("CreateFile(/a/b/c) = %v, %v", ok, err)
	}

	ok, err := svc.Delete(path.MustParse("/a"))
	if err != nil || !ok {
		t.Fatalf("Delete(/a) = %v, %v, want true, nil", ok, err)
	}
	names, err := svc.List(path.Root)
	if err != nil || len(names) != 0 {
		t.Fatalf("List(/) after delete = %v, %v, want empty", names, err)
	}
}

// TestGetStorageAfterCreateFile mirrors testable property 9: after
// CreateFile returns true, GetStorage names a server that can serve the
// file.
func TestGetStorageAfterCreateFile(t *testing.T) {
	svc := newTestService(t)
	readAddr, commandAddr := testStorageServer(t)
	if err := svc.registry.Add(Replica{ReadAddr: readAddr, CommandAddr: commandAddr}); err != nil {
		t.Fatal(err)
	}

	if ok, err := svc.CreateFile(path.MustParse("/f")); err != nil || !ok {
		t.Fatalf("CreateFile(/f) = %v, %v", ok, err)
	}
	addr, err := svc.GetStorage(path.MustParse("/f"))
	if err != nil || addr != readAddr {
		t.Fatalf("GetStorage(/f) = %q, %v, want %q, nil", addr, err, readAddr)
	}

	client, err := rpctransport.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	var reply rpcapi.ReadReply
	args := &rpcapi.ReadArgs{Path: path.MustParse("/f"), Offset: 0, Length: 0}
	if err := client.Call("Read.Read", args, &reply); err != nil {
		t.Fatalf("read(/f,0,0) on the named server failed: %v", err)
	}
}

// TestConcurrentCreateFileExactlyOneWins covers testable property 7.
func TestConcurrentCreateFileExactlyOneWins(t *testing.T) {
	svc := newTestService(t)
	readAddr, commandAddr := testStorageServer(t)
	if err := svc.registry.Add(Replica{ReadAddr: readAddr, CommandAddr: commandAddr}); err != nil {
		t.Fatal(err)
	}

	const n = 10
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			ok, err := svc.CreateFile(path.MustParse("/race"))
			if err != nil {
				results <- false
				return
			}
			results <- ok
		}()
	}
	trueCount := 0
	for i := 0; i < n; i++ {
		if <-results {
			trueCount++
		}
	}
	if trueCount != 1 {
		t.Fatalf("concurrent CreateFile successes = %d, want exactly 1", trueCount)
	}
}
