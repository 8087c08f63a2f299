package storage

import (
	"os"
	"testing"

	"github.com/rvsharma-cmu/DistributedFileSystem/errors"
	"github.com/rvsharma-cmu/DistributedFileSystem/path"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir, err := os.MkdirTemp("", "storage-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCreateAndDelete(t *testing.T) {
	s := newTestServer(t)
	p := path.MustParse("/a/b/c")

	ok, err := s.Create(p)
	if err != nil || !ok {
		t.Fatalf("Create() = %v, %v, want true, nil", ok, err)
	}
	ok, err = s.Create(p)
	if err != nil || ok {
		t.Fatalf("second Create() = %v, %v, want false, nil", ok, err)
	}

	size, err := s.Size(p)
	if err != nil || size != 0 {
		t.Fatalf("Size() = %v, %v, want 0, nil", size, err)
	}

	ok, err = s.Delete(p)
	if err != nil || !ok {
		t.Fatalf("Delete() = %v, %v, want true, nil", ok, err)
	}
	ok, err = s.Delete(p)
	if err != nil || ok {
		t.Fatalf("second Delete() = %v, %v, want false, nil", ok, err)
	}
}

func TestCreateRejectsRoot(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.Create(path.Root); !errors.Is(errors.IllegalArgument, err) {
		t.Fatalf("Create(root) error = %v, want IllegalArgument", err)
	}
}

func TestWriteZeroFillsGap(t *testing.T) {
	s := newTestServer(t)
	p := path.MustParse("/f")
	if _, err := s.Create(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(p, 10, []byte("hello")); err != nil {
		t.Fatal(err)
	}

	size, err := s.Size(p)
	if err != nil || size != 15 {
		t.Fatalf("Size() = %v, %v, want 15, nil", size, err)
	}
	data, err := s.Read(p, 0, 15)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if data[i] != 0 {
			t.Fatalf("data[%d] = %d, want 0", i, data[i])
		}
	}
	if string(data[10:]) != "hello" {
		t.Fatalf("data[10:] = %q, want hello", data[10:])
	}
}

func TestReadBounds(t *testing.T) {
	s := newTestServer(t)
	p := path.MustParse("/f")
	if _, err := s.Create(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(p, 0, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(p, 0, 10); !errors.Is(errors.Bounds, err) {
		t.Fatalf("Read past end error = %v, want Bounds", err)
	}
	if _, err := s.Read(p, -1, 1); !errors.Is(errors.Bounds, err) {
		t.Fatalf("Read negative offset error = %v, want Bounds", err)
	}
}

func TestReadNotFound(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.Read(path.MustParse("/missing"), 0, 0); !errors.Is(errors.NotFound, err) {
		t.Fatalf("Read missing error = %v, want NotFound", err)
	}
}

func TestDeleteDirectoryRecursive(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.Create(path.MustParse("/a/b/c")); err != nil {
		t.Fatal(err)
	}
	ok, err := s.Delete(path.MustParse("/a"))
	if err != nil || !ok {
		t.Fatalf("Delete(/a) = %v, %v, want true, nil", ok, err)
	}
	if _, err := s.Size(path.MustParse("/a/b/c")); !errors.Is(errors.NotFound, err) {
		t.Fatalf("Size(/a/b/c) after delete error = %v, want NotFound", err)
	}
}
