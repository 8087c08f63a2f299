// Command nameserver runs the distributed filesystem's naming server: the
// directory-tree metadata engine, path-lock manager, and storage
// registration/dedup handshake, exposed over the Service and Registration
// RPC interfaces.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"

	"github.com/rvsharma-cmu/DistributedFileSystem/config"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
	"github.com/rvsharma-cmu/DistributedFileSystem/naming"
	"github.com/rvsharma-cmu/DistributedFileSystem/rpc"
	"github.com/rvsharma-cmu/DistributedFileSystem/shutdown"
	"github.com/rvsharma-cmu/DistributedFileSystem/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print build version and exit")
	flags := config.RegisterNamingFlags(flag.CommandLine)
	flag.Parse()

	if *showVersion {
		fmt.Print(version.Version())
		return
	}

	if err := config.ApplyLogLevel(); err != nil {
		log.Error.Fatal(err)
	}

	tree := naming.NewTree(time.Now().UnixNano())
	registry := naming.NewRegistry()
	locker := naming.NewLocker(tree, registry, config.ReplicationThreshold, time.Now().UnixNano()+1)
	svc := naming.NewService(tree, locker, registry, time.Now().UnixNano()+2)

	serviceSrv, err := rpc.NewServer("Service", naming.ServiceRPC{Service: svc})
	if err != nil {
		log.Error.Fatal(err)
	}
	registrationSrv, err := rpc.NewServer("Registration", naming.RegistrationRPC{Service: svc})
	if err != nil {
		log.Error.Fatal(err)
	}
	shutdown.Handle(func() {
		log.Printf("nameserver: closing listeners")
		serviceSrv.Close()
		registrationSrv.Close()
	})

	if flags.StatusAddr != "" {
		go serveStatus(flags.StatusAddr, tree)
	}

	errc := make(chan error, 2)
	go func() { errc <- serviceSrv.ListenAndServe(fmt.Sprintf(":%d", flags.ServicePort)) }()
	go func() { errc <- registrationSrv.ListenAndServe(fmt.Sprintf(":%d", flags.RegistrationPort)) }()
	log.Printf("nameserver: service on :%d, registration on :%d", flags.ServicePort, flags.RegistrationPort)
	log.Error.Fatal(<-errc)
}

// serveStatus exposes a minimal, gzip-compressed status page that answers
// with a fixed "nameserver ok" line, useful as a liveness check during
// local test clusters. It reports nothing about the tree's contents.
func serveStatus(addr string, tree *naming.Tree) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "nameserver ok\n")
	})
	log.Error.Fatal(http.ListenAndServe(addr, gziphandler.GzipHandler(mux)))
}
