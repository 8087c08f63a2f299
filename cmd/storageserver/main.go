// Command storageserver runs a distributed filesystem storage server: it
// exports one local directory over the Read and Command RPC interfaces
// and registers its file list with a naming server at startup.
package main

import (
	"flag"
	"fmt"

	"github.com/rvsharma-cmu/DistributedFileSystem/config"
	"github.com/rvsharma-cmu/DistributedFileSystem/log"
	"github.com/rvsharma-cmu/DistributedFileSystem/shutdown"
	"github.com/rvsharma-cmu/DistributedFileSystem/storage"
	"github.com/rvsharma-cmu/DistributedFileSystem/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print build version and exit")
	flags := config.RegisterStorageFlags(flag.CommandLine)
	flag.Parse()

	if *showVersion {
		fmt.Print(version.Version())
		return
	}

	if err := config.ApplyLogLevel(); err != nil {
		log.Error.Fatal(err)
	}
	if flags.Root == "" {
		log.Error.Fatal("storageserver: -root is required")
	}
	if flags.NamingAddr == "" {
		log.Error.Fatal("storageserver: -naming_addr is required")
	}

	server, err := storage.New(flags.Root)
	if err != nil {
		log.Error.Fatal(err)
	}

	readAddr := fmt.Sprintf(":%d", flags.ClientPort)
	commandAddr := fmt.Sprintf(":%d", flags.CommandPort)
	readSrv, cmdSrv, err := storage.Start(server, readAddr, commandAddr, flags.NamingAddr, flags.Hostname)
	if err != nil {
		log.Error.Fatal(err)
	}
	shutdown.Handle(func() {
		log.Printf("storageserver: closing listeners")
		readSrv.Close()
		cmdSrv.Close()
	})

	log.Printf("storageserver: read on %s, command on %s, root %s", readSrv.Addr(), cmdSrv.Addr(), server.Root())
	select {}
}
