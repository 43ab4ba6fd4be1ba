// Command tcplistener prints what the server would see for each request:
// the framed header block, the parsed request line, the headers and the
// path the target resolves to. Each request gets a short plain-text reply;
// the file itself is never read.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"

	"github.com/Brownie44l1/fileserve/internal/request"
	"github.com/Brownie44l1/fileserve/internal/response"
	"github.com/Brownie44l1/fileserve/internal/static"
)

func main() {
	port := flag.Uint("port", 42069, "port to listen on")
	dir := flag.String("dir", ".", "document root used to show resolved paths")
	index := flag.String("index", "index.html", "index file used to show resolved paths")
	flag.Parse()

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	fmt.Printf("Listening on %s...\n", addr)

	resolver := static.NewResolver(*dir, *index)
	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Println("Accept error:", err)
			continue
		}

		go handleConnection(conn, resolver)
	}
}

func handleConnection(conn net.Conn, resolver static.Resolver) {
	defer conn.Close()

	block, err := request.ReadHeaderBlock(conn, 0)
	if err != nil {
		fmt.Println("failed to read header block:", err)
		return
	}
	fmt.Printf("Header block (%d bytes)\n%q\n", len(block), block)

	req, err := request.Parse(block)
	if err != nil {
		fmt.Println("Parse error:", err)
		response.Error(response.StatusBadRequest, err.Error()).WriteTo(conn)
		return
	}

	fmt.Println("Request Line")
	fmt.Printf("Method: %s\n", req.Method())
	fmt.Printf("Target: %s\n", req.Target())
	fmt.Printf("Version: %s\n", req.RequestLine.Version)
	fmt.Println("Headers")
	req.Headers.Each(func(name, value string) {
		fmt.Printf("%s: %s\n", name, value)
	})
	if req.MalformedHeaders > 0 {
		fmt.Printf("(%d malformed header lines skipped)\n", req.MalformedHeaders)
	}

	path := resolver.Resolve(req.Target())
	fmt.Printf("Resolved path: %s\n", path)
	fmt.Printf("Content type: %s\n", static.ContentType(path))

	body := fmt.Sprintf("target %s resolves to %s\n", req.Target(), path)
	response.OK("text/plain", []byte(body)).WriteTo(conn)
}
