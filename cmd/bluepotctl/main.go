// Command bluepotctl is a standalone client for bluepotd's command
// surface (spec.md §4.F): it dials the daemon's command socket, sends
// one command line, prints the first line of the response, and exits.
// Multi-line replies, such as H's help text, are cut to that line.
//
// Grounded on tnctest's net.Dial("tcp4", ...) client pattern, cut down
// to a single request/response exchange instead of a persistent
// connected-mode session.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:6400", "bluepotd command socket address.")
	pflag.Parse()

	if len(pflag.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "usage: bluepotctl [-a addr] <command>")
		fmt.Fprintln(os.Stderr, `examples: bluepotctl D            bluepotctl "D=5"            bluepotctl L`)
		os.Exit(1)
	}

	cmd := strings.Join(pflag.Args(), " ")

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bluepotctl: dial %s: %s\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "%s\n", cmd)

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "bluepotctl: read reply: %s\n", err)
		os.Exit(1)
	}
	fmt.Print(reply)
}
