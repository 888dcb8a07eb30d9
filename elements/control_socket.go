// Copyright 2026 ClickRT Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elements

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/clickrt/clickrt/element"
)

// ControlSocket exposes the router's handler namespace over a
// line-oriented TCP or UNIX stream protocol: `READ element.handler`,
// `WRITE element.handler payload`, `LLRPC ...`, answered with
// `200 OK\n<payload>` or `5xx <message>\n`. It has no input or output
// ports; from the router's point of view it is a background task that
// never stops rescheduling itself while the listener is open.
type ControlSocket struct {
	element.Skeleton

	network string // "tcp" or "unix"
	address string

	ln   net.Listener
	task element.Task
}

func init() {
	element.Register("ControlSocket", func() element.Base { return &ControlSocket{} })
}

func (c *ControlSocket) PortCounts() (int, int, int, int) { return 0, 0, 0, 0 }
func (c *ControlSocket) Processing() element.Direction    { return element.Push }

// Configure accepts either a bare TCP port ("ControlSocket(1234)") or an
// explicit "unix PATH" pair (`ControlSocket(unix, "/run/click.sock")`),
// matching the CLI surface's --port/--unix-socket auto-instantiation.
func (c *ControlSocket) Configure(args string) error {
	positional, _ := parseArgs(args)
	if len(positional) == 0 {
		return errMissingArg("ControlSocket", "PORT or unix,PATH")
	}
	if strings.EqualFold(positional[0], "unix") {
		if len(positional) < 2 {
			return errMissingArg("ControlSocket", "unix socket PATH")
		}
		c.network, c.address = "unix", positional[1]
		return nil
	}
	if _, err := strconv.Atoi(positional[0]); err != nil {
		return fmt.Errorf("ControlSocket: bad port %q: %w", positional[0], err)
	}
	c.network, c.address = "tcp", ":"+positional[0]
	return nil
}

func (c *ControlSocket) Initialize() error {
	ln, err := net.Listen(c.network, c.address)
	if err != nil {
		return err
	}
	c.ln = ln
	c.task = c.Router.NewTask(c)
	c.task.Reschedule()
	return nil
}

func (c *ControlSocket) Cleanup(element.Stage) {
	if c.ln != nil {
		c.ln.Close()
	}
}

// Addr returns the listener's bound address, useful when PORT was given
// as 0 to request an OS-assigned ephemeral port.
func (c *ControlSocket) Addr() net.Addr { return c.ln.Addr() }

// RunTask waits up to 10ms for one connection per invocation, services it
// in its own goroutine, and reports work done so the task stays runnable
// for the next one. The accept deadline keeps the driver thread from
// blocking on a listener with no pending connections; a closed or failed
// listener parks the task.
func (c *ControlSocket) RunTask() bool {
	if dl, ok := c.ln.(interface{ SetDeadline(time.Time) error }); ok {
		dl.SetDeadline(time.Now().Add(10 * time.Millisecond))
	}
	conn, err := c.ln.Accept()
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return true
		}
		return false
	}
	go c.serve(conn)
	return true
}

func (c *ControlSocket) serve(conn net.Conn) {
	defer conn.Close()
	fmt.Fprintf(conn, "200 clickrt ControlSocket ready\n")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 3)
		switch strings.ToUpper(fields[0]) {
		case "READ":
			c.handleRead(conn, fields)
		case "WRITE":
			c.handleWrite(conn, fields)
		case "LLRPC":
			fmt.Fprintf(conn, "500 LLRPC not supported\n")
		case "QUIT":
			return
		default:
			fmt.Fprintf(conn, "500 unknown command %q\n", fields[0])
		}
	}
}

func (c *ControlSocket) handleRead(conn net.Conn, fields []string) {
	if len(fields) < 2 {
		fmt.Fprintf(conn, "500 READ requires a handler name\n")
		return
	}
	value, err := c.Router.ReadHandler(fields[1])
	if err != nil {
		fmt.Fprintf(conn, "500 %s\n", err)
		return
	}
	fmt.Fprintf(conn, "200 OK\n%s", value)
}

func (c *ControlSocket) handleWrite(conn net.Conn, fields []string) {
	if len(fields) < 2 {
		fmt.Fprintf(conn, "500 WRITE requires a handler name\n")
		return
	}
	payload := ""
	if len(fields) == 3 {
		payload = fields[2]
	}
	if err := c.Router.WriteHandler(fields[1], payload); err != nil {
		fmt.Fprintf(conn, "500 %s\n", err)
		return
	}
	fmt.Fprintf(conn, "200 OK\n")
}
