package proxy

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"
)

// startEcho runs a line-echo server and returns its address.
func startEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				scanner := bufio.NewScanner(c)
				for scanner.Scan() {
					fmt.Fprintf(c, "echo:%s\n", scanner.Text())
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

// startProxy serves the proxy on an ephemeral port and returns its address.
func startProxy(t *testing.T, target string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	p := New(ln.Addr().String(), target)
	go p.Serve(ln)
	return ln.Addr().String()
}

func TestProxyForwardsBothDirections(t *testing.T) {
	target := startEcho(t)
	addr := startProxy(t, target)

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dialing proxy: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)
	for _, msg := range []string{"SELECT 1", "SELECT 2"} {
		if _, err := fmt.Fprintf(conn, "%s\n", msg); err != nil {
			t.Fatalf("write: %v", err)
		}
		reply, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if want := "echo:" + msg + "\n"; reply != want {
			t.Errorf("reply = %q, want %q", reply, want)
		}
	}
}

func TestProxyConcurrentConnections(t *testing.T) {
	target := startEcho(t)
	addr := startProxy(t, target)

	done := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func(i int) {
			conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
			if err != nil {
				done <- err
				return
			}
			defer conn.Close()
			conn.SetDeadline(time.Now().Add(5 * time.Second))
			msg := fmt.Sprintf("conn-%d", i)
			fmt.Fprintf(conn, "%s\n", msg)
			reply, err := bufio.NewReader(conn).ReadString('\n')
			if err != nil {
				done <- err
				return
			}
			if !strings.Contains(reply, msg) {
				done <- fmt.Errorf("reply %q missing %q", reply, msg)
				return
			}
			done <- nil
		}(i)
	}
	for i := 0; i < 3; i++ {
		if err := <-done; err != nil {
			t.Errorf("connection %d: %v", i, err)
		}
	}
}

func TestCheckTarget(t *testing.T) {
	target := startEcho(t)
	if err := New("127.0.0.1:0", target).CheckTarget(); err != nil {
		t.Errorf("CheckTarget against live target: %v", err)
	}

	// A listener closed immediately leaves a port nothing accepts on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	dead := ln.Addr().String()
	ln.Close()
	if err := New("127.0.0.1:0", dead).CheckTarget(); err == nil {
		t.Error("CheckTarget should fail for unreachable target")
	}
}
