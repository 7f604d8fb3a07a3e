// Package proxy is the TCP forwarder deployed on the VPN host: it accepts
// connections on the listen address and pipes them byte-for-byte to the
// database behind the tunnel.
package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	dialTimeout  = 30 * time.Second
	probeTimeout = 5 * time.Second
)

type Proxy struct {
	listenAddr string
	targetAddr string
}

func New(listenAddr, targetAddr string) *Proxy {
	return &Proxy{listenAddr: listenAddr, targetAddr: targetAddr}
}

// CheckTarget verifies the database is reachable before the proxy starts
// accepting; a proxy in front of a dead target only hides the real problem.
func (p *Proxy) CheckTarget() error {
	conn, err := net.DialTimeout("tcp", p.targetAddr, probeTimeout)
	if err != nil {
		return fmt.Errorf("target %s unreachable: %w", p.targetAddr, err)
	}
	conn.Close()
	return nil
}

// ListenAndServe blocks in the accept loop. Each connection is served by its
// own goroutine.
func (p *Proxy) ListenAndServe() error {
	ln, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", p.listenAddr, err)
	}
	defer ln.Close()
	logrus.WithFields(logrus.Fields{
		"listen": p.listenAddr,
		"target": p.targetAddr,
	}).Info("proxy listening")
	return p.Serve(ln)
}

// Serve runs the accept loop on an already-open listener.
func (p *Proxy) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go p.handle(conn)
	}
}

// handle pipes one client connection to the target. When either side closes
// its leg, the other leg is torn down too.
func (p *Proxy) handle(client net.Conn) {
	defer client.Close()
	log := logrus.WithFields(logrus.Fields{"client": client.RemoteAddr().String()})
	log.Info("new connection")

	target, err := net.DialTimeout("tcp", p.targetAddr, dialTimeout)
	if err != nil {
		log.Errorf("connecting to target: %v", err)
		return
	}
	defer target.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go pipe(&wg, target, client, log, "client->target")
	go pipe(&wg, client, target, log, "target->client")
	wg.Wait()
	log.Info("connection closed")
}

func pipe(wg *sync.WaitGroup, dst, src net.Conn, log *logrus.Entry, direction string) {
	defer wg.Done()
	n, err := io.Copy(dst, src)
	log.WithFields(logrus.Fields{"bytes": n, "direction": direction}).Debug("leg finished")
	if err != nil && !isClosed(err) {
		log.Debugf("%s copy ended: %v", direction, err)
	}
	// Unblock the opposite leg's Copy.
	if c, ok := dst.(*net.TCPConn); ok {
		c.CloseWrite()
	} else {
		dst.Close()
	}
	if c, ok := src.(*net.TCPConn); ok {
		c.CloseRead()
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
