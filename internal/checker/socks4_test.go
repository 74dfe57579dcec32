package checker

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/model"
)

// fakeSOCKS4 accepts one connection, performs the SOCKS4 CONNECT exchange
// and then answers the tunneled HTTP request itself.
func fakeSOCKS4(t *testing.T, grant bool, body string) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		// VN CD DSTPORT DSTIP + empty USERID + NUL = 9 bytes.
		req := make([]byte, 9)
		if _, err := io.ReadFull(conn, req); err != nil {
			t.Errorf("read socks4 request: %v", err)
			return
		}
		if req[0] != 0x04 || req[1] != 0x01 {
			t.Errorf("bad socks4 request header: % x", req[:2])
			return
		}
		if got := binary.BigEndian.Uint16(req[2:4]); got != 80 {
			t.Errorf("bad destination port: %d", got)
		}

		if !grant {
			_, _ = conn.Write([]byte{0x00, 0x5b, 0, 0, 0, 0, 0, 0})
			return
		}
		if _, err := conn.Write([]byte{0x00, 0x5a, 0, 0, 0, 0, 0, 0}); err != nil {
			return
		}

		// Consume the tunneled HTTP request, then answer it.
		br := bufio.NewReader(conn)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		fmt.Fprintf(conn, "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
			len(body), body)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestProbe_ThroughSOCKS4Proxy(t *testing.T) {
	host, port := fakeSOCKS4(t, true,
		`{"status":"success","query":"7.7.7.7","country":"Netherlands","city":"Amsterdam"}`)

	c := New(Options{
		// IPv4 literal: SOCKS4 carries a raw address, no DNS involved.
		TestURL: "http://203.0.113.10/json/",
		Timeout: 3 * time.Second,
		Logger:  quietLogger(),
	})
	addr := model.ProxyAddress{Scheme: "socks4", Host: host, Port: port, Raw: "socks4://probe"}

	out := c.Probe(context.Background(), addr, 0)

	if out.Status != model.StatusWorking {
		t.Fatalf("want working, got %#v", out)
	}
	if out.IPAddress != "7.7.7.7" || out.Country != "Netherlands" {
		t.Fatalf("bad geo: %#v", out)
	}
}

func TestProbe_SOCKS4Rejected(t *testing.T) {
	host, port := fakeSOCKS4(t, false, "")

	c := New(Options{
		TestURL: "http://203.0.113.10/json/",
		Timeout: 3 * time.Second,
		Logger:  quietLogger(),
	})
	addr := model.ProxyAddress{Scheme: "socks4", Host: host, Port: port, Raw: "socks4://probe"}

	out := c.Probe(context.Background(), addr, 0)

	if out.Status != model.StatusFailed {
		t.Fatalf("want failed, got %#v", out)
	}
	if !strings.Contains(out.Error, "rejected") {
		t.Fatalf("unexpected error: %q", out.Error)
	}
}
