package checker

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// socks4Dialer establishes TCP connections through a SOCKS4 proxy.
// SOCKS4 carries a raw IPv4 in the CONNECT request, so the target host is
// resolved locally before handshaking. userID fills the protocol's ident
// field; SOCKS4 has no password.
type socks4Dialer struct {
	proxyAddr string
	userID    string
}

const (
	socks4Version        = 0x04
	socks4CmdConnect     = 0x01
	socks4ReplyGranted   = 0x5a
	socks4ReplyRejected  = 0x5b
	socks4ReplyNoIdentd  = 0x5c
	socks4ReplyBadIdentd = 0x5d
)

func (d *socks4Dialer) DialContext(ctx context.Context, network, target string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, fmt.Errorf("socks4: unsupported network %q", network)
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return nil, fmt.Errorf("socks4: bad target %q: %w", target, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("socks4: bad target port %q", portStr)
	}

	ip4, err := resolveIPv4(ctx, host)
	if err != nil {
		return nil, err
	}

	conn, err := (&net.Dialer{KeepAlive: -1}).DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := d.handshake(conn, ip4, uint16(port)); err != nil {
		conn.Close()
		return nil, err
	}

	// Handshake done; the per-probe context keeps bounding the rest.
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

// handshake sends VN=4 CD=CONNECT DSTPORT DSTIP USERID NUL and expects a
// request-granted reply (0x5a).
func (d *socks4Dialer) handshake(conn net.Conn, ip4 net.IP, port uint16) error {
	req := make([]byte, 0, 9+len(d.userID))
	req = append(req, socks4Version, socks4CmdConnect)
	req = binary.BigEndian.AppendUint16(req, port)
	req = append(req, ip4...)
	req = append(req, d.userID...)
	req = append(req, 0x00)

	if _, err := conn.Write(req); err != nil {
		return fmt.Errorf("socks4: write request: %w", err)
	}

	// Reply: VN(0) CD DSTPORT DSTIP, 8 bytes.
	var reply [8]byte
	if _, err := io.ReadFull(conn, reply[:]); err != nil {
		return fmt.Errorf("socks4: read reply: %w", err)
	}

	switch reply[1] {
	case socks4ReplyGranted:
		return nil
	case socks4ReplyRejected:
		return errors.New("socks4: request rejected")
	case socks4ReplyNoIdentd, socks4ReplyBadIdentd:
		return errors.New("socks4: rejected by identd policy")
	default:
		return fmt.Errorf("socks4: unexpected reply code 0x%02x", reply[1])
	}
}

func resolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
		return nil, fmt.Errorf("socks4: %q is not an IPv4 address", host)
	}

	addrs, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, fmt.Errorf("socks4: resolve %q: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("socks4: no IPv4 address for %q", host)
	}
	return addrs[0].To4(), nil
}
