// Package greeting implements the application-level greeting exchange as a
// handshaker. Both sides send a Greeting carrying application name, version
// and node identity, and reject peers with a foreign application or an
// incompatible major version.
package greeting

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Version is the three-component protocol version carried in a Greeting.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether the peer version can talk to v. Only the major
// component must match.
func (v Version) Compatible(peer Version) bool {
	return v.Major == peer.Major
}

// Greeting is the wire structure exchanged by the greeting handshaker.
// Strings are length-prefixed with a single byte, integers are big-endian.
type Greeting struct {
	AppName   string
	Version   Version
	NodeName  string
	Nonce     uint64
	Timestamp uint64
}

func (g *Greeting) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := writeU8String(w, g.AppName)
	total += n
	if err != nil {
		return total, errors.Wrap(err, "appName")
	}
	var vb [12]byte
	binary.BigEndian.PutUint32(vb[0:4], g.Version.Major)
	binary.BigEndian.PutUint32(vb[4:8], g.Version.Minor)
	binary.BigEndian.PutUint32(vb[8:12], g.Version.Patch)
	m, err := w.Write(vb[:])
	total += int64(m)
	if err != nil {
		return total, errors.Wrap(err, "version")
	}
	n, err = writeU8String(w, g.NodeName)
	total += n
	if err != nil {
		return total, errors.Wrap(err, "nodeName")
	}
	var ub [8]byte
	binary.BigEndian.PutUint64(ub[:], g.Nonce)
	m, err = w.Write(ub[:])
	total += int64(m)
	if err != nil {
		return total, errors.Wrap(err, "nonce")
	}
	binary.BigEndian.PutUint64(ub[:], g.Timestamp)
	m, err = w.Write(ub[:])
	total += int64(m)
	if err != nil {
		return total, errors.Wrap(err, "timestamp")
	}
	return total, nil
}

func (g *Greeting) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	s, n, err := readU8String(r)
	total += n
	if err != nil {
		return total, errors.Wrap(err, "appName")
	}
	g.AppName = s
	var vb [12]byte
	m, err := io.ReadFull(r, vb[:])
	total += int64(m)
	if err != nil {
		return total, errors.Wrap(err, "version")
	}
	g.Version.Major = binary.BigEndian.Uint32(vb[0:4])
	g.Version.Minor = binary.BigEndian.Uint32(vb[4:8])
	g.Version.Patch = binary.BigEndian.Uint32(vb[8:12])
	s, n, err = readU8String(r)
	total += n
	if err != nil {
		return total, errors.Wrap(err, "nodeName")
	}
	g.NodeName = s
	var ub [8]byte
	m, err = io.ReadFull(r, ub[:])
	total += int64(m)
	if err != nil {
		return total, errors.Wrap(err, "nonce")
	}
	g.Nonce = binary.BigEndian.Uint64(ub[:])
	m, err = io.ReadFull(r, ub[:])
	total += int64(m)
	if err != nil {
		return total, errors.Wrap(err, "timestamp")
	}
	g.Timestamp = binary.BigEndian.Uint64(ub[:])
	return total, nil
}

func writeU8String(w io.Writer, s string) (int64, error) {
	if len(s) > math.MaxUint8 {
		return 0, errors.Errorf("string is too long: %d bytes", len(s))
	}
	n, err := w.Write(append([]byte{byte(len(s))}, s...))
	return int64(n), err
}

func readU8String(r io.Reader) (string, int64, error) {
	var lb [1]byte
	n, err := io.ReadFull(r, lb[:])
	if err != nil {
		return "", int64(n), err
	}
	b := make([]byte, lb[0])
	m, err := io.ReadFull(r, b)
	if err != nil {
		return "", int64(n + m), err
	}
	return string(b), int64(n + m), nil
}
