// Package transport provides concrete escan.Connexion implementations.
package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	serial "github.com/daedaluz/goserial"
)

// SerialConnexion speaks the scanner wire protocol over a raw serial
// device, opened in 8N1 raw mode with no local echo or line
// processing, matching the byte-exact framing the command dispatchers
// expect.
type SerialConnexion struct {
	port *serial.Port
}

// OpenSerial opens path, puts it into raw mode, and applies baud.
func OpenSerial(path string, baud uint32) (*SerialConnexion, error) {
	port, err := serial.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("escan/transport: open %s: %w", path, err)
	}
	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, fmt.Errorf("escan/transport: set raw mode: %w", err)
	}
	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("escan/transport: get attrs: %w", err)
	}
	attrs.SetSpeed(baudFlag(baud))
	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("escan/transport: set speed: %w", err)
	}
	return &SerialConnexion{port: port}, nil
}

func baudFlag(baud uint32) serial.CFlag {
	switch baud {
	case 9600:
		return serial.B9600
	case 19200:
		return serial.B19200
	case 38400:
		return serial.B38400
	case 57600:
		return serial.B57600
	case 230400:
		return serial.B230400
	default:
		return serial.B115200
	}
}

// Close closes the underlying device.
func (c *SerialConnexion) Close() error { return c.port.Close() }

// Send writes all of buf. It applies ctx's deadline as the port's read
// timeout; the write itself is not bounded by the deadline.
func (c *SerialConnexion) Send(ctx context.Context, buf []byte) error {
	c.applyDeadline(ctx)
	_, err := writeFull(c.port, buf)
	return err
}

// Recv reads exactly len(buf) bytes into buf, honoring ctx's deadline.
func (c *SerialConnexion) Recv(ctx context.Context, buf []byte) error {
	c.applyDeadline(ctx)
	_, err := io.ReadFull(readerFunc(c.port.Read), buf)
	return err
}

func (c *SerialConnexion) applyDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		c.port.SetReadTimeout(time.Until(deadline))
		return
	}
	c.port.SetReadTimeout(-1)
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func writeFull(w io.Writer, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := w.Write(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
