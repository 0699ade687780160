package escan

import "context"

// Connexion abstracts the byte-oriented transport a scanner command
// runs over. Both operations block until the requested number of bytes
// have been transferred, or return an error. Implementations own
// whatever USB bulk, serial, or network mechanism backs them; the
// command layer never reaches past this interface.
type Connexion interface {
	// Send writes all of buf, blocking until complete or ctx is done.
	Send(ctx context.Context, buf []byte) error
	// Recv reads exactly len(buf) bytes into buf, blocking until
	// complete or ctx is done.
	Recv(ctx context.Context, buf []byte) error
}

// sendRecvByte writes cmd and reads back a single reply byte, the shape
// of a setter handshake's command step.
func sendRecvByte(ctx context.Context, cnx Connexion, cmd []byte) (byte, error) {
	if err := cnx.Send(ctx, cmd); err != nil {
		return 0, err
	}
	var reply [1]byte
	if err := cnx.Recv(ctx, reply[:]); err != nil {
		return 0, err
	}
	return reply[0], nil
}
