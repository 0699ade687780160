package escan

import "context"

// Setter is a scan-parameter modifier: send command bytes, read one
// reply byte (command accepted?), send the parameter block, read one
// reply byte (parameters accepted?). The two outcomes are reported
// separately so a caller can distinguish a rejected command from
// rejected parameters.
type Setter struct {
	Command []byte
	Data    []byte
}

// Run executes the setter handshake described above.
func (s *Setter) Run(ctx context.Context, cnx Connexion) error {
	reply, err := sendRecvByte(ctx, cnx, s.Command)
	if err != nil {
		return err
	}
	switch reply {
	case ACK:
		// continue
	case NAK:
		return &InvalidCommandError{Command: s.Command}
	default:
		return &UnknownReplyError{Command: s.Command, Reply: reply}
	}

	if err := cnx.Send(ctx, s.Data); err != nil {
		return err
	}
	var dataReply [1]byte
	if err := cnx.Recv(ctx, dataReply[:]); err != nil {
		return err
	}
	switch dataReply[0] {
	case ACK:
		return nil
	case NAK:
		return &InvalidParameterError{Command: s.Command}
	default:
		return &UnknownReplyError{Command: s.Command, Reply: dataReply[0]}
	}
}
