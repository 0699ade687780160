package escan

import (
	"context"
	"log/slog"
)

// Action is a device mover/shaker command: a one- or two-byte request
// answered by a single ACK/NAK reply byte. It is an ordinary record, not
// a class in a hierarchy; ReplyPolicy lets a handful of commands
// (capture-scanner, release-scanner) override the default ACK/NAK table
// without subclassing.
type Action struct {
	Command []byte
	// SilentOnIdle marks commands (abort-scan, end-of-transmission)
	// that may receive no reply at all when sent to a device that is
	// not actively scanning; a short read in that state is not an
	// error for these commands.
	SilentOnIdle bool
	// ReplyPolicy, when set, overrides the default ACK->success,
	// NAK->invalid-command, other->unknown-reply table.
	ReplyPolicy func(reply byte) error
}

var (
	// AbortScan requests the device stop scanning immediately,
	// discarding any buffered data.
	AbortScan = Action{Command: []byte{CAN}, SilentOnIdle: true}
	// EndOfTransmission requests the device stop sending image data at
	// the next end-of-medium condition.
	EndOfTransmission = Action{Command: []byte{EOT}, SilentOnIdle: true}
	// EjectMedia removes media from an activated automatic document
	// feeder.
	EjectMedia = Action{Command: []byte{FF}}
	// LoadMedia prepares the next sheet on a page-type ADF unit.
	LoadMedia = Action{Command: []byte{PF}}
	// CancelWarmingUp interrupts the lamp's warm-up process.
	CancelWarmingUp = Action{Command: []byte{ESC, lowerW}}
	// CaptureScanner acquires exclusive access to the device.
	CaptureScanner = Action{Command: []byte{ESC, 'S'}, ReplyPolicy: captureReplyPolicy}
	// ReleaseScanner releases exclusive access acquired by
	// CaptureScanner.
	ReleaseScanner = Action{Command: []byte{ESC, 'R'}, ReplyPolicy: releaseReplyPolicy}
	// Initialize resets most scan settings to model-specific defaults.
	// Uploaded gamma tables, color matrices, and dither patterns are
	// not cleared, only their active selection reverts to default;
	// focus position and last-detected media size are untouched.
	Initialize = Action{Command: []byte{ESC, '@'}}
)

func defaultReplyPolicy(cmd []byte) func(byte) error {
	return func(reply byte) error {
		switch reply {
		case ACK:
			return nil
		case NAK:
			return &InvalidCommandError{Command: cmd}
		default:
			return &UnknownReplyError{Command: cmd, Reply: reply}
		}
	}
}

func captureReplyPolicy(reply byte) error {
	switch reply {
	case 0x80:
		return nil
	case 0x40:
		return &DeviceBusyError{}
	case NAK:
		return &InvalidCommandError{Command: []byte{ESC, 'S'}}
	default:
		return &UnknownReplyError{Command: []byte{ESC, 'S'}, Reply: reply}
	}
}

func releaseReplyPolicy(reply byte) error {
	switch reply {
	case 0x80:
		return nil
	case NAK:
		return &InvalidCommandError{Command: []byte{ESC, 'R'}}
	default:
		return &UnknownReplyError{Command: []byte{ESC, 'R'}, Reply: reply}
	}
}

// Run sends the action's command and validates the reply against its
// policy. For SilentOnIdle commands, a Recv failure is swallowed and
// treated as success: the device simply had nothing to say.
func (a Action) Run(ctx context.Context, cnx Connexion) error {
	if err := cnx.Send(ctx, a.Command); err != nil {
		return err
	}
	var reply [1]byte
	if err := cnx.Recv(ctx, reply[:]); err != nil {
		if a.SilentOnIdle {
			slog.Debug("action command drew no reply, treated as idle", "command", a.Command)
			return nil
		}
		return err
	}
	policy := a.ReplyPolicy
	if policy == nil {
		policy = defaultReplyPolicy(a.Command)
	}
	return policy(reply[0])
}
