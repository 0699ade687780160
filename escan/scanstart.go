package escan

import (
	"context"
	"log/slog"
)

// Chunk is one piece of image data pulled off an in-progress scan. A
// zero-value Chunk (Data == nil) signals that acquisition is complete.
type Chunk struct {
	Data []byte
}

func (c Chunk) empty() bool { return c.Data == nil }

// reservedErrorCodeBits are always clear in a well-behaved reply; any
// set bit here is scrubbed and, in pedantic mode, logged rather than
// raised.
const reservedErrorCodeBits byte = 0x0f

// ExtendedScan drives the FS-prefixed start-extended-scan handshake:
// an initial 14-byte information block describing how many
// fixed-size chunks remain (plus one final, variously-sized chunk),
// then repeated chunk fetches each carrying a trailing error-code
// byte that reports fatal errors, readiness, page-end and device-side
// cancellation in band with the image data.
type ExtendedScan struct {
	Pedantic       bool
	ErrorCodeMask  byte

	cnx Connexion

	blk       [14]byte
	errorCode byte

	chunkCount uint32
	finalBytes uint32

	doCancel  bool
	doAtEnd   bool
	cancelled bool
}

// NewExtendedScan returns a scan iterator with the default error-code
// mask (every documented bit honored, only the four reserved low bits
// ignored).
func NewExtendedScan(pedantic bool) *ExtendedScan {
	return &ExtendedScan{Pedantic: pedantic, ErrorCodeMask: ^reservedErrorCodeBits}
}

// Start sends start-extended-scan and reads the initial information
// block. Call Next repeatedly afterward until it returns a done
// result.
func (s *ExtendedScan) Start(ctx context.Context, cnx Connexion) error {
	s.cnx = cnx
	s.cancelled = false
	s.doCancel = false
	s.doAtEnd = false

	if err := cnx.Send(ctx, []byte{FS, upperG}); err != nil {
		return err
	}
	if err := cnx.Recv(ctx, s.blk[:]); err != nil {
		return err
	}
	if s.blk[0] != STX {
		return &UnknownReplyError{Command: []byte{FS, upperG}, Reply: s.blk[0]}
	}
	if s.Pedantic {
		checkReservedBits(s.blk[:], 1, 0xd2)
	}

	if s.detectedFatalError() || !s.isReady() {
		for i := 2; i < len(s.blk); i++ {
			s.blk[i] = 0
		}
	}

	s.chunkCount = decode32(s.blk[6:10])
	s.finalBytes = decode32(s.blk[10:14])
	return nil
}

// DetectedFatalError reports whether the device or the most recent
// chunk's error-code byte signaled a fatal condition.
func (s *ExtendedScan) DetectedFatalError() bool { return s.detectedFatalError() }

func (s *ExtendedScan) detectedFatalError() bool {
	return s.errorCode&0x80 != 0 || s.blk[1]&0x80 != 0
}

// IsReady reports whether the device remains able to serve further
// image data.
func (s *ExtendedScan) IsReady() bool { return s.isReady() }

func (s *ExtendedScan) isReady() bool {
	return s.errorCode&0x40 == 0 && s.blk[1]&0x40 == 0
}

// IsAtPageEnd reports whether the device detected the end of a page
// during the current scan.
func (s *ExtendedScan) IsAtPageEnd() bool { return s.errorCode&0x20 != 0 }

// IsCancelRequested reports whether the device itself requested
// cancellation (typically a hardware cancel button on a multi-function
// unit).
func (s *ExtendedScan) IsCancelRequested() bool { return s.errorCode&0x10 != 0 }

// Cancel requests that acquisition stop at the next opportunity. If
// atAreaEnd is true and the chunk fetched by the next Next call reports
// page end, that call sends end-of-transmission; in every other case it
// sends abort-scan.
func (s *ExtendedScan) Cancel(atAreaEnd bool) {
	s.doCancel = true
	s.doAtEnd = atAreaEnd
}

func (s *ExtendedScan) size() uint32 {
	if s.chunkCount == 0 {
		return s.finalBytes
	}
	return decode32(s.blk[2:6])
}

func (s *ExtendedScan) moreChunks() bool {
	return !(s.chunkCount == 0 && s.finalBytes == 0 && !s.cancelled)
}

// Next fetches the next chunk of image data, acknowledging receipt or
// acting on a pending/device-requested cancellation as required. It
// returns a done (empty) Chunk once acquisition has finished.
func (s *ExtendedScan) Next(ctx context.Context) (Chunk, error) {
	if !s.moreChunks() || s.cancelled {
		return Chunk{}, nil
	}

	size := s.size()
	if size == 0 {
		return Chunk{}, nil
	}

	buf := make([]byte, size+1)
	if err := s.cnx.Recv(ctx, buf); err != nil {
		return Chunk{}, err
	}
	s.errorCode = buf[len(buf)-1]
	s.scrubErrorCode()

	if s.chunkCount > 0 {
		s.chunkCount--
	} else {
		s.finalBytes = 0
	}

	if s.detectedFatalError() || !s.isReady() {
		s.chunkCount = 0
		s.finalBytes = 0
	}

	if s.moreChunks() {
		if s.IsCancelRequested() {
			s.Cancel(s.doAtEnd)
		}
		if !s.doCancel {
			if err := s.cnx.Send(ctx, []byte{ACK}); err != nil {
				return Chunk{}, err
			}
		} else {
			s.cancelled = true
			if s.IsAtPageEnd() && s.doAtEnd {
				if err := EndOfTransmission.Run(ctx, s.cnx); err != nil {
					return Chunk{}, err
				}
			} else if err := AbortScan.Run(ctx, s.cnx); err != nil {
				return Chunk{}, err
			}
		}
	}

	return Chunk{Data: buf[:len(buf)-1]}, nil
}

func (s *ExtendedScan) scrubErrorCode() {
	if s.Pedantic {
		checkReservedBits([]byte{s.errorCode}, 0, ^reservedErrorCodeBits)
	}
	s.errorCode &^= reservedErrorCodeBits

	if s.Pedantic {
		if unsupported := ^s.ErrorCodeMask & s.errorCode; unsupported != 0 {
			slog.Warn("clearing unsupported error code bits", slog.String("bits", hex2(unsupported)))
		}
	}
	s.errorCode &= s.ErrorCodeMask
}

// Close cancels any scan still in progress and drains the device's
// remaining image data, the idiomatic stand-in for the original's
// destructor-implicit cancel-and-drain: Go has no destructors, so
// callers that Start a scan must defer Close to guarantee the device
// is left in a clean state.
func (s *ExtendedScan) Close(ctx context.Context) error {
	if s.cnx == nil {
		return nil
	}
	s.Cancel(false)
	_, err := s.Next(ctx)
	return err
}

// StandardScan drives the ESC-prefixed legacy start-scan handshake,
// either per scan line (lineCount == 0) or in fixed-size blocks.
// Unlike ExtendedScan it carries no error-code byte or device-side
// cancellation signal, and does not support end-of-medium detection.
type StandardScan struct {
	Pedantic  bool
	LineCount uint8

	cnx Connexion
	blk [6]byte

	doCancel  bool
	cancelled bool
}

// Start sends set-line-count followed by start-standard-scan. Call
// Next repeatedly afterward until it returns a done result.
func (s *StandardScan) Start(ctx context.Context, cnx Connexion) error {
	s.cnx = cnx
	s.doCancel = false
	s.cancelled = false

	setLineCount := &Setter{Command: []byte{ESC, 'd'}, Data: []byte{s.LineCount}}
	if err := setLineCount.Run(ctx, cnx); err != nil {
		return err
	}
	for i := range s.blk {
		s.blk[i] = 0
	}
	return cnx.Send(ctx, []byte{ESC, upperG})
}

func (s *StandardScan) infoSize() int {
	if s.LineCount == 0 {
		return 4
	}
	return 6
}

func (s *StandardScan) detectedFatalError() bool { return s.blk[1]&0x80 != 0 }
func (s *StandardScan) isReady() bool            { return s.blk[1]&0x40 == 0 }

// IsAtAreaEnd reports whether the scan area has been processed
// completely for the current page.
func (s *StandardScan) IsAtAreaEnd() bool { return s.blk[1]&0x20 != 0 }

// ColorAttributes decodes the current chunk's color-plane identity
// given the scan's color mode.
func (s *StandardScan) ColorAttributes(mode ColorMode) (ColorAttributes, bool) {
	return decodeColorAttributes(s.blk[1], mode, s.LineCount == 0)
}

// Cancel requests acquisition stop at the next opportunity. This
// command has no end-of-medium variant, unlike ExtendedScan.Cancel.
func (s *StandardScan) Cancel() { s.doCancel = true }

func (s *StandardScan) size() uint32 {
	byteCount := uint32(decode16(s.blk[2:4]))
	lineCount := uint32(1)
	if s.LineCount != 0 {
		lineCount = uint32(decode16(s.blk[4:6]))
	}
	return byteCount * lineCount
}

func (s *StandardScan) moreChunks() bool { return !(s.IsAtAreaEnd() || s.cancelled) }

// Next fetches the next chunk of image data.
func (s *StandardScan) Next(ctx context.Context) (Chunk, error) {
	if !s.moreChunks() {
		return Chunk{}, nil
	}

	info := s.blk[:s.infoSize()]
	if err := s.cnx.Recv(ctx, info); err != nil {
		return Chunk{}, err
	}
	if s.blk[0] != STX {
		return Chunk{}, &UnknownReplyError{Command: []byte{ESC, upperG}, Reply: s.blk[0]}
	}
	if s.Pedantic {
		checkReservedBits(s.blk[:], 1, 0xfe)
	}
	if s.detectedFatalError() || !s.isReady() {
		for i := 2; i < len(s.blk); i++ {
			s.blk[i] = 0
		}
	}

	size := s.size()
	if size == 0 {
		return Chunk{}, nil
	}

	buf := make([]byte, size)
	if err := s.cnx.Recv(ctx, buf); err != nil {
		return Chunk{}, err
	}

	if s.moreChunks() {
		if !s.doCancel {
			if err := s.cnx.Send(ctx, []byte{ACK}); err != nil {
				return Chunk{}, err
			}
		} else {
			s.cancelled = true
			if err := AbortScan.Run(ctx, s.cnx); err != nil {
				return Chunk{}, err
			}
		}
	}

	return Chunk{Data: buf}, nil
}

// Close cancels any scan still in progress and drains remaining image
// data.
func (s *StandardScan) Close(ctx context.Context) error {
	if s.cnx == nil {
		return nil
	}
	s.Cancel()
	_, err := s.Next(ctx)
	return err
}
