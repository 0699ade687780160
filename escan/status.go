package escan

import "context"

// StatusSize is the fixed wire size of a scanner-status record.
const StatusSize = 16

// Status is the 16-byte scanner-status record: current device and
// option-unit state, as opposed to Capability's fixed hardware limits.
type Status struct {
	blk [StatusSize]byte
}

// SetBytes overwrites the record from a 16-byte wire reply.
func (s *Status) SetBytes(b []byte) {
	if len(b) != StatusSize {
		panic("escan: status record must be exactly 16 bytes")
	}
	copy(s.blk[:], b)
}

func (s *Status) FatalError() bool         { return s.blk[0]&0x80 != 0 }
func (s *Status) IsReady() bool            { return s.blk[0]&0x40 == 0 }
func (s *Status) IsWarmingUp() bool        { return s.blk[0]&0x02 != 0 }
func (s *Status) CanCancelWarmingUp() bool { return s.blk[0]&0x01 != 0 }

func (s *Status) DeviceType() uint8 { return (s.blk[3] >> 6) & 0x03 }
func (s *Status) MainError() bool     { return s.blk[3]&0x20 != 0 }
func (s *Status) MainMediaOut() bool  { return s.blk[3]&0x08 != 0 }
func (s *Status) MainMediaJam() bool  { return s.blk[3]&0x04 != 0 }
func (s *Status) MainCoverOpen() bool { return s.blk[3]&0x02 != 0 }

func (s *Status) ADFDetected() bool  { return s.blk[1]&0x80 != 0 || s.blk[10]&0x80 != 0 }
func (s *Status) ADFEnabled() bool   { return s.blk[1]&0x40 != 0 || s.blk[10]&0x40 != 0 }
func (s *Status) ADFError() bool     { return s.blk[1]&0x20 != 0 || s.blk[10]&0x20 != 0 }
func (s *Status) ADFDoubleFeed() bool { return s.blk[10]&0x10 != 0 }
func (s *Status) ADFMediaOut() bool  { return s.blk[1]&0x08 != 0 }
func (s *Status) ADFMediaJam() bool  { return s.blk[1]&0x04 != 0 }
func (s *Status) ADFCoverOpen() bool { return s.blk[1]&0x02 != 0 }
func (s *Status) ADFTrayOpen() bool  { return s.blk[10]&0x02 != 0 }
func (s *Status) ADFIsDuplexing() bool { return s.blk[1]&0x01 != 0 }

func (s *Status) HasHolderSupport() bool { return s.blk[4] != 0 }
func (s *Status) HolderError() bool      { return s.blk[4]&0x80 != 0 }
func (s *Status) HolderType() byte       { return s.blk[4] & 0x7f }

// TPUDetected, TPUEnabled, TPUError, TPUCoverOpen and TPULampError
// report status for a transparency unit slot; only SourceTPU1 and
// SourceTPU2 are valid sources.
func (s *Status) TPUDetected(source DocumentSource) bool  { return s.tpuStatus(source, 0x80) }
func (s *Status) TPUEnabled(source DocumentSource) bool   { return s.tpuStatus(source, 0x40) }
func (s *Status) TPUError(source DocumentSource) bool     { return s.tpuStatus(source, 0x20) }
func (s *Status) TPUCoverOpen(source DocumentSource) bool { return s.tpuStatus(source, 0x02) }
func (s *Status) TPULampError(source DocumentSource) bool { return s.tpuStatus(source, 0x01) }

func (s *Status) tpuStatus(source DocumentSource, mask byte) bool {
	switch source {
	case SourceTPU1:
		return s.blk[2]&mask != 0
	case SourceTPU2:
		return s.blk[9]&mask != 0
	default:
		panic("escan: unknown TPU source")
	}
}

// SupportsSizeDetection reports whether source can report a detected
// media value at all.
func (s *Status) SupportsSizeDetection(source DocumentSource) bool {
	return s.mediaValue(source) != 0
}

// MediaSizeDetected reports whether source detected a recognized,
// non-odd-sized sheet.
func (s *Status) MediaSizeDetected(source DocumentSource) bool {
	return s.SupportsSizeDetection(source) && MediaCode(s.mediaValue(source)) != mediaCodeUnknown
}

// MediaSize resolves the detected media code into physical dimensions,
// in inches. An unrecognized code yields zero dimensions; check
// MediaSizeDetected first. Panics for a source other than SourceMain or
// SourceADF.
func (s *Status) MediaSize(source DocumentSource) MediaDimensions {
	return mediaDimensions(s.mediaValue(source))
}

func (s *Status) mediaValue(source DocumentSource) uint16 {
	switch source {
	case SourceMain:
		return decode16(s.blk[7:9])
	case SourceADF:
		return decode16(s.blk[5:7])
	default:
		panic("escan: unsupported document source")
	}
}

func (s *Status) checkReservedBits() {
	checkReservedBits(s.blk[:], 0, 0xc3)
	checkReservedBits(s.blk[:], 1, 0xef)
	checkReservedBits(s.blk[:], 2, 0xe3)
	checkReservedBits(s.blk[:], 3, 0xee)
	checkReservedBits(s.blk[:], 6, 0xfd)
	checkReservedBits(s.blk[:], 8, 0xfd)
	checkReservedBits(s.blk[:], 9, 0xe3)
	checkReservedBits(s.blk[:], 10, 0xf2)
	checkReservedBits(s.blk[:], 11, 0x00)
	checkReservedBits(s.blk[:], 12, 0x00)
	checkReservedBits(s.blk[:], 13, 0x00)
	checkReservedBits(s.blk[:], 14, 0x00)
	checkReservedBits(s.blk[:], 15, 0x00)
}

// GetScannerStatus issues get-scanner-status (an extended command) and
// decodes the reply into a fresh Status record.
func GetScannerStatus(ctx context.Context, cnx Connexion, pedantic bool) (*Status, error) {
	g := &FixedGetter{Command: []byte{FS, upperF}, Size: StatusSize, Pedantic: pedantic}
	if err := g.Run(ctx, cnx); err != nil {
		return nil, err
	}
	s := &Status{}
	s.SetBytes(g.Block())
	if pedantic {
		s.checkReservedBits()
	}
	return s, nil
}
