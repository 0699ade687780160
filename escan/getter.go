package escan

import (
	"context"
	"log/slog"
)

// FixedGetter is a fixed-size reply capability/state query: send two
// command bytes, read N reply bytes into a buffer. Pedantic mode runs a
// per-command check of reserved bit positions and logs (never aborts)
// deviations.
type FixedGetter struct {
	Command  []byte
	Size     int
	Pedantic bool
	// CheckReply, when set, is invoked after a successful read when
	// Pedantic is true; it should log any reserved-bit deviation.
	CheckReply func(blk []byte)

	blk []byte
}

// Run sends the command and reads the fixed-size reply into the
// getter's internal buffer.
func (g *FixedGetter) Run(ctx context.Context, cnx Connexion) error {
	if g.blk == nil {
		g.blk = make([]byte, g.Size)
	}
	if err := cnx.Send(ctx, g.Command); err != nil {
		return err
	}
	if err := cnx.Recv(ctx, g.blk); err != nil {
		return err
	}
	if g.Pedantic && g.CheckReply != nil {
		g.CheckReply(g.blk)
	}
	return nil
}

// Block returns the raw reply buffer for typed accessors to decode.
func (g *FixedGetter) Block() []byte { return g.blk }

// checkReservedBits logs (at Warn) when bits outside mask are set in
// blk[offset], matching the original's "loud in debug, lenient in
// release" pedantic policy: deviations are reported, never raised.
func checkReservedBits(blk []byte, offset int, mask byte) {
	if offset >= len(blk) {
		return
	}
	if v := blk[offset] &^ mask; v != 0 {
		slog.Warn("reserved bits set in protocol reply",
			slog.Int("offset", offset), slog.String("value", hex2(v)), slog.String("mask", hex2(mask)))
	}
}

func hex2(b byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{'0', 'x', hexDigits[b>>4], hexDigits[b&0xf]})
}

// VariableGetterInfo is the four-byte information block that precedes a
// variable-size getter's payload: one header byte, one status byte,
// and a little-endian uint16 payload size.
type VariableGetterInfo struct {
	DetectedFatalError bool
	IsReady            bool
	HasOption          bool
	SupportsExtended   bool

	status byte
	size   uint16
}

// ColorAttributes decodes which color plane (or plane ordering) the
// status byte reports, given the scan-parameters color mode in effect
// at the time of the query. lineMode disambiguates LINE_GRB/LINE_RGB
// from their PIXEL_* counterparts, matching start_standard_scan's own
// line_mode argument. Returns false if the status byte holds a value
// undocumented for the given mode.
func (info VariableGetterInfo) ColorAttributes(mode ColorMode, lineMode bool) (ColorAttributes, bool) {
	return decodeColorAttributes(info.status, mode, lineMode)
}

// decodeColorAttributes implements buf_getter::color_attributes and
// start_standard_scan::color_attributes, which share the same
// mode-dependent branch and compare the status byte's 0x0c color bits
// against their four documented values.
func decodeColorAttributes(status byte, mode ColorMode, lineMode bool) (ColorAttributes, bool) {
	status &= 0x0c
	multiplexed := (!lineMode && (mode == ColorModeLineGRB || mode == ColorModeLineRGB)) ||
		mode == ColorModePixelGRB || mode == ColorModePixelRGB
	if multiplexed {
		switch status {
		case 0x04:
			return ColorAttrGRB, true
		case 0x08:
			return ColorAttrRGB, true
		default:
			return 0, false
		}
	}
	switch status {
	case 0x00:
		return ColorAttrMono, true
	case 0x04:
		return ColorAttrGreen, true
	case 0x08:
		return ColorAttrRed, true
	case 0x0c:
		return ColorAttrBlue, true
	}
	return 0, false
}

// ColorAttributes enumerates the color_attributes() outcomes: a single
// plane identity, or which of two interleavings a multi-plane capture
// used.
type ColorAttributes int

const (
	ColorAttrMono ColorAttributes = iota
	ColorAttrRed
	ColorAttrGreen
	ColorAttrBlue
	ColorAttrGRB
	ColorAttrRGB
)

// VariableGetter is a getter whose reply is a 4-byte info block
// followed by a payload whose size the info block announces.
type VariableGetter struct {
	Command []byte

	Info    VariableGetterInfo
	Payload []byte
}

// Run sends the command, reads the 4-byte info block, and (if non-zero)
// the announced payload.
func (g *VariableGetter) Run(ctx context.Context, cnx Connexion) error {
	if err := cnx.Send(ctx, g.Command); err != nil {
		return err
	}
	var hdr [4]byte
	if err := cnx.Recv(ctx, hdr[:]); err != nil {
		return err
	}
	if hdr[0] != STX {
		return &UnknownReplyError{Command: g.Command, Reply: hdr[0]}
	}
	status := hdr[1]
	g.Info = VariableGetterInfo{
		DetectedFatalError: status&0x80 != 0,
		IsReady:            status&0x40 == 0,
		HasOption:          status&0x10 != 0,
		SupportsExtended:   status&0x02 != 0,
		status:             status,
		size:               decode16(hdr[2:4]),
	}
	if g.Info.size == 0 {
		g.Payload = nil
		return nil
	}
	g.Payload = make([]byte, g.Info.size)
	return cnx.Recv(ctx, g.Payload)
}
