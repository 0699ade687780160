package escan

import "context"

// FocusPosition reports where a device's focus currently sits, relative
// to the glass plate (get-focus-position).
type FocusPosition struct {
	Position       uint8
	IsAutoFocussed bool
}

// GetFocusPosition issues get-focus-position. Always usable on
// command-level B# devices and later, regardless of auto-focus support.
func GetFocusPosition(ctx context.Context, cnx Connexion, pedantic bool) (FocusPosition, error) {
	g := &VariableGetter{Command: []byte{ESC, lowerQ}}
	if err := g.Run(ctx, cnx); err != nil {
		return FocusPosition{}, err
	}
	if pedantic {
		checkReservedBits(g.Payload, 0, 0x01)
	}
	return FocusPosition{
		Position:       g.Payload[1],
		IsAutoFocussed: g.Payload[0]&0x01 == 0,
	}, nil
}

// Focus position sentinels, documented for interpreting
// FocusPosition.Position; this driver exposes focus as a read-only
// query since adjustment is a rarely documented getter-only surface
// for most models.
const (
	FocusGlass byte = 0x40
	FocusAuto  byte = 0xff
)

// ColorSequence identifies a device sensor's color plane ordering.
type ColorSequence int

const (
	ColorSequenceRGB ColorSequence = iota
)

// HardwareProperty is the D#-level extended capability record covering
// sensor structure and the resolutions valid in each scan direction.
type HardwareProperty struct {
	BaseResolution uint32
	IsCIS          bool
	SensorType     uint8
	ColorSequence  ColorSequence
	LineSpacingX   uint8
	LineSpacingY   uint8
	XResolutions   []uint32
	YResolutions   []uint32
}

// LineNumber yields the device's line number for a single sensor color
// plane. Only red, green and blue are documented; c must be one of
// ColorAttrRed, ColorAttrGreen or ColorAttrBlue.
func (h HardwareProperty) LineNumber(raw byte, c ColorAttributes) uint8 {
	var shift uint
	switch c {
	case ColorAttrRed:
		shift = 4
	case ColorAttrGreen:
		shift = 2
	case ColorAttrBlue:
		shift = 0
	default:
		panic("escan: undocumented color value")
	}
	return (raw >> shift) & 0x03
}

// GetHardwareProperty issues get-hardware-property.
func GetHardwareProperty(ctx context.Context, cnx Connexion, pedantic bool) (HardwareProperty, error) {
	g := &VariableGetter{Command: []byte{ESC, lowerI}}
	if err := g.Run(ctx, cnx); err != nil {
		return HardwareProperty{}, err
	}
	dat := g.Payload
	if pedantic {
		for _, off := range []int{6, 7, 8, 9, 10, 11, 12, 13} {
			checkReservedBits(dat, off, 0x00)
		}
	}
	var seq ColorSequence
	if dat[3] != 0 {
		return HardwareProperty{}, &ProtocolError{Reason: "undocumented color sequence"}
	}
	seq = ColorSequenceRGB

	end := len(dat) - 2
	xStart := 14
	p := xStart
	for p < end && decode16(dat[p:p+2]) != 0 {
		p += 2
	}
	yStart := p + 2

	return HardwareProperty{
		BaseResolution: uint32(decode16(dat[0:2])),
		IsCIS:          dat[2]&0x80 == 0,
		SensorType:     dat[2] & 0x40,
		ColorSequence:  seq,
		LineSpacingX:   dat[4],
		LineSpacingY:   dat[5],
		XResolutions:   decodeResolutionRun(dat, xStart, end),
		YResolutions:   decodeResolutionRun(dat, yStart, end),
	}, nil
}

func decodeResolutionRun(dat []byte, start, end int) []uint32 {
	var out []uint32
	for p := start; p < end && decode16(dat[p:p+2]) != 0; p += 2 {
		out = append(out, uint32(decode16(dat[p:p+2])))
	}
	return out
}

// SizeRequest identifies the document size a push-button scan event
// requested, as reported in PushButtonStatus.
type SizeRequest byte

// Document sizes a push-button scan event may request.
const (
	SizeRequestCustom  SizeRequest = 0 // no preference from device side
	SizeRequestA4      SizeRequest = 1
	SizeRequestLetter  SizeRequest = 2
	SizeRequestLegal   SizeRequest = 3
	SizeRequestB4      SizeRequest = 4
	SizeRequestA3      SizeRequest = 5
	SizeRequestTabloid SizeRequest = 6
)

// PushButtonStatus reports the most recent scanner-side button push
// event (get-push-button-status). The device only ever reports the
// latest event, with no timestamp.
type PushButtonStatus struct {
	SizeRequest  SizeRequest
	IsDuplexing  bool
	EventStatus  byte
}

// GetPushButtonStatus issues get-push-button-status.
func GetPushButtonStatus(ctx context.Context, cnx Connexion, pedantic bool) (PushButtonStatus, error) {
	g := &VariableGetter{Command: []byte{ESC, exclam}}
	if err := g.Run(ctx, cnx); err != nil {
		return PushButtonStatus{}, err
	}
	dat := g.Payload
	if pedantic {
		checkReservedBits(dat, 0, 0xf3)
	}
	return PushButtonStatus{
		SizeRequest: SizeRequest(dat[0] >> 5),
		IsDuplexing: dat[0]&0x10 != 0,
		EventStatus: dat[0] & 0x03,
	}, nil
}
