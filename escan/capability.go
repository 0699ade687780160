package escan

import "context"

// CapabilitySize is the fixed wire size of an extended-identity
// capability record.
const CapabilitySize = 80

// DocumentSource identifies which of a device's media paths a capacity
// or area query is asked about.
type DocumentSource int

const (
	SourceMain DocumentSource = iota
	SourceADF
	SourceTPU1
	SourceTPU2
)

// IODirection distinguishes input (scan) from output (image data) bit
// depth in Capability.BitDepth.
type IODirection int

const (
	IODirectionInput IODirection = iota
	IODirectionOutput
)

// Capability is the 80-byte extended-identity record: a device's fixed
// hardware capabilities, as opposed to its current settings.
type Capability struct {
	blk [CapabilitySize]byte
}

// SetBytes overwrites the record from an 80-byte wire reply.
func (c *Capability) SetBytes(b []byte) {
	if len(b) != CapabilitySize {
		panic("escan: capability record must be exactly 80 bytes")
	}
	copy(c.blk[:], b)
}

func (c *Capability) CommandLevel() string { return decodeString(c.blk[0:2]) }
func (c *Capability) ProductName() string  { return decodeString(c.blk[46:62]) }
func (c *Capability) ROMVersion() string   { return decodeString(c.blk[62:66]) }

func (c *Capability) BaseResolution() uint32 { return decode32(c.blk[4:8]) }
func (c *Capability) MinResolution() uint32  { return decode32(c.blk[8:12]) }
func (c *Capability) MaxResolution() uint32  { return decode32(c.blk[12:16]) }
func (c *Capability) MaxScanWidth() uint32   { return decode32(c.blk[16:20]) }

// ScanArea yields the maximum scan area, in pixels, for the given
// document source. Panics for a source the record does not encode.
func (c *Capability) ScanArea(source DocumentSource) BoundingBox {
	var offset int
	switch source {
	case SourceMain:
		offset = 20
	case SourceADF:
		offset = 28
	case SourceTPU1:
		offset = 36
	case SourceTPU2:
		offset = 68
	default:
		panic("escan: unsupported document source")
	}
	width := decode32(c.blk[offset : offset+4])
	height := decode32(c.blk[offset+4 : offset+8])
	return BoundingBoxFromExtent(Point{}, width, height)
}

func (c *Capability) IsFlatbedType() bool           { return c.blk[44]&0x40 == 0 }
func (c *Capability) HasLidOption() bool            { return c.blk[44]&0x04 != 0 }
func (c *Capability) HasPushButton() bool           { return c.blk[44]&0x01 != 0 }
func (c *Capability) ADFIsPageType() bool           { return c.blk[44]&0x20 != 0 }
func (c *Capability) ADFIsDuplexType() bool         { return c.blk[44]&0x10 != 0 }
func (c *Capability) ADFIsFirstSheetLoader() bool   { return c.blk[44]&0x08 != 0 }
func (c *Capability) TPUIsIRType() bool             { return c.blk[44]&0x02 != 0 }
func (c *Capability) SupportsLampChange() bool      { return c.blk[44]&0x80 != 0 }

func (c *Capability) DetectsPageEnd() bool         { return c.blk[45]&0x01 != 0 }
func (c *Capability) HasEnergySavingsSetter() bool { return c.blk[45]&0x02 != 0 }
func (c *Capability) ADFIsAutoFormFeeder() bool    { return c.blk[45]&0x04 != 0 }
func (c *Capability) ADFDetectsDoubleFeed() bool   { return c.blk[45]&0x08 != 0 }
func (c *Capability) SupportsAutoPowerOff() bool   { return c.blk[45]&0x10 != 0 }
func (c *Capability) SupportsQuietMode() bool      { return c.blk[45]&0x20 != 0 }
func (c *Capability) SupportsAuthentication() bool { return c.blk[45]&0x40 != 0 }
func (c *Capability) SupportsCompoundCommands() bool {
	return c.blk[45]&0x80 != 0
}

// BitDepth yields the supported bit depth for the given direction.
func (c *Capability) BitDepth(io IODirection) byte {
	switch io {
	case IODirectionInput:
		return c.blk[66]
	case IODirectionOutput:
		return c.blk[67]
	default:
		panic("escan: unsupported io direction")
	}
}

// DocumentAlignment reports which edge the device aligns documents
// against: see the Alignment constants.
func (c *Capability) DocumentAlignment() Alignment {
	return Alignment(c.blk[76] & 0x03)
}

// Alignment identifies which edge of the scan area a device aligns
// loaded media against.
type Alignment byte

const (
	AlignmentUnknown Alignment = 0x00
	AlignmentLeft    Alignment = 0x01
	AlignmentCenter  Alignment = 0x02
	AlignmentRight   Alignment = 0x03
)

func (c *Capability) checkReservedBits() {
	checkReservedBits(c.blk[:], 2, 0x00)
	checkReservedBits(c.blk[:], 3, 0x00)
	checkReservedBits(c.blk[:], 76, 0x03)
	checkReservedBits(c.blk[:], 77, 0x00)
	checkReservedBits(c.blk[:], 78, 0x00)
	checkReservedBits(c.blk[:], 79, 0x00)
}

// GetExtendedIdentity issues get-extended-identity and decodes the
// reply into a fresh Capability record.
func GetExtendedIdentity(ctx context.Context, cnx Connexion, pedantic bool) (*Capability, error) {
	g := &FixedGetter{Command: []byte{FS, upperI}, Size: CapabilitySize, Pedantic: pedantic}
	if err := g.Run(ctx, cnx); err != nil {
		return nil, err
	}
	c := &Capability{}
	c.SetBytes(g.Block())
	if pedantic {
		c.checkReservedBits()
	}
	return c, nil
}
