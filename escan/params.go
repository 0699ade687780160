package escan

import (
	"bytes"
	"context"
)

// ScanParametersSize is the fixed wire size of a scan-parameters record.
const ScanParametersSize = 64

// ScanParameters is the 64-byte scan-parameters record. It backs both a
// read-only "getter" view (populated from a get-scan-parameters reply)
// and a mutable "setter" builder (sent via set-scan-parameters): a
// single layout, never two copies of the offset table. Two records
// compare equal iff their 64 payload bytes are identical.
type ScanParameters struct {
	mem [ScanParametersSize]byte
}

// Bytes returns the raw 64-byte record.
func (p *ScanParameters) Bytes() []byte { return p.mem[:] }

// SetBytes overwrites the record from a 64-byte wire reply. Panics if
// b is not exactly ScanParametersSize bytes, matching the protocol's
// fixed-size contract.
func (p *ScanParameters) SetBytes(b []byte) {
	if len(b) != ScanParametersSize {
		panic("escan: scan-parameters record must be exactly 64 bytes")
	}
	copy(p.mem[:], b)
}

// Clone returns an independent copy; mutating the copy never affects
// the original.
func (p *ScanParameters) Clone() *ScanParameters {
	c := &ScanParameters{}
	c.mem = p.mem
	return c
}

// Equal reports whether the two records have byte-identical payloads.
func (p *ScanParameters) Equal(o *ScanParameters) bool {
	if o == nil {
		return false
	}
	return bytes.Equal(p.mem[:], o.mem[:])
}

// Resolution returns the main/sub resolution pair, in DPI.
func (p *ScanParameters) Resolution() Point {
	return Point{X: decode32(p.mem[0:4]), Y: decode32(p.mem[4:8])}
}

// ScanArea returns the scan area, offset and extent decoded into a
// normalized bounding box.
func (p *ScanParameters) ScanArea() BoundingBox {
	offset := Point{X: decode32(p.mem[8:12]), Y: decode32(p.mem[12:16])}
	width := decode32(p.mem[16:20])
	height := decode32(p.mem[20:24])
	return BoundingBoxFromExtent(offset, width, height)
}

func (p *ScanParameters) ColorMode() ColorMode           { return ColorMode(p.mem[24]) }
func (p *ScanParameters) BitDepth() uint8                { return p.mem[25] }
func (p *ScanParameters) OptionUnit() byte               { return p.mem[26] }
func (p *ScanParameters) ScanMode() byte                 { return p.mem[27] }
func (p *ScanParameters) LineCount() uint8               { return p.mem[28] }
func (p *ScanParameters) GammaCorrection() byte          { return p.mem[29] }
func (p *ScanParameters) Brightness() int8               { return int8(p.mem[30]) }
func (p *ScanParameters) ColorCorrection() byte          { return p.mem[31] }
func (p *ScanParameters) HalftoneProcessing() byte       { return p.mem[32] }
func (p *ScanParameters) Threshold() uint8               { return p.mem[33] }
func (p *ScanParameters) AutoAreaSegmentation() bool     { return p.mem[34] != 0 }
func (p *ScanParameters) Sharpness() int8                { return int8(p.mem[35]) }
func (p *ScanParameters) Mirroring() bool                { return p.mem[36] != 0 }
func (p *ScanParameters) FilmType() byte                 { return p.mem[37] }
func (p *ScanParameters) MainLampLightingMode() byte     { return p.mem[38] }
func (p *ScanParameters) DoubleFeedSensitivity() byte    { return p.mem[39] }
func (p *ScanParameters) QuietMode() byte                { return p.mem[41] }

// Setter mutators. Each writes directly into the shared 64-byte layout
// at the offset table preserved from the originating protocol.

func (p *ScanParameters) SetResolution(rx, ry uint32) *ScanParameters {
	encode32(p.mem[0:4], rx)
	encode32(p.mem[4:8], ry)
	return p
}

func (p *ScanParameters) SetScanArea(area BoundingBox) *ScanParameters {
	encode32(p.mem[8:12], area.TopLeft.X)
	encode32(p.mem[12:16], area.TopLeft.Y)
	encode32(p.mem[16:20], area.Width())
	encode32(p.mem[20:24], area.Height())
	return p
}

func (p *ScanParameters) SetColorMode(mode ColorMode) *ScanParameters { p.mem[24] = byte(mode); return p }
func (p *ScanParameters) SetBitDepth(v uint8) *ScanParameters    { p.mem[25] = v; return p }
func (p *ScanParameters) SetOptionUnit(mode byte) *ScanParameters { p.mem[26] = mode; return p }
func (p *ScanParameters) SetScanMode(mode byte) *ScanParameters  { p.mem[27] = mode; return p }
func (p *ScanParameters) SetLineCount(v uint8) *ScanParameters   { p.mem[28] = v; return p }
func (p *ScanParameters) SetGammaCorrection(mode byte) *ScanParameters {
	p.mem[29] = mode
	return p
}
func (p *ScanParameters) SetBrightness(v int8) *ScanParameters { p.mem[30] = byte(v); return p }
func (p *ScanParameters) SetColorCorrection(mode byte) *ScanParameters {
	p.mem[31] = mode
	return p
}
func (p *ScanParameters) SetHalftoneProcessing(mode byte) *ScanParameters {
	p.mem[32] = mode
	return p
}
func (p *ScanParameters) SetThreshold(v uint8) *ScanParameters { p.mem[33] = v; return p }
func (p *ScanParameters) SetAutoAreaSegmentation(active bool) *ScanParameters {
	p.mem[34] = boolByte(active)
	return p
}
func (p *ScanParameters) SetSharpness(v int8) *ScanParameters { p.mem[35] = byte(v); return p }
func (p *ScanParameters) SetMirroring(active bool) *ScanParameters {
	p.mem[36] = boolByte(active)
	return p
}
func (p *ScanParameters) SetFilmType(t byte) *ScanParameters { p.mem[37] = t; return p }
func (p *ScanParameters) SetMainLampLightingMode(mode byte) *ScanParameters {
	p.mem[38] = mode
	return p
}
func (p *ScanParameters) SetDoubleFeedSensitivity(mode byte) *ScanParameters {
	p.mem[39] = mode
	return p
}
func (p *ScanParameters) SetQuietMode(mode byte) *ScanParameters { p.mem[41] = mode; return p }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// GetScanParameters issues get-command-parameters and decodes the reply
// into a fresh ScanParameters record.
func GetScanParameters(ctx context.Context, cnx Connexion, pedantic bool) (*ScanParameters, error) {
	g := &FixedGetter{Command: []byte{FS, upperS}, Size: ScanParametersSize, Pedantic: pedantic}
	if err := g.Run(ctx, cnx); err != nil {
		return nil, err
	}
	p := &ScanParameters{}
	p.SetBytes(g.Block())
	return p, nil
}

// SetScanParameters sends the record via set-scan-parameters.
func SetScanParameters(ctx context.Context, cnx Connexion, p *ScanParameters) error {
	s := &Setter{Command: []byte{FS, upperW}, Data: append([]byte(nil), p.Bytes()...)}
	return s.Run(ctx, cnx)
}
