package escan

import (
	"context"
	"fmt"
	"math"
)

// GammaComponent selects which color plane (or the combined RGB master
// table) a set-gamma-table upload applies to.
type GammaComponent byte

const (
	GammaRed   GammaComponent = 'R'
	GammaGreen GammaComponent = 'G'
	GammaBlue  GammaComponent = 'B'
	GammaRGB   GammaComponent = 'M'
)

func (c GammaComponent) valid() bool {
	switch c {
	case GammaRed, GammaGreen, GammaBlue, GammaRGB:
		return true
	default:
		return false
	}
}

// gammaTableSize is the fixed 256-entry table plus its one-byte
// component selector.
const gammaTableSize = 257

// LinearGammaTable returns the identity table (byte i maps to i),
// matching set_gamma_table's no-argument default.
func LinearGammaTable() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	return t
}

// PowerLawGammaTable computes a gamma-encoding table using a regular
// power law on the [0,1] domain, the same construction set_gamma_table's
// floating-point operator() uses.
func PowerLawGammaTable(gamma float64) [256]byte {
	var t [256]byte
	for i := range t {
		v := math.Pow(float64(i)/255, 1/gamma)
		scaled := 255*v + 0.5
		if scaled < 0 {
			scaled = 0
		}
		if scaled > 255 {
			scaled = 255
		}
		t[i] = byte(scaled)
	}
	return t
}

// SetGammaTable uploads a custom 256-entry gamma table for component,
// applied on top of whatever gamma correction mode is currently
// selected via ScanParameters.SetGammaCorrection. The component
// selector is validated client-side since the device has no reply path
// that would otherwise surface a typo here.
func SetGammaTable(ctx context.Context, cnx Connexion, component GammaComponent, table [256]byte) error {
	if !component.valid() {
		return fmt.Errorf("escan: invalid gamma component selector %q", byte(component))
	}
	data := make([]byte, 0, gammaTableSize)
	data = append(data, byte(component))
	data = append(data, table[:]...)
	s := &Setter{Command: []byte{ESC, lowerZ}, Data: data}
	return s.Run(ctx, cnx)
}

// SetColorMatrix uploads a 3x3 color-correction matrix. It only takes
// effect once ScanParameters.SetColorCorrection selects the
// user-defined matrix mode; it is otherwise kept but unused by the
// device.
func SetColorMatrix(ctx context.Context, cnx Connexion, m Matrix) error {
	payload, err := m.wireBytes()
	if err != nil {
		return err
	}
	s := &Setter{Command: []byte{ESC, lowerM}, Data: payload[:]}
	return s.Run(ctx, cnx)
}

// Dither pattern selectors for the two custom pattern slots a device
// exposes; set_halftone_processing chooses between them.
const (
	DitherCustomA byte = 0x00
	DitherCustomB byte = 0x01
)

// validDitherSize reports whether size is one of the protocol's three
// supported custom dither pattern dimensions.
func validDitherSize(size int) bool {
	return size == 4 || size == 8 || size == 16
}

// SetDitherPattern uploads a custom size x size dither pattern into
// slot, where size is one of 4, 8, or 16 as the protocol requires.
// pattern is laid out row-major, matching the order a caller would
// naturally build it in.
func SetDitherPattern(ctx context.Context, cnx Connexion, slot byte, pattern [][]uint8) error {
	size := len(pattern)
	if !validDitherSize(size) {
		return fmt.Errorf("escan: dither pattern size must be 4, 8, or 16, got %d", size)
	}
	data := make([]byte, 2+size*size)
	data[0] = slot
	data[1] = byte(size)
	for i, row := range pattern {
		if len(row) != size {
			return fmt.Errorf("escan: dither pattern row %d has %d columns, want %d", i, len(row), size)
		}
		copy(data[2+i*size:2+(i+1)*size], row)
	}
	s := &Setter{Command: []byte{ESC, lowerB}, Data: data}
	return s.Run(ctx, cnx)
}

// defaultDitherPattern returns the canned 4x4 Bayer (CUSTOM_A) or
// spiral (CUSTOM_B) pattern set_dither_pattern's single-argument
// operator() installs when the caller has no custom table of their own.
func defaultDitherPattern(slot byte) ([][]uint8, error) {
	switch slot {
	case DitherCustomA:
		return [][]uint8{
			{248, 120, 216, 88},
			{56, 184, 24, 152},
			{200, 72, 232, 104},
			{8, 136, 40, 168},
		}, nil
	case DitherCustomB:
		return [][]uint8{
			{40, 152, 136, 24},
			{168, 248, 232, 120},
			{184, 200, 216, 104},
			{56, 72, 88, 8},
		}, nil
	default:
		return nil, fmt.Errorf("escan: unknown default dither pattern slot %#x", slot)
	}
}

// SetDefaultDitherPattern uploads one of the device's two canned 4x4
// dither patterns into slot, for callers who want the original driver's
// default banding-diffusion tables rather than a custom one.
func SetDefaultDitherPattern(ctx context.Context, cnx Connexion, slot byte) error {
	pattern, err := defaultDitherPattern(slot)
	if err != nil {
		return err
	}
	return SetDitherPattern(ctx, cnx, slot, pattern)
}
