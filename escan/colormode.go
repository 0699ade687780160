package escan

// ColorMode is the wire encoding of the scan-parameters color_mode
// field: which color plane(s) a scan captures and in what order
// multi-plane captures are interleaved.
type ColorMode byte

const (
	ColorModeMonochrome   ColorMode = 0x00
	ColorModeDropoutRed   ColorMode = 0x10
	ColorModeDropoutGreen ColorMode = 0x20
	ColorModeDropoutBlue  ColorMode = 0x30
	ColorModePageGRB      ColorMode = 0x01
	ColorModePageRGB      ColorMode = 0x11
	ColorModeLineGRB      ColorMode = 0x02
	ColorModeLineRGB      ColorMode = 0x12
	ColorModeLineBGR      ColorMode = 0x22
	ColorModePixelGRB     ColorMode = 0x03
	ColorModePixelRGB     ColorMode = 0x13
	ColorModePixelBGR     ColorMode = 0x23
)

// IsMultiPlane reports whether mode captures more than one color plane
// per pixel or line, as opposed to a single monochrome or dropout
// plane.
func (m ColorMode) IsMultiPlane() bool {
	switch m {
	case ColorModePageGRB, ColorModePageRGB,
		ColorModeLineGRB, ColorModeLineRGB, ColorModeLineBGR,
		ColorModePixelGRB, ColorModePixelRGB, ColorModePixelBGR:
		return true
	default:
		return false
	}
}
