package escan

// Documented color-correction modes, mirroring color_matrix_value.
// UserDefinedMatrix selects the matrix uploaded via SetColorMatrix;
// every other value picks one of the device's canned matrices.
const (
	ColorCorrectionUnitMatrix       byte = 0x00
	ColorCorrectionUserDefined      byte = 0x01
	ColorCorrectionDotMatrixPrinter byte = 0x10
	ColorCorrectionThermalPrinter   byte = 0x20
	ColorCorrectionInkjetPrinter    byte = 0x40
	ColorCorrectionCRTDisplay       byte = 0x80
)

// Documented gamma-correction modes, mirroring gamma_table_value. The
// two Custom* values select a base gamma on top of which a table
// uploaded via SetGammaTable applies.
const (
	GammaCorrectionHiDensityPrint  byte = 0x00
	GammaCorrectionBiLevelCRT      byte = 0x01
	GammaCorrectionMultiLevelCRT   byte = 0x02
	GammaCorrectionCustomA         byte = 0x03 // base gamma 1.0
	GammaCorrectionCustomB         byte = 0x04 // base gamma 1.8
	GammaCorrectionLoDensityPrint  byte = 0x10
	GammaCorrectionHiContrastPrint byte = 0x20
)

// Documented halftone/dither processing modes, mirroring
// halftone_dither_value. The two CustomDither* values select one of
// the two pattern slots uploaded via SetDitherPattern.
const (
	HalftoneHardTone      byte = 0x00
	HalftoneBiLevel       byte = 0x01
	HalftoneTextEnhanced  byte = 0x03
	HalftoneSoftTone      byte = 0x10
	HalftoneNetScreen     byte = 0x20
	HalftoneBayer4x4      byte = 0x80
	HalftoneSpiral4x4     byte = 0x90
	HalftoneNetScreen4x4  byte = 0xa0
	HalftoneNetScreen8x4  byte = 0xb0
	HalftoneCustomDitherA byte = 0xc0
	HalftoneCustomDitherB byte = 0xd0
)

// Documented film types, mirroring film_type_value.
const (
	FilmTypePositive byte = 0x00
	FilmTypeNegative byte = 0x01
)
