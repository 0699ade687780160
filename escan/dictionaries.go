package escan

import "sync"

// MediaCode is an auto-detectable media-size bitmask, as reported by
// Status.MediaSize's source value. mediaCodeUnknown is returned when
// size detection is available but the device could not identify the
// loaded media.
type MediaCode uint16

const (
	MediaA3V     MediaCode = 0x0080
	MediaWLT     MediaCode = 0x0040
	MediaB4V     MediaCode = 0x0020
	MediaLGV     MediaCode = 0x0010
	MediaA4V     MediaCode = 0x0008
	MediaA4H     MediaCode = 0x0004
	MediaLTV     MediaCode = 0x0002
	MediaLTH     MediaCode = 0x0001
	MediaB5V     MediaCode = 0x8000
	MediaB5H     MediaCode = 0x4000
	MediaA5V     MediaCode = 0x2000
	MediaA5H     MediaCode = 0x1000
	MediaEXV     MediaCode = 0x0800
	MediaEXH     MediaCode = 0x0400
	mediaCodeUnknown MediaCode = 0x0100
)

// MediaDimensions gives a detected sheet's width and height in inches.
type MediaDimensions struct {
	WidthInches, HeightInches float64
}

const mmPerInch = 25.4

func mm(v float64) float64 { return v / mmPerInch }

var (
	mediaDictOnce sync.Once
	mediaDict     map[MediaCode]MediaDimensions
)

// mediaDimensions resolves a detected media code into physical
// dimensions. The dictionary is built lazily on first use and then
// reused; construction itself does no I/O, so no locking beyond
// sync.Once is needed.
func mediaDimensions(code uint16) MediaDimensions {
	mediaDictOnce.Do(initMediaDict)
	d, ok := mediaDict[MediaCode(code)]
	if !ok {
		return MediaDimensions{}
	}
	return d
}

func initMediaDict() {
	mediaDict = map[MediaCode]MediaDimensions{
		MediaA3V:         {WidthInches: mm(297), HeightInches: mm(420)},
		MediaWLT:         {WidthInches: 11.00, HeightInches: 17.00},
		MediaB4V:         {WidthInches: mm(257), HeightInches: mm(364)},
		MediaLGV:         {WidthInches: 8.50, HeightInches: 14.00},
		MediaA4V:         {WidthInches: mm(210), HeightInches: mm(297)},
		MediaA4H:         {WidthInches: mm(297), HeightInches: mm(210)},
		MediaLTV:         {WidthInches: 8.50, HeightInches: 11.00},
		MediaLTH:         {WidthInches: 11.00, HeightInches: 8.50},
		MediaB5V:         {WidthInches: mm(182), HeightInches: mm(257)},
		MediaB5H:         {WidthInches: mm(257), HeightInches: mm(182)},
		MediaA5V:         {WidthInches: mm(148), HeightInches: mm(210)},
		MediaA5H:         {WidthInches: mm(210), HeightInches: mm(148)},
		MediaEXV:         {WidthInches: 7.25, HeightInches: 10.50},
		MediaEXH:         {WidthInches: 10.50, HeightInches: 7.25},
		mediaCodeUnknown: {},
	}
}

// The remaining dictionaries translate the other closed-set byte values
// SPEC_FULL.md calls out (film type, gamma correction, color
// correction, dither pattern) into human-readable labels, each lazily
// built once per process the same way the media dictionary is.

var (
	filmTypeDictOnce sync.Once
	filmTypeDict     map[byte]string

	gammaCorrectionDictOnce sync.Once
	gammaCorrectionDict     map[byte]string

	colorCorrectionDictOnce sync.Once
	colorCorrectionDict     map[byte]string

	ditherPatternDictOnce sync.Once
	ditherPatternDict     map[byte]string
)

// FilmTypeLabel returns the human-readable name for a film_type_value
// byte, or "" if undocumented.
func FilmTypeLabel(v byte) string {
	filmTypeDictOnce.Do(func() {
		filmTypeDict = map[byte]string{
			FilmTypePositive: "positive film",
			FilmTypeNegative: "negative film",
		}
	})
	return filmTypeDict[v]
}

// GammaCorrectionLabel returns the human-readable name for a
// gamma_table_value byte, or "" if undocumented.
func GammaCorrectionLabel(v byte) string {
	gammaCorrectionDictOnce.Do(func() {
		gammaCorrectionDict = map[byte]string{
			GammaCorrectionHiDensityPrint:  "high density print",
			GammaCorrectionBiLevelCRT:      "bi-level CRT",
			GammaCorrectionMultiLevelCRT:   "multi-level CRT",
			GammaCorrectionCustomA:         "custom (base gamma 1.0)",
			GammaCorrectionCustomB:         "custom (base gamma 1.8)",
			GammaCorrectionLoDensityPrint:  "low density print",
			GammaCorrectionHiContrastPrint: "high contrast print",
		}
	})
	return gammaCorrectionDict[v]
}

// ColorCorrectionLabel returns the human-readable name for a
// color_matrix_value byte, or "" if undocumented.
func ColorCorrectionLabel(v byte) string {
	colorCorrectionDictOnce.Do(func() {
		colorCorrectionDict = map[byte]string{
			ColorCorrectionUnitMatrix:       "unit matrix (no correction)",
			ColorCorrectionUserDefined:      "user-defined matrix",
			ColorCorrectionDotMatrixPrinter: "dot matrix printer",
			ColorCorrectionThermalPrinter:   "thermal printer",
			ColorCorrectionInkjetPrinter:    "inkjet printer",
			ColorCorrectionCRTDisplay:       "CRT display",
		}
	})
	return colorCorrectionDict[v]
}

// DitherPatternLabel returns the human-readable name for a
// halftone_dither_value byte, or "" if undocumented.
func DitherPatternLabel(v byte) string {
	ditherPatternDictOnce.Do(func() {
		ditherPatternDict = map[byte]string{
			HalftoneHardTone:      "hard tone",
			HalftoneBiLevel:       "bi-level",
			HalftoneTextEnhanced:  "text enhanced",
			HalftoneSoftTone:      "soft tone",
			HalftoneNetScreen:     "net screen",
			HalftoneBayer4x4:      "4x4 Bayer dither",
			HalftoneSpiral4x4:     "4x4 spiral dither",
			HalftoneNetScreen4x4:  "4x4 net screen",
			HalftoneNetScreen8x4:  "8x4 net screen",
			HalftoneCustomDitherA: "custom dither pattern A",
			HalftoneCustomDitherB: "custom dither pattern B",
		}
	})
	return ditherPatternDict[v]
}
