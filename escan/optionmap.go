package escan

import "fmt"

// OptionKey names one entry in an OptionMap.
type OptionKey string

const (
	OptionDocSource        OptionKey = "doc-source"
	OptionImageType        OptionKey = "image-type"
	OptionResolution       OptionKey = "resolution"
	OptionTLX              OptionKey = "tl-x"
	OptionTLY              OptionKey = "tl-y"
	OptionBRX              OptionKey = "br-x"
	OptionBRY              OptionKey = "br-y"
	OptionScanArea         OptionKey = "scan-area"
	OptionDuplex           OptionKey = "duplex"
	OptionFilmType         OptionKey = "film-type"
	OptionGamma            OptionKey = "gamma"
	OptionColorCorrection  OptionKey = "color-correction"
	OptionDitherPattern    OptionKey = "dither-pattern"
	OptionThreshold        OptionKey = "threshold"
	OptionSharpness        OptionKey = "sharpness"
	OptionBrightness       OptionKey = "brightness"
	OptionMirror           OptionKey = "mirror"
	OptionSpeed            OptionKey = "speed"
	OptionLineCount        OptionKey = "line-count"
	// OptionTransferFormat is kept but never consulted by buildParameters,
	// mirroring the original driver's own "\todo Remove transfer-format
	// work-around for scan-cli utility": it exists only so command-line
	// front ends have something to store a --transfer-format flag in.
	OptionTransferFormat      OptionKey = "transfer-format"
	OptionEnableResampling    OptionKey = "enable-resampling"
	OptionSWResolution        OptionKey = "sw-resolution"
	OptionSWColorCorrection   OptionKey = "sw-color-correction"
	OptionAutoAreaSegmentation OptionKey = "auto-area-segmentation"
	OptionMainLampLightingMode OptionKey = "main-lamp-lighting-mode"
	OptionQuietMode            OptionKey = "quiet-mode"
)

// OptionCCT returns the option key for one of the nine user-defined
// color correction coefficients, in row-major order (0..8).
func OptionCCT(index int) OptionKey {
	return OptionKey(fmt.Sprintf("cct-%d", index))
}

// ScanAreaMode selects how the scan area option is resolved on
// finalization.
type ScanAreaMode int

const (
	ScanAreaManual ScanAreaMode = iota
	ScanAreaMaximum
	ScanAreaAutoDetect
	ScanAreaNamedSize
)

// ScanAreaSetting is the value stored under OptionScanArea.
type ScanAreaSetting struct {
	Mode      ScanAreaMode
	TopLeft   Point
	BottomRight Point
	NamedSize MediaCode // used when Mode == ScanAreaNamedSize
}

// minScanAreaInches is the smallest scan area the option map accepts;
// anything smaller is a constraint violation.
const minScanAreaInches = 0.05

// OptionMap is a keyed collection of typed option values, together with
// the doc-source sub-maps merged in when OptionDocSource changes.
type OptionMap struct {
	caps *Capability

	values map[OptionKey]any
	bySource map[OptionUnit]map[OptionKey]any

	ResolvedArea       BoundingBox
	OutputWidthPixels  uint32
	OutputHeightPixels uint32
	PixelFormat        PixelFormat

	softwareResampling bool
}

// NewOptionMap builds an option map seeded with the device's hardware
// capabilities and a main-body default source.
func NewOptionMap(caps *Capability) *OptionMap {
	m := &OptionMap{
		caps:     caps,
		values:   map[OptionKey]any{},
		bySource: map[OptionUnit]map[OptionKey]any{},
	}
	m.values[OptionDocSource] = OptionUnitMainBody
	m.values[OptionResolution] = caps.BaseResolution()
	m.values[OptionScanArea] = ScanAreaSetting{Mode: ScanAreaMaximum}
	m.values[OptionImageType] = ColorModeMonochrome
	_ = m.resolveScanArea()
	m.resolveResolution()
	m.resolvePixelFormat()
	return m
}

// Get returns the raw value stored under key, and whether it is set.
func (m *OptionMap) Get(key OptionKey) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key and re-runs finalization. Doc-source
// sub-maps (scan area per source, duplex, film type) are swapped in
// when OptionDocSource itself changes.
func (m *OptionMap) Set(key OptionKey, value any) error {
	if key == OptionDocSource {
		newSource, ok := value.(OptionUnit)
		if !ok {
			return &ConstraintViolationError{Option: string(key), Reason: "expected an OptionUnit"}
		}
		m.swapSource(newSource)
	}
	if key == OptionScanArea {
		m.ResolvedArea = BoundingBox{}
	}
	m.values[key] = value
	return m.finalize()
}

func (m *OptionMap) swapSource(newSource OptionUnit) {
	old, _ := m.values[OptionDocSource].(OptionUnit)
	if sub, ok := m.bySource[old]; ok {
		for _, k := range []OptionKey{OptionScanArea, OptionDuplex, OptionFilmType} {
			if v, ok := m.values[k]; ok {
				sub[k] = v
			} else {
				delete(sub, k)
			}
			delete(m.values, k)
		}
	} else {
		m.bySource[old] = map[OptionKey]any{}
		for _, k := range []OptionKey{OptionScanArea, OptionDuplex, OptionFilmType} {
			if v, ok := m.values[k]; ok {
				m.bySource[old][k] = v
				delete(m.values, k)
			}
		}
	}
	if sub, ok := m.bySource[newSource]; ok {
		for k, v := range sub {
			m.values[k] = v
		}
	} else {
		m.values[OptionScanArea] = ScanAreaSetting{Mode: ScanAreaMaximum}
	}
}

// finalize implements SPEC_FULL.md's five-step option-map resolution,
// run after every mutation.
func (m *OptionMap) finalize() error {
	if err := m.resolveScanArea(); err != nil {
		return err
	}
	if err := m.validateMinimumArea(); err != nil {
		return err
	}
	m.resolveResolution()
	m.resolvePixelFormat()
	return nil
}

func (m *OptionMap) resolveScanArea() error {
	source, _ := m.values[OptionDocSource].(OptionUnit)
	setting, _ := m.values[OptionScanArea].(ScanAreaSetting)

	switch setting.Mode {
	case ScanAreaManual:
		m.ResolvedArea = NewBoundingBox(setting.TopLeft, setting.BottomRight)
	case ScanAreaMaximum:
		m.ResolvedArea = m.caps.ScanArea(source.Source(SourceMain))
	case ScanAreaAutoDetect:
		// Resolved from a live status probe by the scanner
		// orchestration layer (SPEC_FULL.md §4.6 step 1); the option
		// map itself has no connexion to probe with, so it falls
		// back to the maximum area until the caller supplies a
		// detected size via SetDetectedArea.
		if m.ResolvedArea == (BoundingBox{}) {
			m.ResolvedArea = m.caps.ScanArea(source.Source(SourceMain))
		}
	case ScanAreaNamedSize:
		dim := mediaDimensions(uint16(setting.NamedSize))
		res, _ := m.values[OptionResolution].(uint32)
		if res == 0 {
			res = m.caps.BaseResolution()
		}
		width := uint32(dim.WidthInches * float64(res))
		height := uint32(dim.HeightInches * float64(res))
		area := BoundingBoxFromExtent(Point{}, width, height)
		if src := source.Source(SourceMain); src == SourceADF {
			area = alignToDocumentAlignment(area, m.caps.DocumentAlignment(), m.caps.ScanArea(src))
		}
		m.ResolvedArea = area
	}
	return nil
}

// alignToDocumentAlignment shifts a resolved area horizontally so a
// narrower-than-maximum document sits against the feeder's reference
// edge, per SPEC_FULL.md §4.6's document-alignment rule. Unknown
// alignment behaves as left (no shift).
func alignToDocumentAlignment(area BoundingBox, alignment Alignment, bounds BoundingBox) BoundingBox {
	if area.Width() >= bounds.Width() {
		return area
	}
	slack := bounds.Width() - area.Width()
	var shift uint32
	switch alignment {
	case AlignmentCenter:
		shift = slack / 2
	case AlignmentRight:
		shift = slack
	default:
		shift = 0
	}
	return BoundingBoxFromExtent(Point{X: bounds.TopLeft.X + shift, Y: area.TopLeft.Y}, area.Width(), area.Height())
}

// SetDetectedArea installs a status-probe-detected media size as the
// resolved scan area when OptionScanArea is in auto-detect mode. The
// scanner orchestration layer calls this after polling device status.
func (m *OptionMap) SetDetectedArea(area BoundingBox) {
	m.ResolvedArea = area
}

func (m *OptionMap) validateMinimumArea() error {
	res, _ := m.values[OptionResolution].(uint32)
	if res == 0 {
		res = m.caps.BaseResolution()
	}
	minPixels := uint32(minScanAreaInches * float64(res))
	if m.ResolvedArea.Width() < minPixels || m.ResolvedArea.Height() < minPixels {
		return &ConstraintViolationError{
			Option: string(OptionScanArea),
			Reason: fmt.Sprintf("area smaller than %.2f inch minimum", minScanAreaInches),
		}
	}
	return nil
}

func (m *OptionMap) resolveResolution() {
	if m.softwareResampling {
		return
	}
	requested, _ := m.values[OptionResolution].(uint32)
	if requested == 0 {
		return
	}
	m.values[OptionResolution] = snapToNearestResolution(requested, m.caps.BaseResolution(), m.caps.MinResolution(), m.caps.MaxResolution())
}

// snapToNearestResolution clamps requested into [min,max] and rounds
// to the nearest multiple of base.
func snapToNearestResolution(requested, base, min, max uint32) uint32 {
	if requested < min {
		requested = min
	}
	if requested > max {
		requested = max
	}
	if base == 0 {
		return requested
	}
	steps := (requested + base/2) / base
	if steps == 0 {
		steps = 1
	}
	snapped := steps * base
	if snapped < min {
		snapped = min
	}
	if snapped > max {
		snapped = max
	}
	return snapped
}

// EnableResampling turns off snapping of OptionResolution to
// hardware-supported values, so a requested resolution is kept as
// given. It adds no separate software-resolution option.
func (m *OptionMap) EnableResampling(enabled bool) {
	m.softwareResampling = enabled
	m.values[OptionEnableResampling] = enabled
}

// PixelFormat identifies the shape of a single output pixel.
type PixelFormat int

const (
	PixelFormatMono1 PixelFormat = iota
	PixelFormatGray8
	PixelFormatGray16
	PixelFormatRGB8
	PixelFormatRGB16
)

func (m *OptionMap) resolvePixelFormat() {
	mode, _ := m.values[OptionImageType].(ColorMode)
	bitDepth, _ := m.values["__bit_depth"].(uint8)
	if bitDepth == 0 {
		bitDepth = 1
	}

	switch {
	case mode == ColorModePixelRGB && bitDepth == 8:
		m.PixelFormat = PixelFormatRGB8
	case mode == ColorModePixelRGB && bitDepth == 16:
		m.PixelFormat = PixelFormatRGB16
	case mode.IsMultiPlane() && bitDepth == 8:
		m.PixelFormat = PixelFormatGray8
	case mode.IsMultiPlane() && bitDepth == 16:
		m.PixelFormat = PixelFormatGray16
	case bitDepth == 1:
		m.PixelFormat = PixelFormatMono1
	case bitDepth == 8:
		m.PixelFormat = PixelFormatGray8
	default:
		m.PixelFormat = PixelFormatGray16
	}

	m.OutputWidthPixels = m.ResolvedArea.Width()
	m.OutputHeightPixels = m.ResolvedArea.Height()
}

// SetBitDepth records the active bit depth for pixel-format
// resolution; it is not itself a public option key because it is
// implied by image-type rather than set independently in most
// configurations.
func (m *OptionMap) SetBitDepth(depth uint8) error {
	m.values["__bit_depth"] = depth
	return m.finalize()
}
