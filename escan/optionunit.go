package escan

// OptionUnit selects which media source and mode of operation a
// subsequent scan uses. It differs from a bare DocumentSource in that
// it also implies an operating mode: set-option-unit returns NAK for
// unavailable units or unsupported modes.
type OptionUnit byte

const (
	OptionUnitMainBody  OptionUnit = 0x00
	OptionUnitADFSimplex OptionUnit = 0x01
	OptionUnitADFDuplex  OptionUnit = 0x02
	OptionUnitTPUArea1   OptionUnit = 0x01
	OptionUnitTPUArea2   OptionUnit = 0x05
	OptionUnitTPUIR1     OptionUnit = 0x03
	OptionUnitTPUIR2     OptionUnit = 0x04
)

// Source reports the document source implied by the option unit. Main
// body maps to SourceMain and the ADF values to SourceADF; since
// OptionUnitTPUArea1 shares its byte with OptionUnitADFSimplex, it too
// maps to SourceADF. Any other value returns source unchanged.
func (u OptionUnit) Source(source DocumentSource) DocumentSource {
	switch u {
	case OptionUnitMainBody:
		return SourceMain
	case OptionUnitADFSimplex, OptionUnitADFDuplex:
		return SourceADF
	default:
		return source
	}
}
