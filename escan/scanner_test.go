package escan

import (
	"context"
	"errors"
	"testing"
)

func scriptOpenSequence(cnx *fakeConnexion) {
	cnx.replies = append(cnx.replies, []byte{0x80}) // capture-scanner grant

	identity := make([]byte, CapabilitySize)
	encode32(identity[4:8], 300)
	encode32(identity[8:12], 50)
	encode32(identity[12:16], 1200)
	encode32(identity[20:24], 2550)
	encode32(identity[24:28], 3300)
	cnx.replies = append(cnx.replies, identity)

	cnx.replies = append(cnx.replies, []byte{ACK}) // initialize

	status := make([]byte, StatusSize)
	cnx.replies = append(cnx.replies, status) // get-scanner-status
}

func TestOpenCapturesIdentityAndStatus(t *testing.T) {
	cnx := &fakeConnexion{}
	scriptOpenSequence(cnx)

	s, err := Open(context.Background(), cnx, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Capability == nil || s.Options == nil {
		t.Fatalf("expected Capability and Options to be populated")
	}
	if s.Capability.BaseResolution() != 300 {
		t.Fatalf("BaseResolution = %d, want 300", s.Capability.BaseResolution())
	}
}

func TestCloseReleasesAndIsIdempotent(t *testing.T) {
	cnx := &fakeConnexion{}
	scriptOpenSequence(cnx)
	s, err := Open(context.Background(), cnx, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	cnx.replies = append(cnx.replies, []byte{0x80}) // release grant
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestOpenReleasesOnIdentityFailure(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, []byte{0x80}) // capture grant
	// No identity reply queued: GetExtendedIdentity's Recv takes the
	// 1-byte reply below and fails the size check, so the cleanup
	// release then draws io.EOF, which Open ignores.
	cnx.replies = append(cnx.replies, []byte{0x80})

	if _, err := Open(context.Background(), cnx, false); err == nil {
		t.Fatalf("expected Open to fail when identity cannot be read")
	}
	if len(cnx.sent) != 3 {
		t.Fatalf("expected capture, get-identity, release to be sent; got %d sends", len(cnx.sent))
	}
}

func TestWaitForWarmUpReturnsImmediatelyWhenNotWarming(t *testing.T) {
	cnx := &fakeConnexion{}
	status := make([]byte, StatusSize) // blk[0] = 0: ready, not fatal, not warming up
	cnx.replies = append(cnx.replies, status)

	s := &Scanner{cnx: cnx}
	if err := s.waitForWarmUp(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestObtainMediaNoOpWhenNotPageTypeADF(t *testing.T) {
	caps := testCapability(t) // blk[44]&0x20 unset: not page type
	s := &Scanner{Capability: caps}
	if err := s.obtainMedia(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestObtainMediaReportsMediaOutAsSystemErrorOnFirstPage(t *testing.T) {
	b := make([]byte, CapabilitySize)
	b[44] = 0x20 // page-type ADF
	caps := &Capability{}
	caps.SetBytes(b)

	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, []byte{ACK}) // load-media
	status := make([]byte, StatusSize)
	status[0] = 0x80 // fatal error
	status[1] = 0x08 // ADF media out
	cnx.replies = append(cnx.replies, status)

	s := &Scanner{cnx: cnx, Capability: caps}
	err := s.obtainMedia(context.Background())
	if err == nil {
		t.Fatalf("expected a media-out error")
	}
	var sysErr *SystemError
	if !asSystemError(err, &sysErr) {
		t.Fatalf("expected *SystemError, got %v (%T)", err, err)
	}
	if sysErr.Code != SystemErrorMediaOut {
		t.Fatalf("Code = %v, want SystemErrorMediaOut", sysErr.Code)
	}
	// load-media must be attempted before status is read.
	if len(cnx.sent) != 2 || cnx.sent[0][0] != PF {
		t.Fatalf("expected load-media to be sent first, sent=%v", cnx.sent)
	}
}

func TestObtainMediaReportsNoMoreMediaAfterFirstImage(t *testing.T) {
	b := make([]byte, CapabilitySize)
	b[44] = 0x20 // page-type ADF
	caps := &Capability{}
	caps.SetBytes(b)

	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, []byte{ACK}) // load-media
	status := make([]byte, StatusSize)
	status[0] = 0x80 // fatal error
	status[1] = 0x08 // ADF media out
	cnx.replies = append(cnx.replies, status)

	s := &Scanner{cnx: cnx, Capability: caps, imagesStarted: 1}
	err := s.obtainMedia(context.Background())
	if !errors.Is(err, ErrNoMoreMedia) {
		t.Fatalf("expected ErrNoMoreMedia after a prior image, got %v", err)
	}
}

// thresholdConnexion accepts set-scan-parameters trials with a line count
// at or below a fixed threshold and rejects the rest, so the bisection
// search can be driven to a known convergence point.
type thresholdConnexion struct {
	threshold uint8
	lastReply byte
	sent      [][]byte
}

func (c *thresholdConnexion) Send(_ context.Context, buf []byte) error {
	c.sent = append(c.sent, append([]byte(nil), buf...))
	if len(buf) == ScanParametersSize {
		if buf[28] <= c.threshold {
			c.lastReply = ACK
		} else {
			c.lastReply = NAK
		}
	} else {
		c.lastReply = ACK
	}
	return nil
}

func (c *thresholdConnexion) Recv(_ context.Context, buf []byte) error {
	buf[0] = c.lastReply
	return nil
}

func TestBisectLineCountConvergesToAcceptedThreshold(t *testing.T) {
	const accepted = 40
	cnx := &thresholdConnexion{threshold: accepted}
	s := &Scanner{cnx: cnx}
	p := &ScanParameters{}

	lineCount, err := s.bisectLineCount(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lineCount != accepted {
		t.Fatalf("bisectLineCount = %d, want %d", lineCount, accepted)
	}
}

func TestBuildParametersWiresEnhancementAndColorOptions(t *testing.T) {
	caps := testCapability(t)
	opts := NewOptionMap(caps)

	sets := []struct {
		key OptionKey
		val any
	}{
		{OptionThreshold, uint8(60)},
		{OptionSharpness, int8(2)},
		{OptionBrightness, int8(-3)},
		{OptionMirror, true},
		{OptionAutoAreaSegmentation, true},
		{OptionSpeed, byte(1)},
		{OptionFilmType, FilmTypeNegative},
		{OptionMainLampLightingMode, byte(1)},
		{OptionQuietMode, byte(2)},
		{OptionGamma, GammaCorrectionCustomA},
		{OptionColorCorrection, ColorCorrectionUserDefined},
		{OptionDitherPattern, HalftoneCustomDitherA},
	}
	for _, s := range sets {
		if err := opts.Set(s.key, s.val); err != nil {
			t.Fatalf("Set(%v) failed: %v", s.key, err)
		}
	}
	for i := 0; i < 9; i++ {
		if err := opts.Set(OptionCCT(i), 0.5); err != nil {
			t.Fatalf("Set(cct-%d) failed: %v", i, err)
		}
	}

	cnx := &thresholdConnexion{threshold: 255}
	s := &Scanner{cnx: cnx, Capability: caps, Options: opts}

	p, _, err := s.buildParameters(context.Background(), OptionUnitMainBody)
	if err != nil {
		t.Fatalf("buildParameters failed: %v", err)
	}

	if p.Threshold() != 60 {
		t.Fatalf("Threshold = %d, want 60", p.Threshold())
	}
	if p.Sharpness() != 2 {
		t.Fatalf("Sharpness = %d, want 2", p.Sharpness())
	}
	if p.Brightness() != -3 {
		t.Fatalf("Brightness = %d, want -3", p.Brightness())
	}
	if !p.Mirroring() {
		t.Fatalf("expected Mirroring to be set")
	}
	if !p.AutoAreaSegmentation() {
		t.Fatalf("expected AutoAreaSegmentation to be set")
	}
	if p.ScanMode() != 1 {
		t.Fatalf("ScanMode = %d, want 1", p.ScanMode())
	}
	if p.FilmType() != FilmTypeNegative {
		t.Fatalf("FilmType = %#x, want %#x", p.FilmType(), FilmTypeNegative)
	}
	if p.MainLampLightingMode() != 1 {
		t.Fatalf("MainLampLightingMode = %d, want 1", p.MainLampLightingMode())
	}
	if p.QuietMode() != 2 {
		t.Fatalf("QuietMode = %d, want 2", p.QuietMode())
	}
	if p.GammaCorrection() != GammaCorrectionCustomA {
		t.Fatalf("GammaCorrection = %#x, want %#x", p.GammaCorrection(), GammaCorrectionCustomA)
	}
	if p.ColorCorrection() != ColorCorrectionUserDefined {
		t.Fatalf("ColorCorrection = %#x, want %#x", p.ColorCorrection(), ColorCorrectionUserDefined)
	}
	if p.HalftoneProcessing() != HalftoneCustomDitherA {
		t.Fatalf("HalftoneProcessing = %#x, want %#x", p.HalftoneProcessing(), HalftoneCustomDitherA)
	}

	if !sentCommand(cnx, ESC, lowerZ) {
		t.Fatalf("expected set-gamma-table to be sent for a custom gamma mode")
	}
	if !sentCommand(cnx, ESC, lowerM) {
		t.Fatalf("expected set-color-matrix to be sent for user-defined color correction")
	}
	if !sentCommand(cnx, ESC, lowerB) {
		t.Fatalf("expected set-dither-pattern to be sent for a custom dither mode")
	}
}

func sentCommand(c *thresholdConnexion, b0, b1 byte) bool {
	for _, buf := range c.sent {
		if len(buf) == 2 && buf[0] == b0 && buf[1] == b1 {
			return true
		}
	}
	return false
}

func asSystemError(err error, target **SystemError) bool {
	if e, ok := err.(*SystemError); ok {
		*target = e
		return true
	}
	return false
}
