package escan

import (
	"context"
	"testing"
)

func TestSetGammaTableRejectsUnknownComponent(t *testing.T) {
	cnx := &fakeConnexion{}
	err := SetGammaTable(context.Background(), cnx, GammaComponent('X'), LinearGammaTable())
	if err == nil {
		t.Fatalf("expected an error for an invalid gamma component selector")
	}
	if len(cnx.sent) != 0 {
		t.Fatalf("nothing should be sent once client-side validation fails")
	}
}

func TestSetGammaTableSendsSelectorThenTable(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(ACK)
	cnx.queue(ACK)

	if err := SetGammaTable(context.Background(), cnx, GammaRGB, LinearGammaTable()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cnx.sent) != 2 {
		t.Fatalf("expected command bytes then payload to be sent separately, got %d sends", len(cnx.sent))
	}
	if cnx.sent[0][0] != ESC || cnx.sent[0][1] != lowerZ {
		t.Fatalf("unexpected command bytes: %#v", cnx.sent[0])
	}
	if len(cnx.sent[1]) != gammaTableSize {
		t.Fatalf("payload size = %d, want %d", len(cnx.sent[1]), gammaTableSize)
	}
	if cnx.sent[1][0] != byte(GammaRGB) {
		t.Fatalf("component selector = %#v, want %#v", cnx.sent[1][0], byte(GammaRGB))
	}
	if cnx.sent[1][1] != 0 || cnx.sent[1][256] != 255 {
		t.Fatalf("expected a linear table, got first=%d last=%d", cnx.sent[1][1], cnx.sent[1][256])
	}
}

func TestSetColorMatrixRejectsNon3x3Matrix(t *testing.T) {
	cnx := &fakeConnexion{}
	m := NewMatrix(2, []float64{0, 0, 0, 0})
	if err := SetColorMatrix(context.Background(), cnx, m); err == nil {
		t.Fatalf("expected an error for a non-3x3 matrix")
	}
}

func TestSetColorMatrixUnitMatrixEncodesDiagonal(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(ACK)
	cnx.queue(ACK)

	if err := SetColorMatrix(context.Background(), cnx, UnitMatrix()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cnx.sent[0][0] != ESC || cnx.sent[0][1] != lowerM {
		t.Fatalf("unexpected command bytes: %#v", cnx.sent[0])
	}
	payload := cnx.sent[1]
	if len(payload) != 9 {
		t.Fatalf("payload size = %d, want 9", len(payload))
	}
	// dat[i + j*3]: diagonal entries (0,0), (1,1), (2,2) -> indices 0, 4, 8.
	for _, idx := range []int{0, 4, 8} {
		if payload[idx] != 0x80|32 {
			t.Fatalf("diagonal byte at %d = %#x, want %#x", idx, payload[idx], 0x80|32)
		}
	}
	for _, idx := range []int{1, 2, 3, 5, 6, 7} {
		if payload[idx] != 0 {
			t.Fatalf("off-diagonal byte at %d = %#x, want 0", idx, payload[idx])
		}
	}
}

func TestSetDitherPatternRejectsBadSize(t *testing.T) {
	cnx := &fakeConnexion{}
	bad := [][]uint8{{1, 2}, {3, 4}, {5, 6}}
	if err := SetDitherPattern(context.Background(), cnx, DitherCustomA, bad); err == nil {
		t.Fatalf("expected an error for a 3-row pattern")
	}
}

func TestSetDefaultDitherPatternUploadsCannedBayerTable(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(ACK)
	cnx.queue(ACK)

	if err := SetDefaultDitherPattern(context.Background(), cnx, DitherCustomA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cnx.sent[0][0] != ESC || cnx.sent[0][1] != lowerB {
		t.Fatalf("unexpected command bytes: %#v", cnx.sent[0])
	}
	payload := cnx.sent[1]
	if payload[0] != DitherCustomA || payload[1] != 4 {
		t.Fatalf("unexpected header: slot=%d size=%d", payload[0], payload[1])
	}
	if len(payload) != 2+4*4 {
		t.Fatalf("payload size = %d, want %d", len(payload), 2+4*4)
	}
	if payload[2] != 248 {
		t.Fatalf("first pattern byte = %d, want 248", payload[2])
	}
}
