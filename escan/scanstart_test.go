package escan

import (
	"context"
	"testing"
)

func extendedScanInfoBlock(chunkSize, chunkCount, finalBytes uint32) []byte {
	blk := make([]byte, 14)
	blk[0] = STX
	blk[1] = 0x00
	encode32(blk[2:6], chunkSize)
	encode32(blk[6:10], chunkCount)
	encode32(blk[10:14], finalBytes)
	return blk
}

func TestExtendedScanStreamsFixedThenFinalChunk(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, extendedScanInfoBlock(5, 2, 3))
	cnx.replies = append(cnx.replies, append(make([]byte, 5), 0x00)) // chunk 1 + error code
	cnx.replies = append(cnx.replies, append(make([]byte, 5), 0x00)) // chunk 2 + error code
	cnx.replies = append(cnx.replies, append(make([]byte, 3), 0x00)) // final chunk + error code

	scan := NewExtendedScan(false)
	if err := scan.Start(context.Background(), cnx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var sizes []int
	for {
		chunk, err := scan.Next(context.Background())
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if chunk.empty() {
			break
		}
		sizes = append(sizes, len(chunk.Data))
	}

	if len(sizes) != 3 || sizes[0] != 5 || sizes[1] != 5 || sizes[2] != 3 {
		t.Fatalf("unexpected chunk sizes: %v", sizes)
	}
	// command + two ACKs between chunks, none after the final chunk.
	if len(cnx.sent) != 3 {
		t.Fatalf("expected 3 sends (command + 2 ACKs), got %d", len(cnx.sent))
	}
}

func TestExtendedScanCancelSendsAbort(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, extendedScanInfoBlock(5, 2, 0))
	cnx.replies = append(cnx.replies, append(make([]byte, 5), 0x00))
	// AbortScan.Run reads a reply too; SilentOnIdle swallows a missing one.

	scan := NewExtendedScan(false)
	if err := scan.Start(context.Background(), cnx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	scan.Cancel(false)

	chunk, err := scan.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(chunk.Data) != 5 {
		t.Fatalf("expected the in-flight chunk to still be delivered, got %d bytes", len(chunk.Data))
	}

	// Second send after the command is AbortScan's CAN, not ACK.
	if len(cnx.sent) != 2 || cnx.sent[1][0] != CAN {
		t.Fatalf("expected CAN to be sent on cancel, sent=%v", cnx.sent)
	}
}

func TestExtendedScanDetectedFatalErrorZeroesRemainingChunks(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, extendedScanInfoBlock(5, 3, 7))
	fatal := append(make([]byte, 5), 0x80) // error code bit 0x80: fatal
	cnx.replies = append(cnx.replies, fatal)

	scan := NewExtendedScan(false)
	if err := scan.Start(context.Background(), cnx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk, err := scan.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(chunk.Data) != 5 {
		t.Fatalf("expected the chunk carrying the fatal flag to still be returned")
	}
	if !scan.DetectedFatalError() {
		t.Fatalf("expected DetectedFatalError to be set")
	}

	done, err := scan.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !done.empty() {
		t.Fatalf("expected acquisition to stop after a fatal error")
	}
}

func TestStandardScanStreamsPerLineChunks(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.replies = append(cnx.replies, []byte{ACK}) // set-line-count command ack
	cnx.replies = append(cnx.replies, []byte{ACK}) // set-line-count data ack

	info1 := make([]byte, 4)
	info1[0] = STX
	encode16(info1[2:4], 10)
	cnx.replies = append(cnx.replies, info1)
	cnx.replies = append(cnx.replies, make([]byte, 10))

	info2 := make([]byte, 4)
	info2[0] = STX
	info2[1] = 0x20 // area end
	encode16(info2[2:4], 10)
	cnx.replies = append(cnx.replies, info2)
	cnx.replies = append(cnx.replies, make([]byte, 10))

	scan := &StandardScan{LineCount: 0}
	if err := scan.Start(context.Background(), cnx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk1, err := scan.Next(context.Background())
	if err != nil || len(chunk1.Data) != 10 {
		t.Fatalf("unexpected first chunk: data=%v err=%v", chunk1.Data, err)
	}
	chunk2, err := scan.Next(context.Background())
	if err != nil || len(chunk2.Data) != 10 {
		t.Fatalf("unexpected second chunk: data=%v err=%v", chunk2.Data, err)
	}
	done, err := scan.Next(context.Background())
	if err != nil || !done.empty() {
		t.Fatalf("expected acquisition done at area end, got %v err=%v", done, err)
	}
}
