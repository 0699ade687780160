package escan

import (
	"context"
	"testing"
)

func TestActionRunAcceptsACK(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(ACK)

	if err := CancelWarmingUp.Run(context.Background(), cnx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActionRunRejectsNAK(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(NAK)

	err := CancelWarmingUp.Run(context.Background(), cnx)
	if !IsInvalidCommand(err) {
		t.Fatalf("expected InvalidCommandError, got %v", err)
	}
}

func TestActionRunUnknownReply(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(0x55)

	err := CancelWarmingUp.Run(context.Background(), cnx)
	if !IsUnknownReply(err) {
		t.Fatalf("expected UnknownReplyError, got %v", err)
	}
}

func TestActionRunSilentOnIdleSwallowsShortRead(t *testing.T) {
	cnx := &fakeConnexion{} // no queued reply -> Recv returns io.EOF

	if err := AbortScan.Run(context.Background(), cnx); err != nil {
		t.Fatalf("expected SilentOnIdle to swallow the read failure, got %v", err)
	}
}

func TestCaptureReplyPolicyReportsBusy(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(0x40)

	err := CaptureScanner.Run(context.Background(), cnx)
	if !IsDeviceBusy(err) {
		t.Fatalf("expected DeviceBusyError, got %v", err)
	}
}

func TestCaptureReplyPolicyAcceptsGrant(t *testing.T) {
	cnx := &fakeConnexion{}
	cnx.queue(0x80)

	if err := CaptureScanner.Run(context.Background(), cnx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
