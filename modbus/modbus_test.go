package modbus

import (
	"errors"
	"testing"

	"github.com/stationkit/powersdk/errs"
)

func TestValidateCRCScenario1(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x04, 0x00, 0x64, 0x00, 0xC8, 0xBB, 0xFC}
	if !ValidateCRC(frame) {
		t.Fatal("expected valid CRC")
	}

	resp, err := ParseResponse(frame)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x64, 0x00, 0xC8}
	if string(resp.Data) != string(want) {
		t.Fatalf("got % X, want % X", resp.Data, want)
	}

	tampered := append([]byte(nil), frame...)
	tampered[len(tampered)-1] = 0xFD
	if ValidateCRC(tampered) {
		t.Fatal("expected invalid CRC after tampering")
	}
}

func TestCRCRoundTripAndBitFlipRejection(t *testing.T) {
	body := []byte{0x11, 0x03, 0x02, 0x00, 0x0A}
	crc := CRC16(body)
	frame := append(append([]byte(nil), body...), byte(crc), byte(crc>>8))
	if !ValidateCRC(frame) {
		t.Fatal("expected constructed frame to validate")
	}
	for i := range body {
		flipped := append([]byte(nil), frame...)
		flipped[i] ^= 0x01
		if ValidateCRC(flipped) {
			t.Fatalf("bit flip at byte %d should invalidate CRC", i)
		}
	}
	flippedCRC := append([]byte(nil), frame...)
	flippedCRC[len(flippedCRC)-1] ^= 0x01
	if ValidateCRC(flippedCRC) {
		t.Fatal("CRC bit flip should invalidate frame")
	}
}

func TestBuildRequestFrameLayout(t *testing.T) {
	frame := BuildRequest(0x01, 0x1300, 8)
	if len(frame) != 8 {
		t.Fatalf("expected 8-byte frame, got %d", len(frame))
	}
	if frame[0] != 0x01 || frame[1] != funcReadHoldingRegisters {
		t.Fatalf("unexpected header: % X", frame[:2])
	}
	if frame[2] != 0x13 || frame[3] != 0x00 {
		t.Fatalf("unexpected block address: % X", frame[2:4])
	}
	if frame[4] != 0x00 || frame[5] != 0x08 {
		t.Fatalf("unexpected count: % X", frame[4:6])
	}
	if !ValidateCRC(frame) {
		t.Fatal("built frame must self-validate")
	}
}

func TestParseResponseExceptionFrame(t *testing.T) {
	body := []byte{0x01, 0x83, 0x02}
	crc := CRC16(body)
	frame := append(append([]byte(nil), body...), byte(crc), byte(crc>>8))

	_, err := ParseResponse(frame)
	if err == nil {
		t.Fatal("expected exception error")
	}
	var protoErr *errs.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected *errs.ProtocolError, got %T", err)
	}
	if protoErr.Exception == nil || *protoErr.Exception != 0x02 {
		t.Fatalf("expected exception code 0x02, got %+v", protoErr.Exception)
	}
}

func TestParseResponseRejectsBadCRC(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x02, 0x00, 0x01, 0x00, 0x00}
	if _, err := ParseResponse(frame); err == nil {
		t.Fatal("expected CRC error")
	}
}

func TestNormalizeIsIdentity(t *testing.T) {
	resp := &Response{Data: []byte{0xDE, 0xAD}}
	if string(Normalize(resp)) != string(resp.Data) {
		t.Fatal("Normalize must return data unchanged")
	}
}
