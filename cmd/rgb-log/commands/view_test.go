package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

func TestFormatFrameEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		DeviceIndex:  log.Uint32Ptr(3),
		Frame: &log.FrameEvent{
			Size: 128,
			Data: []byte{0x4f, 0x52, 0x47, 0x42},
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"OUT",
		"TRANSPORT",
		"Frame",
		"dev=3",
		"128 bytes",
		"4f524742",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "truncated") {
		t.Errorf("unexpected truncated marker: %s", output)
	}
}

func TestFormatPacketEvent(t *testing.T) {
	rtt := 1500 * time.Microsecond
	event := log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerProtocol,
		Packet:    &log.PacketEvent{Type: wire.RequestControllerData, PayloadSize: 512, RoundTrip: &rtt},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{"[conn:-]", "IN", "PROTOCOL", "REQUEST_CONTROLLER_DATA", "512 bytes", "1.500ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatUnsolicitedPacket(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerProtocol,
		Packet:    &log.PacketEvent{Type: wire.DeviceListUpdated, Unsolicited: true},
	})
	if !strings.Contains(buf.String(), "DEVICE_LIST_UPDATED") || !strings.Contains(buf.String(), "Unsolicited") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionNone,
		Layer:     log.LayerSupervisor,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityDevice,
			Name:     "ASUS Keyboard",
			OldState: "ENABLED",
			NewState: "DISABLED",
			Reason:   "usb removed",
		},
	})
	output := buf.String()

	for _, want := range []string{"LOCAL", "SUPERVISOR", "State", `DEVICE "ASUS Keyboard"`, "ENABLED -> DISABLED", "Reason: usb removed"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerEngine,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Layer: log.LayerEngine, Message: "boom", Context: "Spectrum step"},
	})
	output := buf.String()

	for _, want := range []string{"Error", "Message: boom", "Context: Spectrum step"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestShortenConnID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "-"},
		{"abc", "abc"},
		{"abcdefgh", "abcdefgh"},
		{"abcdefghijkl", "abcdefgh"},
	}
	for _, tt := range tests {
		if got := shortenConnID(tt.in); got != tt.want {
			t.Errorf("shortenConnID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Nanosecond, "0.500us"},
		{2500 * time.Microsecond, "2.500ms"},
		{1500 * time.Millisecond, "1.500s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Engine"); err != nil || l != log.LayerEngine {
		t.Errorf("ParseLayerFlag = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("wire"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if d, err := ParseDirectionFlag("local"); err != nil || d != log.DirectionNone {
		t.Errorf("ParseDirectionFlag = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
	if c, err := ParseCategoryFlag("ERROR"); err != nil || c != log.CategoryError {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("snapshot"); err == nil {
		t.Error("expected error for unknown category")
	}
	if pt, err := ParsePacketTypeFlag("rgbcontroller_updateleds"); err != nil || pt != wire.RGBControllerUpdateLEDs {
		t.Errorf("ParsePacketTypeFlag = %v, %v", pt, err)
	}
	if pt, err := ParsePacketTypeFlag("1100"); err != nil || pt != wire.RGBControllerSetCustomMode {
		t.Errorf("ParsePacketTypeFlag numeric = %v, %v", pt, err)
	}
	if _, err := ParsePacketTypeFlag("bogus"); err == nil {
		t.Error("expected error for unknown packet type")
	}
	if d, err := ParseDeviceFlag("7"); err != nil || d != 7 {
		t.Errorf("ParseDeviceFlag = %v, %v", d, err)
	}
	if _, err := ParseDeviceFlag("-1"); err == nil {
		t.Error("expected error for negative device")
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sampleSession())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if got := strings.Count(output, "[conn:"); got != 6 {
		t.Errorf("expected 6 events, got %d: %s", got, output)
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestLogFile(t, sampleSession())

	update := wire.RGBControllerUpdateLEDs
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{PacketType: &update}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if got := strings.Count(output, "[conn:"); got != 1 {
		t.Errorf("expected 1 event, got %d: %s", got, output)
	}
	if !strings.Contains(output, "RGBCONTROLLER_UPDATELEDS dev=2") {
		t.Errorf("unexpected output: %s", output)
	}

	dev := uint32(2)
	buf.Reset()
	if err := RunView(path, ViewFilter{DeviceIndex: &dev}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "[conn:"); got != 2 {
		t.Errorf("expected 2 device events, got %d", got)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView("/nonexistent/file.rlog", ViewFilter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}
