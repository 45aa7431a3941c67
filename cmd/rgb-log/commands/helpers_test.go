package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/wire"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.rlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

var sessionStart = time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)

// sampleSession is a short capture: handshake, one LED update with its
// frame, an effect start and a write error.
func sampleSession() []log.Event {
	rtt := 2 * time.Millisecond
	return []log.Event{
		{Timestamp: sessionStart, ConnectionID: "conn-aaaa-1111", Direction: log.DirectionOut,
			Layer: log.LayerProtocol, Category: log.CategoryMessage,
			Packet: &log.PacketEvent{Type: wire.RequestProtocolVersion, PayloadSize: 4}},
		{Timestamp: sessionStart.Add(time.Millisecond), ConnectionID: "conn-aaaa-1111", Direction: log.DirectionIn,
			Layer: log.LayerProtocol, Category: log.CategoryMessage,
			Packet: &log.PacketEvent{Type: wire.RequestProtocolVersion, PayloadSize: 4, RoundTrip: &rtt}},
		{Timestamp: sessionStart.Add(time.Second), ConnectionID: "conn-aaaa-1111", Direction: log.DirectionOut,
			Layer: log.LayerTransport, Category: log.CategoryMessage, DeviceIndex: log.Uint32Ptr(2),
			Frame: &log.FrameEvent{Size: 46, Data: []byte{0x4f, 0x52, 0x47, 0x42}, Truncated: true}},
		{Timestamp: sessionStart.Add(time.Second), ConnectionID: "conn-aaaa-1111", Direction: log.DirectionOut,
			Layer: log.LayerProtocol, Category: log.CategoryMessage, DeviceIndex: log.Uint32Ptr(2),
			Packet: &log.PacketEvent{Type: wire.RGBControllerUpdateLEDs, PayloadSize: 30}},
		{Timestamp: sessionStart.Add(2 * time.Second), Direction: log.DirectionNone,
			Layer: log.LayerEngine, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityEffect, Name: "Rainbow",
				OldState: "STARTING", NewState: "RUNNING", Reason: "brightness HIGH"}},
		{Timestamp: sessionStart.Add(3 * time.Second), Direction: log.DirectionNone,
			Layer: log.LayerEngine, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerEngine, Message: "session closed", Context: "Rainbow write"}},
	}
}
