package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		h    Header
	}{
		{"zero", Header{}},
		{"controller data", Header{DeviceID: 3, Type: RequestControllerData, PayloadSize: 4}},
		{"update leds", Header{DeviceID: 0xFFFFFFFF, Type: RGBControllerUpdateLEDs, PayloadSize: 1 << 20}},
		{"unknown type", Header{DeviceID: 1, Type: PacketType(9999), PayloadSize: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.h.Pack()
			if !bytes.Equal(b[0:4], []byte("ORGB")) {
				t.Fatalf("magic = %q, want ORGB", b[0:4])
			}
			got, err := UnpackHeader(b[:])
			if err != nil {
				t.Fatalf("UnpackHeader failed: %v", err)
			}
			if got != tt.h {
				t.Errorf("got %+v, want %+v", got, tt.h)
			}
		})
	}
}

func TestHeaderLittleEndian(t *testing.T) {
	h := Header{DeviceID: 1, Type: RGBControllerUpdateLEDs, PayloadSize: 0x0102}
	b := h.Pack()

	want := []byte{'O', 'R', 'G', 'B', 1, 0, 0, 0, 0x1A, 0x04, 0, 0, 0x02, 0x01, 0, 0}
	if !bytes.Equal(b[:], want) {
		t.Errorf("packed = % x, want % x", b[:], want)
	}
}

func TestUnpackHeaderErrors(t *testing.T) {
	if _, err := UnpackHeader([]byte("ORGB")); !errors.Is(err, ErrShortHeader) {
		t.Errorf("expected ErrShortHeader, got %v", err)
	}

	bad := Header{Type: RequestControllerCount}.Pack()
	bad[0] = 'X'
	if _, err := UnpackHeader(bad[:]); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}

func TestPacket(t *testing.T) {
	p := Packet(2, SetClientName, CString("rgbd"))
	if len(p) != HeaderSize+5 {
		t.Fatalf("len = %d, want %d", len(p), HeaderSize+5)
	}
	h, err := UnpackHeader(p)
	if err != nil {
		t.Fatal(err)
	}
	if h.DeviceID != 2 || h.Type != SetClientName || h.PayloadSize != 5 {
		t.Errorf("header = %+v", h)
	}
	if got := ParseCString(p[HeaderSize:]); got != "rgbd" {
		t.Errorf("payload = %q", got)
	}
}

func TestPacketTypeString(t *testing.T) {
	if got := RGBControllerUpdateLEDs.String(); got != "RGBCONTROLLER_UPDATELEDS" {
		t.Errorf("String() = %q", got)
	}
	if got := PacketType(7).String(); got != "PACKET_7" {
		t.Errorf("String() = %q", got)
	}
	if !RequestControllerData.ExpectsResponse() {
		t.Error("controller data should expect a response")
	}
	if RGBControllerUpdateLEDs.ExpectsResponse() {
		t.Error("update leds should not expect a response")
	}
}
