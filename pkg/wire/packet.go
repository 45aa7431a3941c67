package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// PacketType identifies the payload carried by a packet.
type PacketType uint32

// Packet types understood by the lighting server.
const (
	RequestControllerCount PacketType = 0
	RequestControllerData  PacketType = 1
	RequestProtocolVersion PacketType = 40
	SetClientName          PacketType = 50
	DeviceListUpdated      PacketType = 100
	RequestProfileList     PacketType = 150
	RequestSaveProfile     PacketType = 151
	RequestLoadProfile     PacketType = 152
	RequestDeleteProfile   PacketType = 153
	RequestPluginList      PacketType = 200
	PluginSpecific         PacketType = 201

	RGBControllerResizeZone      PacketType = 1000
	RGBControllerClearSegments   PacketType = 1001
	RGBControllerAddSegment      PacketType = 1002
	RGBControllerUpdateLEDs      PacketType = 1050
	RGBControllerUpdateZoneLEDs  PacketType = 1051
	RGBControllerUpdateSingleLED PacketType = 1052
	RGBControllerSetCustomMode   PacketType = 1100
	RGBControllerUpdateMode      PacketType = 1101
	RGBControllerSaveMode        PacketType = 1102
)

var packetNames = map[PacketType]string{
	RequestControllerCount:       "REQUEST_CONTROLLER_COUNT",
	RequestControllerData:        "REQUEST_CONTROLLER_DATA",
	RequestProtocolVersion:       "REQUEST_PROTOCOL_VERSION",
	SetClientName:                "SET_CLIENT_NAME",
	DeviceListUpdated:            "DEVICE_LIST_UPDATED",
	RequestProfileList:           "REQUEST_PROFILE_LIST",
	RequestSaveProfile:           "REQUEST_SAVE_PROFILE",
	RequestLoadProfile:           "REQUEST_LOAD_PROFILE",
	RequestDeleteProfile:         "REQUEST_DELETE_PROFILE",
	RequestPluginList:            "REQUEST_PLUGIN_LIST",
	PluginSpecific:               "PLUGIN_SPECIFIC",
	RGBControllerResizeZone:      "RGBCONTROLLER_RESIZEZONE",
	RGBControllerClearSegments:   "RGBCONTROLLER_CLEARSEGMENTS",
	RGBControllerAddSegment:      "RGBCONTROLLER_ADDSEGMENT",
	RGBControllerUpdateLEDs:      "RGBCONTROLLER_UPDATELEDS",
	RGBControllerUpdateZoneLEDs:  "RGBCONTROLLER_UPDATEZONELEDS",
	RGBControllerUpdateSingleLED: "RGBCONTROLLER_UPDATESINGLELED",
	RGBControllerSetCustomMode:   "RGBCONTROLLER_SETCUSTOMMODE",
	RGBControllerUpdateMode:      "RGBCONTROLLER_UPDATEMODE",
	RGBControllerSaveMode:        "RGBCONTROLLER_SAVEMODE",
}

// String returns the protocol name of the packet type.
func (p PacketType) String() string {
	if name, ok := packetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PACKET_%d", uint32(p))
}

// ExpectsResponse reports whether the server answers a request of this type.
func (p PacketType) ExpectsResponse() bool {
	switch p {
	case RequestControllerCount, RequestControllerData, RequestProtocolVersion,
		RequestProfileList, RequestPluginList, PluginSpecific:
		return true
	default:
		return false
	}
}

// ParsePacketType returns the packet type whose protocol name equals s,
// ignoring case. PACKET_<n> and bare decimal codes are also accepted.
func ParsePacketType(s string) (PacketType, error) {
	for p, name := range packetNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	num := s
	if len(s) > 7 && strings.EqualFold(s[:7], "PACKET_") {
		num = s[7:]
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown packet type %q", s)
	}
	return PacketType(n), nil
}
