// Package catalog decodes and encodes controller descriptions.
//
// Parsing is pure: given the negotiated protocol version and the raw
// REQUEST_CONTROLLER_DATA payload it builds a model.Device. No I/O, no
// shared state. Encode is the inverse and is used by tests and the stub
// server.
//
// Field layout differences by version:
//
//	v0  base layout
//	v1  vendor string after the device name
//	v3  brightness_min/max and brightness in every mode
//	v4  segment list at the end of every zone
//
// Versions above the highest known layout decode with that layout.
package catalog
