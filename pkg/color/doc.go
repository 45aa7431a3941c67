// Package color provides the RGB value type shared by the lighting stack.
//
// Colors are plain values: dimming and HSV conversion return new values and
// never mutate the receiver. Brightness is a five-step scale that maps to a
// linear dimming factor:
//
//	OFF    0.00
//	LOW    0.25
//	MEDIUM 0.50
//	HIGH   0.75
//	MAX    1.00
package color
