// Package model implements the lighting device data model.
//
// # Hierarchy
//
//	Device > Zone > LED
//
// A Device is one addressable lighting unit exposed by the server (a
// keyboard, a fan hub, a memory stick). Its LEDs form one flat array; zones
// partition that array into logical groups:
//
//	Device (Keyboard)
//	├── Zone 0 "Keys"      MATRIX 6x22  LEDs [0, 104)
//	└── Zone 1 "Logo"      SINGLE       LEDs [104, 105)
//
// # Zone types
//
//   - SINGLE: one LED.
//   - LINEAR: a strip; LED position along the strip is the index offset.
//   - MATRIX: a height x width grid whose cells hold a device-level LED
//     index or NoLED for an empty cell.
//
// The union of all zone ranges exactly partitions the LED array: no gaps,
// no overlap. Validate checks this.
//
// # Runtime state
//
// Besides the static description, a Device carries two pieces of runtime
// state shared between the supervisor and running effects: the enabled
// flag (cleared when the device is unplugged) and the last color buffer
// written to it. Both are safe for concurrent use.
package model
