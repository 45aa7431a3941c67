// Package effect implements the lighting animation engine.
//
// An Effect wraps one Definition with a lifecycle:
//
//	STOPPED -> STARTING -> RUNNING -> STOPPING -> STOPPED
//
// Start spawns one worker for the whole device set, or one per device for
// definitions marked PerDevice. Each worker repeatedly asks its Animation
// for a frame, writes the frame through an LEDWriter and sleeps for the
// delay the animation returned. Stop cancels the shared context and joins
// every worker before returning, so no write can follow a completed Stop.
//
// Starting at brightness Off pushes black to every LED and spawns nothing.
//
// The Engine holds the registry of definitions and enforces exclusivity:
// applying an effect stops every other effect first.
package effect
