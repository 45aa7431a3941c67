// Package supervisor owns the lighting server and everything around it.
//
// A Supervisor launches the server subprocess on an ephemeral port (or
// attaches to a running server), polls the port until it accepts
// connections, opens a protocol session, enumerates controllers and drives
// them through the effect engine. It reconciles USB hot-plug changes:
// removed devices are disabled in place, added devices trigger a bounced
// reload that re-applies the active effect. With recovery enabled a lost
// session or crashed server is brought back with exponential backoff.
//
// The exported methods form the API used by the rest of the daemon:
//
//	Start, Stop, ApplyEffect, AvailableEffects, SupportsColor, Color,
//	DisableDevice, CompatibleDevices, OnUSBChanged, AppendCustomEffect
package supervisor
