package supervisor

import (
	"context"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/log"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/usb"
)

// refreshKnown records the compatible devices connected right now as the
// baseline for the next hot-plug diff.
func (s *Supervisor) refreshKnown() {
	if s.cfg.Enumerator == nil {
		return
	}
	current, err := s.compatibleConnected()
	if err != nil {
		s.warnLog("usb enumeration failed", "error", err)
		return
	}
	s.usbMu.Lock()
	s.known = current
	s.usbMu.Unlock()
}

func (s *Supervisor) compatibleConnected() ([]usb.Identifier, error) {
	connected, err := s.cfg.Enumerator.Devices()
	if err != nil {
		return nil, err
	}
	return usb.Compatible(s.cfg.Rules, connected), nil
}

// OnUSBChanged reconciles a USB add or remove notification. Devices that
// disappeared are disabled. If any compatible device appeared the server
// is reloaded once and the active effect re-applied.
func (s *Supervisor) OnUSBChanged(ctx context.Context) error {
	if s.cfg.Enumerator == nil {
		return nil
	}
	current, err := s.compatibleConnected()
	if err != nil {
		s.warnLog("usb enumeration failed", "error", err)
		return err
	}

	s.usbMu.Lock()
	added, removed := usb.Diff(s.known, current)
	s.known = current
	s.usbMu.Unlock()

	for _, id := range removed {
		s.infoLog("compatible usb device removed", "usb", id.String(), "name", id.DisplayName())
		for _, d := range s.Devices() {
			if d.Enabled() && id.Matches(d.Name) {
				d.SetEnabled(false)
				s.infoLog("device disabled", "device", d.String())
				s.logStateNamed(log.StateEntityDevice, d.Name, "ENABLED", "DISABLED", "usb "+id.String()+" removed")
			}
		}
	}

	if len(added) == 0 {
		return nil
	}
	for _, id := range added {
		s.infoLog("compatible usb device added", "usb", id.String(), "name", id.DisplayName())
	}
	if !s.Running() {
		return nil
	}
	return s.Reload(ctx)
}

// WatchUSB runs OnUSBChanged for every event until ctx is done or events
// is closed.
func (s *Supervisor) WatchUSB(ctx context.Context, events <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if err := s.OnUSBChanged(ctx); err != nil {
				s.warnLog("hot-plug reconciliation failed", "error", err)
			}
		}
	}
}
