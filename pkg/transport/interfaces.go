package transport

import (
	"context"

	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/color"
	"github.com/Emiliopg91/RogPerfTuner-sub000/pkg/model"
)

// Session is the subset of Client the supervisor depends on.
// Implemented by Client.
type Session interface {
	// ProtocolVersion returns the negotiated version.
	ProtocolVersion() uint32

	// Controllers enumerates every controller.
	Controllers(ctx context.Context) ([]*model.Device, error)

	// SetCustomMode switches a controller into direct-control mode.
	SetCustomMode(ctx context.Context, idx uint32) error

	// UpdateLEDs sets every LED of a controller.
	UpdateLEDs(ctx context.Context, idx uint32, colors []color.Color) error

	// ProfileList returns the server's saved profiles (version 2+).
	ProfileList(ctx context.Context) ([]string, error)

	// SaveProfile stores the current state under name (version 2+).
	SaveProfile(ctx context.Context, name string) error

	// LoadProfile applies a saved profile (version 2+).
	LoadProfile(ctx context.Context, name string) error

	// DeleteProfile removes a saved profile (version 2+).
	DeleteProfile(ctx context.Context, name string) error

	// SetDeviceListUpdatedHandler registers the hot-plug notification.
	SetDeviceListUpdatedHandler(fn func())

	// Done is closed when the session ends.
	Done() <-chan struct{}

	// Err returns why the session ended.
	Err() error

	// Close ends the session.
	Close() error
}

// Compile-time interface satisfaction check.
var _ Session = (*Client)(nil)
