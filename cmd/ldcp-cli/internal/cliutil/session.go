// Package cliutil wires the shared --config/--device/--port flags into an
// opened facade.Client, the way the façade subcommands under cmd/ldcp-cli
// need it.
package cliutil

import (
	"context"
	"fmt"

	"github.com/litra-tech/ldcp-go/pkg/config"
	"github.com/litra-tech/ldcp-go/pkg/facade"
	"github.com/litra-tech/ldcp-go/pkg/location"
	"github.com/litra-tech/ldcp-go/pkg/session"
	"github.com/litra-tech/ldcp-go/pkg/telemetry"
)

// Flags holds the global connection settings every subcommand accepts,
// bound to cobra persistent flags in main.go.
type Flags struct {
	ConfigPath string
	Device     string
	Port       uint16
}

// resolveConfig loads config.Load(f.ConfigPath) and overlays f's flags on
// top of it.
func resolveConfig(f Flags) (*config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f.Device != "" {
		cfg.Device.Address = f.Device
	}
	if f.Port != 0 {
		cfg.Device.ControlPort = f.Port
	}
	if cfg.Device.Address == "" {
		return nil, fmt.Errorf("no device address: pass --device or set it in the config file")
	}
	return cfg, nil
}

// OpenClient loads config, overlays f, opens a Session against the
// resulting address, and wraps it in a facade.Client. Callers must call
// the returned closer once done to disconnect cleanly.
func OpenClient(ctx context.Context, f Flags) (client *facade.Client, closer func(), err error) {
	client, _, closer, err = OpenSession(ctx, f)
	return client, closer, err
}

// OpenSession is OpenClient plus the underlying *session.Session, for
// subcommands (scan streaming and capture) that need to call
// session-level methods the façade doesn't expose, such as
// OpenDataChannel and ReadScanFrame.
func OpenSession(ctx context.Context, f Flags) (client *facade.Client, sess *session.Session, closer func(), err error) {
	cfg, err := resolveConfig(f)
	if err != nil {
		return nil, nil, nil, err
	}

	sink, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("telemetry: %w", err)
	}

	sess = session.New(cfg.Device.DefaultTimeout, sink)
	loc := location.NewNetwork(cfg.Device.Address, cfg.Device.ControlPort)
	if code := sess.Open(ctx, loc); code.IsError() {
		sink.Close()
		return nil, nil, nil, fmt.Errorf("open session: %s", code)
	}

	closer = func() {
		sess.Close()
		sink.Close()
	}
	return facade.New(sess), sess, closer, nil
}

// OpenDataChannel is OpenSession plus opening the device's UDP data
// channel on cfg.Device.DataChannelPort, for subcommands that read scan
// frames.
func OpenDataChannel(ctx context.Context, f Flags) (client *facade.Client, sess *session.Session, closer func(), err error) {
	cfg, err := resolveConfig(f)
	if err != nil {
		return nil, nil, nil, err
	}

	client, sess, closer, err = OpenSession(ctx, f)
	if err != nil {
		return nil, nil, nil, err
	}

	if code := sess.OpenDataChannel(cfg.Device.Address, cfg.Device.DataChannelPort, cfg.Device.DataChannelPort); code.IsError() {
		closer()
		return nil, nil, nil, fmt.Errorf("open data channel: %s", code)
	}
	return client, sess, closer, nil
}
