package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"switchlib/internal/config"
	"switchlib/internal/fileutil"
	"switchlib/internal/logging"
	"switchlib/internal/services"
)

// MountSink maps device targets onto directories below a mount root.
type MountSink struct {
	root           string
	settleInterval time.Duration
	settleTimeout  time.Duration
	logger         *slog.Logger
}

// NewMountSink builds a sink over mountRoot. Each copy waits until the file
// size reported by the mount stays unchanged for one interval, giving up
// after timeout.
func NewMountSink(mountRoot string, interval, timeout time.Duration, logger *slog.Logger) *MountSink {
	return &MountSink{
		root:           mountRoot,
		settleInterval: interval,
		settleTimeout:  timeout,
		logger:         logging.NewComponentLogger(logger, "device"),
	}
}

// NewMountSinkFromConfig builds the sink described by the device section.
func NewMountSinkFromConfig(cfg *config.Config, logger *slog.Logger) *MountSink {
	return NewMountSink(cfg.Device.MountRoot, cfg.SettleInterval(), cfg.SettleTimeout(), logger)
}

// IsDeviceTarget reports whether path uses the device scheme.
func (s *MountSink) IsDeviceTarget(path string) bool {
	return IsDeviceTarget(path)
}

// Resolve returns the local directory backing a device target. The device
// name matches a mount whose directory name equals it or contains it, case
// insensitively (gvfs names mounts "mtp:host=<name>").
func (s *MountSink) Resolve(target string) (string, error) {
	deviceName, folder, ok := SplitTarget(target)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "device", "resolve", fmt.Sprintf("%q is not a device target", target), nil)
	}
	mount, err := s.findMount(deviceName)
	if err != nil {
		return "", err
	}
	if folder == "" {
		return mount, nil
	}
	return filepath.Join(mount, filepath.FromSlash(folder)), nil
}

func (s *MountSink) findMount(deviceName string) (string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "device", "mounts", s.root, err)
	}
	want := strings.ToLower(deviceName)
	var partial string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if name == want {
			return filepath.Join(s.root, entry.Name()), nil
		}
		if partial == "" && strings.Contains(name, want) {
			partial = filepath.Join(s.root, entry.Name())
		}
	}
	if partial != "" {
		return partial, nil
	}
	return "", services.Wrap(services.ErrNotFound, "device", "mounts", fmt.Sprintf("device %q is not mounted under %s", deviceName, s.root), nil)
}

// CopyFileToDevice copies src into destFolder and waits for the device to
// report a stable size.
func (s *MountSink) CopyFileToDevice(ctx context.Context, src, destFolder string) error {
	dir, err := s.Resolve(destFolder)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create device folder: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := services.CheckCancelled(ctx, "device"); err != nil {
		return err
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("copy %s to device: %w", filepath.Base(src), err)
	}
	return s.waitStable(ctx, dst)
}

// waitStable polls the size of path until it exists and two consecutive
// reads agree on its size.
func (s *MountSink) waitStable(ctx context.Context, path string) error {
	if s.settleInterval <= 0 {
		return nil
	}
	deadline := time.Now().Add(s.settleTimeout)
	last := int64(-1)
	ticker := time.NewTicker(s.settleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return services.Wrap(services.ErrCancelled, "device", "settle", filepath.Base(path), ctx.Err())
		case <-ticker.C:
		}
		size, exists, err := fileutil.SizeOf(path)
		if err != nil {
			return fmt.Errorf("inspect device file: %w", err)
		}
		if exists && size == last {
			return nil
		}
		if exists {
			last = size
		}
		if s.settleTimeout > 0 && time.Now().After(deadline) {
			return services.Wrap(services.ErrTimeout, "device", "settle", filepath.Base(path), nil)
		}
	}
}

// FileExistsOnDevice reports whether name exists in destFolder and its size.
func (s *MountSink) FileExistsOnDevice(_ context.Context, destFolder, name string) (bool, int64, error) {
	dir, err := s.Resolve(destFolder)
	if err != nil {
		return false, 0, err
	}
	size, exists, err := fileutil.SizeOf(filepath.Join(dir, name))
	if err != nil {
		return false, 0, err
	}
	return exists, size, nil
}

// PickDeviceFolder returns the root of the only mounted device. Several or
// no mounts leave the choice to the user.
func (s *MountSink) PickDeviceFolder(_ context.Context) (string, bool, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("list mounts: %w", err)
	}
	var mounts []string
	for _, entry := range entries {
		if entry.IsDir() {
			mounts = append(mounts, entry.Name())
		}
	}
	if len(mounts) != 1 {
		return "", false, nil
	}
	return config.DeviceScheme + mounts[0], true, nil
}

// DisplayNameOf returns a readable name for a device target, or path itself
// when it cannot be resolved.
func (s *MountSink) DisplayNameOf(_ context.Context, path string) string {
	deviceName, folder, ok := SplitTarget(path)
	if !ok {
		return path
	}
	mount, err := s.findMount(deviceName)
	if err != nil {
		return path
	}
	name := filepath.Base(mount)
	if _, host, found := strings.Cut(name, "host="); found {
		name = host
	}
	if folder == "" {
		return name
	}
	return name + "/" + folder
}
