package device

import (
	"context"
	"strings"

	"switchlib/internal/config"
)

// Sink copies files onto a device.
type Sink interface {
	IsDeviceTarget(path string) bool
	CopyFileToDevice(ctx context.Context, src, destFolder string) error
	FileExistsOnDevice(ctx context.Context, destFolder, name string) (bool, int64, error)
	PickDeviceFolder(ctx context.Context) (string, bool, error)
	DisplayNameOf(ctx context.Context, path string) string
}

// IsDeviceTarget reports whether path uses the device scheme.
func IsDeviceTarget(path string) bool {
	return strings.HasPrefix(path, config.DeviceScheme)
}

// SplitTarget breaks "mtp://<device>/<folder>" into its device name and the
// slash separated folder inside the device.
func SplitTarget(path string) (deviceName, folder string, ok bool) {
	if !IsDeviceTarget(path) {
		return "", "", false
	}
	rest := strings.Trim(strings.TrimPrefix(path, config.DeviceScheme), "/")
	if rest == "" {
		return "", "", false
	}
	deviceName, folder, _ = strings.Cut(rest, "/")
	return deviceName, strings.Trim(folder, "/"), deviceName != ""
}
