package simulator

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hupe1980/devicemesh/core"
)

// DeviceInfo describes one simulator device known to CoreSimulator.
type DeviceInfo struct {
	UDID    string `json:"udid"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Runtime string `json:"runtime"`
}

// Booted reports whether the device is currently booted.
func (d DeviceInfo) Booted() bool { return d.State == "Booted" }

// ListDevices enumerates the available simulator devices via
// `xcrun simctl list devices`.
func ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	return listDevices(ctx, execRunner{})
}

// FindBootedDevice returns the first booted simulator device, or a
// categorized error when none is booted.
func FindBootedDevice(ctx context.Context) (DeviceInfo, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}
	for _, d := range devices {
		if d.Booted() {
			return d, nil
		}
	}
	return DeviceInfo{}, core.NewDeviceError("list_devices", "no booted simulator device found")
}

func listDevices(ctx context.Context, runner commandRunner) ([]DeviceInfo, error) {
	out, err := runner.Output(ctx, nil, "xcrun", "simctl", "list", "devices", "--json")
	if err != nil {
		return nil, err
	}
	return parseDeviceList(out)
}

// deviceList mirrors the simctl JSON shape: devices grouped by runtime
// identifier.
type deviceList struct {
	Devices map[string][]struct {
		UDID        string `json:"udid"`
		Name        string `json:"name"`
		State       string `json:"state"`
		IsAvailable bool   `json:"isAvailable"`
	} `json:"devices"`
}

func parseDeviceList(data []byte) ([]DeviceInfo, error) {
	var list deviceList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, core.WrapDeviceError("list_devices", err)
	}

	var devices []DeviceInfo
	for runtime, group := range list.Devices {
		for _, d := range group {
			if !d.IsAvailable {
				continue
			}
			devices = append(devices, DeviceInfo{
				UDID:    d.UDID,
				Name:    d.Name,
				State:   d.State,
				Runtime: runtimeName(runtime),
			})
		}
	}
	return devices, nil
}

// runtimeName shortens a CoreSimulator runtime identifier to its trailing
// component, e.g. "com.apple.CoreSimulator.SimRuntime.iOS-17-0" -> "iOS-17-0".
func runtimeName(identifier string) string {
	if i := strings.LastIndex(identifier, "."); i >= 0 {
		return identifier[i+1:]
	}
	return identifier
}
