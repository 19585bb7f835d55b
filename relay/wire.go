package relay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/devicemesh/core"
	"github.com/hupe1980/devicemesh/diagnostic"
)

// actionDocument is the wire form of an action: a kind tag plus the payload
// fields of that variant. Unknown kinds decode into core.CustomAction so the
// unimplemented fallback stays reachable over the wire.
type actionDocument struct {
	Kind string `json:"kind"`

	// install
	Path     string `json:"path,omitempty"`
	CodeSign bool   `json:"codesign,omitempty"`

	// uninstall / terminate
	BundleID string `json:"bundle_id,omitempty"`

	// launch_app
	Launch *core.AppLaunchConfig `json:"launch,omitempty"`

	// launch_xctest
	Test           *core.TestLaunchConfig `json:"test,omitempty"`
	TimeoutSeconds int                    `json:"timeout_seconds,omitempty"`

	// diagnose
	Query  *diagnostic.Query `json:"query,omitempty"`
	Format diagnostic.Format `json:"format,omitempty"`

	// custom
	Payload any `json:"payload,omitempty"`
}

// DecodeAction parses the wire form of an action. Recognized kinds map onto
// their typed variants; anything else becomes a CustomAction carrying the
// kind as its name.
func DecodeAction(data []byte) (core.Action, error) {
	var doc actionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed action document: %w", err)
	}

	switch core.ActionKind(doc.Kind) {
	case core.ActionKindDiagnose:
		action := core.DiagnoseAction{Format: doc.Format}
		if doc.Query != nil {
			action.Query = *doc.Query
		}
		return action, nil
	case core.ActionKindInstall:
		return core.InstallAction{Path: doc.Path, CodeSign: doc.CodeSign}, nil
	case core.ActionKindUninstall:
		return core.UninstallAction{BundleID: doc.BundleID}, nil
	case core.ActionKindLaunchApp:
		action := core.LaunchAppAction{}
		if doc.Launch != nil {
			action.Config = *doc.Launch
		}
		return action, nil
	case core.ActionKindLaunchXCTest:
		action := core.LaunchXCTestAction{}
		if doc.Test != nil {
			action.Config = *doc.Test
		}
		if doc.TimeoutSeconds > 0 {
			action.Config.Timeout = time.Duration(doc.TimeoutSeconds) * time.Second
		}
		return action, nil
	case core.ActionKindListApps:
		return core.ListAppsAction{}, nil
	case core.ActionKindRecordStart:
		return core.RecordStartAction{Path: doc.Path}, nil
	case core.ActionKindRecordStop:
		return core.RecordStopAction{}, nil
	case core.ActionKindTerminate:
		return core.TerminateAction{BundleID: doc.BundleID}, nil
	}
	if doc.Kind == "" {
		return nil, fmt.Errorf("action document is missing a kind")
	}
	return core.CustomAction{Name: doc.Kind, Payload: doc.Payload}, nil
}
