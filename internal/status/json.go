package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Relay         RelayJSON  `json:"relay"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// RelayJSON reports the relay identity and current state.
type RelayJSON struct {
	Pin        int    `json:"pin"`
	Kind       string `json:"kind"`
	OnLevel    string `json:"on_level"`
	OffLevel   string `json:"off_level"`
	State      string `json:"state"`
	Level      string `json:"level,omitempty"`
	LastChange string `json:"last_change,omitempty"`
	ToggleMs   int64  `json:"toggle_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of operation counts.
type CountsJSON struct {
	Writes    int `json:"writes"`
	SwitchOn  int `json:"switch_on"`
	SwitchOff int `json:"switch_off"`
	Toggles   int `json:"toggles"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend     string `json:"backend"`
	Chip        string `json:"chip,omitempty"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	rj := RelayJSON{
		Pin:      snap.Relay.Pin,
		Kind:     string(snap.Relay.Kind),
		OnLevel:  snap.Relay.OnLevel.String(),
		OffLevel: snap.Relay.OffLevel.String(),
		State:    snap.State.String(),
		ToggleMs: snap.ToggleDuration.Milliseconds(),
	}
	if !snap.LastChange.IsZero() {
		rj.Level = snap.Level.String()
		rj.LastChange = snap.LastChange.UTC().Format(time.RFC3339)
	}

	return StatusInner{
		Relay:         rj,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Writes:    snap.Counts.Writes,
			SwitchOn:  snap.Counts.SwitchOn,
			SwitchOff: snap.Counts.SwitchOff,
			Toggles:   snap.Counts.Toggles,
		},
		Config: ConfigJSON{
			Backend:     snap.Config.Backend,
			Chip:        snap.Config.Chip,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
