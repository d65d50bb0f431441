// Package influxdb provides InfluxDB connectivity for screener telemetry.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched non-blocking writes and health checks.
//
// # Measurements
//
//   - component_action  tags component_id, action; field args
//   - scene_activation  tag scene_id; fields name, slots
//   - playback_update   tag playback_id; fields running, tracks
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteComponentAction("v1", "play", 1, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes made after Close, or on a
// nil client, are dropped.
package influxdb
