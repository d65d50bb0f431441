package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by screener.
const (
	MeasurementComponentAction = "component_action"
	MeasurementSceneActivation = "scene_activation"
	MeasurementPlaybackUpdate  = "playback_update"
)

// WriteComponentAction records one component action invocation, whether it
// came from an operator, a remote command or a playback timer.
//
// Example:
//
//	client.WriteComponentAction("v1", "play", 1, time.Now())
func (c *Client) WriteComponentAction(componentID, action string, argCount int, at time.Time) {
	c.WritePointWithTime(MeasurementComponentAction,
		map[string]string{
			"component_id": componentID,
			"action":       action,
		},
		map[string]any{
			"args": argCount,
		},
		at,
	)
}

// WriteSceneActivation records the active scene switching to sceneID.
func (c *Client) WriteSceneActivation(sceneID, name string, slots int, at time.Time) {
	c.WritePointWithTime(MeasurementSceneActivation,
		map[string]string{
			"scene_id": sceneID,
		},
		map[string]any{
			"name":  name,
			"slots": slots,
		},
		at,
	)
}

// WritePlaybackUpdate records a playback change. running is true while a
// run started by StartPlayback is in progress.
func (c *Client) WritePlaybackUpdate(playbackID string, running bool, tracks int, at time.Time) {
	c.WritePointWithTime(MeasurementPlaybackUpdate,
		map[string]string{
			"playback_id": playbackID,
		},
		map[string]any{
			"running": running,
			"tracks":  tracks,
		},
		at,
	)
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a custom point with an explicit timestamp.
// Points written while disconnected are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
