package relay

import (
	"encoding/json"
	"time"
)

// PointWriter is the part of *influxdb.Client telemetry writes through.
type PointWriter interface {
	WriteComponentAction(componentID, action string, argCount int, at time.Time)
	WriteSceneActivation(sceneID, name string, slots int, at time.Time)
	WritePlaybackUpdate(playbackID string, running bool, tracks int, at time.Time)
}

type sceneInfo struct {
	name  string
	slots int
}

// Telemetry records show activity as time-series points: every component
// action, every scene activation and every playback change.
//
// Scene names and slot counts are learned from scene events, so an
// activation reports the scene as it was last seen.
//
// Handle is not safe for concurrent use; Fanout calls it from one goroutine.
type Telemetry struct {
	writer PointWriter
	logger Logger
	scenes map[string]sceneInfo
}

// NewTelemetry creates a telemetry sink.
func NewTelemetry(writer PointWriter, logger Logger) *Telemetry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Telemetry{
		writer: writer,
		logger: logger,
		scenes: make(map[string]sceneInfo),
	}
}

// Handle writes the point for ev, if any.
func (t *Telemetry) Handle(ev Event) {
	switch ev.Channel {
	case ChannelComponentAction:
		t.writer.WriteComponentAction(ev.ID, ev.Action, len(ev.Args), ev.At)

	case ChannelScene:
		if ev.Data == nil {
			delete(t.scenes, ev.ID)
			return
		}
		var sc struct {
			Name  string            `json:"name"`
			Slots []json.RawMessage `json:"slots"`
		}
		if err := json.Unmarshal(ev.Data, &sc); err != nil {
			t.logger.Debug("telemetry: undecodable scene", "id", ev.ID, "error", err)
			return
		}
		t.scenes[ev.ID] = sceneInfo{name: sc.Name, slots: len(sc.Slots)}

	case ChannelActiveScene:
		if ev.ID == "" {
			return
		}
		info := t.scenes[ev.ID]
		t.writer.WriteSceneActivation(ev.ID, info.name, info.slots, ev.At)

	case ChannelPlayback:
		if ev.Data == nil {
			return
		}
		var pb struct {
			StartTime *int64 `json:"startTime"`
			Timeline  struct {
				Tracks []json.RawMessage `json:"tracks"`
			} `json:"timeline"`
		}
		if err := json.Unmarshal(ev.Data, &pb); err != nil {
			t.logger.Debug("telemetry: undecodable playback", "id", ev.ID, "error", err)
			return
		}
		t.writer.WritePlaybackUpdate(ev.ID, pb.StartTime != nil, len(pb.Timeline.Tracks), ev.At)
	}
}
