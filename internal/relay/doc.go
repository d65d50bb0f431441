// Package relay carries manager change notifications to the outside world.
//
// The manager emits notifications while holding its lock, so they must not
// block. A Fanout copies each one into a queue per Sink, and every Sink is
// drained in order by its own goroutine, so a slow broker never holds back
// the displays. The HubSink queue is unbounded; the others drop when full:
//
//	manager ──▶ Fanout ──▶ HubSink        (WebSocket display surfaces)
//	                  ├──▶ MQTTPublisher  (retained state topics)
//	                  └──▶ Telemetry      (InfluxDB points)
//
// In the other direction a CommandListener subscribes to the MQTT command
// namespace and drives the manager from lighting desks and show controllers.
package relay
