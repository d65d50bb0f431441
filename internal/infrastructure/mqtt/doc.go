// Package mqtt provides MQTT client connectivity for the screener.
//
// The broker is the remote-control surface of a running stage: the screener
// mirrors its live state onto retained topics and listens for commands from
// lighting desks, show controllers and other external systems.
//
// # Topic Layout
//
// All topics live under a configurable prefix (default "screener"):
//
//	{prefix}/state/{scene|slice|component|playback}/{id}   retained JSON state
//	{prefix}/state/active_scene                            retained scene id
//	{prefix}/state/active_playback                         retained playback id
//	{prefix}/event/component_action/{id}                   action invocations
//	{prefix}/command/{name}                                inbound commands
//	{prefix}/system/status                                 online/offline (LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.PublishRetained(topics.State(mqtt.KindScene, "s1"), data)
//
// # Security Considerations
//
//   - TLS should be enabled whenever the broker is off-host (cfg.Broker.TLS)
//   - Commands are trusted once they reach the broker; rely on broker ACLs
package mqtt
