// Package mqtt provides MQTT client connectivity for Inlet Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Inlet publishes topology change notifications over MQTT so that
// downstream consumers (dashboards, provisioning tools, fleet agents)
// can react to assignment changes without polling the HTTP API.
//
//	Inlet Core -> MQTT Broker -> Topology Consumers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all topology events
//	err = client.Subscribe(mqtt.Topics{}.AllTopology(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish an attachment event
//	topic := mqtt.Topics{}.DeviceAttached("dev-flow-01")
//	client.Publish(topic, []byte(`{"pipeline_id":"pl-ingest-main"}`), 1, false)
package mqtt
