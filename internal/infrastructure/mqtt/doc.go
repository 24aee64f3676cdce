// Package mqtt connects Doorsense to an MQTT broker.
//
// Door sensors publish their reports to doorsense/sensor/{sensor_id}/entrance
// and Doorsense republishes every stored entrance to doorsense/events/entrance.
// The package wraps paho.mqtt.golang with:
//   - auto-reconnect with backoff and subscription restoration
//   - a retained status per backend on doorsense/system/{client_id}/status,
//     set to offline by the broker's Last Will when the backend vanishes
//   - topic filter validation and panic recovery around message handlers
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllSensorEntrances(), 1,
//	    func(topic string, payload []byte) error {
//	        sensorID, _ := mqtt.ParseSensorEntrance(topic)
//	        ...
//	    })
package mqtt
