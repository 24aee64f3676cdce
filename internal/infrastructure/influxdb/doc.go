// Package influxdb mirrors entrance events into InfluxDB v2.
//
// SQLite stays the system of record; InfluxDB receives a copy of every
// stored entrance as a point in the "entrance" measurement with a "source"
// tag and a "duration_s" field, for long-range dashboards.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteEntrance("rest", 15, time.Now())
//
// Writes are batched according to batch_size and flush_interval and failures
// are reported asynchronously through SetOnError.
package influxdb
