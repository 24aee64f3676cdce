// Package entrance records door sensor events and aggregates them.
//
// Each event is an immutable Log row holding the number of seconds a person
// spent in the doorway. Logs are never updated or deleted.
//
// Sensor reports from every transport (REST, procedure call, MQTT) go
// through a Recorder, which validates the duration, stores the log with one
// repository call and then notifies the registered observers:
//
//	rec := entrance.NewRecorder(repo, logger)
//	rec.AddObserver(hub)
//	log, err := rec.Record(ctx, 15, entrance.SourceREST)
//
// Aggregations are computed in UTC. Daily statistics cover a trailing window
// of days×24h from now; live statistics cover the current UTC calendar date.
package entrance
