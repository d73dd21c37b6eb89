package api

import (
	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/celerix-dev/certify-one/internal/logger"
)

var eventTitles = map[engine.Op]string{
	engine.OpAdd:        "Training Added",
	engine.OpUpdate:     "Training Updated",
	engine.OpDelete:     "Training Deleted",
	engine.OpBulkDelete: "Trainings Deleted",
}

// EventLogger reports store mutations the way the dashboard announced them.
func EventLogger(log *logger.Logger) engine.Observer {
	log = log.With("component", "TrainingEvents")
	return func(ev engine.Event) {
		if ev.Err != nil {
			log.Warn("Training "+string(ev.Op)+" failed", "id", ev.ID, "kind", ev.Kind, "error", ev.Err)
			return
		}
		fields := []interface{}{"op", ev.Op}
		if ev.ID != "" {
			fields = append(fields, "id", ev.ID, "kind", ev.Kind)
		}
		if ev.Op == engine.OpBulkDelete {
			fields = append(fields, "count", ev.Count)
		}
		log.Info(eventTitles[ev.Op], fields...)
	}
}
