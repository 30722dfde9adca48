package usecases

import (
	"fmt"

	"measurements-server/internal/recording/domain"
)

type RecorderCollection struct {
	recorders []Recorder
	byID      map[string]Recorder
}

func NewRecorderCollection(recorders ...Recorder) (*RecorderCollection, error) {
	collection := &RecorderCollection{
		recorders: make([]Recorder, 0, len(recorders)),
		byID:      make(map[string]Recorder, len(recorders)),
	}

	for _, recorder := range recorders {
		if _, exists := collection.byID[recorder.ID()]; exists {
			return nil, fmt.Errorf("%w: duplicated recorder id %s", domain.ErrInvalidConfig, recorder.ID())
		}
		collection.recorders = append(collection.recorders, recorder)
		collection.byID[recorder.ID()] = recorder
	}

	return collection, nil
}

func (c *RecorderCollection) FindByID(id string) (Recorder, error) {
	recorder, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: recorder %s", domain.ErrNotFound, id)
	}

	return recorder, nil
}

func (c *RecorderCollection) All() []Recorder {
	return c.recorders
}

func (c *RecorderCollection) Periodic() []PeriodicRecording {
	var periodic []PeriodicRecording
	for _, recorder := range c.recorders {
		if p, ok := recorder.(PeriodicRecording); ok {
			periodic = append(periodic, p)
		}
	}
	return periodic
}
