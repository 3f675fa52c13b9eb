package shutter

// mutation is a setter call deferred while the engine is paused.
// The set of variants is closed: one per deferrable field.
type mutation interface {
	isMutation()
}

type outsideIlluminanceSet struct{ value *float64 }
type outsideTemperatureSet struct{ value *float64 }
type insideTemperatureSet struct{ value *float64 }
type windowSet struct{ value Window }
type sunAzimuthSet struct{ value *float64 }
type sunAltitudeSet struct{ value *float64 }
type manualPositionSet struct{ value *float64 }
type weekendSet struct{ value *bool }

func (outsideIlluminanceSet) isMutation() {}
func (outsideTemperatureSet) isMutation() {}
func (insideTemperatureSet) isMutation()  {}
func (windowSet) isMutation()             {}
func (sunAzimuthSet) isMutation()         {}
func (sunAltitudeSet) isMutation()        {}
func (manualPositionSet) isMutation()     {}
func (weekendSet) isMutation()            {}

// submit applies m now, or queues it while paused.
func (e *Engine) submit(m mutation) {
	if e.paused {
		e.queue = append(e.queue, m)
		return
	}
	e.apply(m)
}

// drain applies every queued mutation in arrival order.
func (e *Engine) drain() {
	queued := e.queue
	e.queue = nil
	for _, m := range queued {
		e.apply(m)
	}
}

func (e *Engine) apply(m mutation) {
	switch m := m.(type) {
	case outsideIlluminanceSet:
		e.outsideIlluminance = m.value
	case outsideTemperatureSet:
		e.outsideTemperature = m.value
	case insideTemperatureSet:
		e.insideTemperature = m.value
	case windowSet:
		if m.value != e.window {
			e.windowChanged = true
		}
		e.window = m.value
	case sunAzimuthSet:
		e.sunAzimuth = m.value
	case sunAltitudeSet:
		e.sunAltitude = m.value
	case manualPositionSet:
		e.applyManualPosition(m.value)
	case weekendSet:
		e.weekend = m.value
	}
}
