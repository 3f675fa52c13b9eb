package shutter

import (
	"math"
	"time"
)

// applyManualPosition ingests an externally commanded device value.
//
// nil clears the override. A value that does not rescale to a number is
// ignored. Before the first evaluation the value seeds the committed
// position without creating an override. A value equal to the committed
// position never creates one.
func (e *Engine) applyManualPosition(raw *float64) {
	if raw == nil {
		e.clearManual()
		return
	}

	v := e.cfg.Output.Unscale(*raw)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	if e.position == nil {
		e.position = &v
		return
	}
	if *e.position == v {
		return
	}

	e.position = &v
	if e.manualPosition == nil {
		e.manualStartedAt = e.now()
	}
	manual := v
	e.manualPosition = &manual
}

// arbitrate reconciles the automatic position of this pass with an active
// override. The override is dropped on a mode change or once the automatic
// position has converged on it.
func (e *Engine) arbitrate(automatic float64, modeChanged bool) float64 {
	if e.manualPosition == nil {
		return automatic
	}
	if modeChanged || *e.manualPosition == automatic {
		e.clearManual()
		return automatic
	}
	return *e.manualPosition
}

func (e *Engine) clearManual() {
	e.manualPosition = nil
	e.manualStartedAt = time.Time{}
}
