package shutter

import "strings"

type dayInput struct {
	Band        ShadingConfig
	Temperature TemperatureBand
	Open        float64

	// Shading reports whether shade is the special carried over from the
	// previous pass in this mode. It selects the exit thresholds.
	Shading bool

	Illuminance *float64
	Azimuth     *float64
	Altitude    *float64
	Outside     *float64
	Inside      *float64
}

// axis is one resolved start/end pair of the shading band.
type axis struct {
	start, end *float64
}

func resolveAxis(start, end *float64) axis {
	if start == nil {
		start = end
	}
	if end == nil {
		end = start
	}
	return axis{start: start, end: end}
}

func (a axis) configured() bool {
	return a.start != nil
}

// evaluateDay applies the shading band and temperature vetoes.
//
// Altitude and illuminance use the start threshold to enter shade and the
// end threshold to stay in it. Azimuth always uses the range (start, end].
func evaluateDay(in dayInput) PolicyResult {
	open := PolicyResult{Position: in.Open}

	altitude := resolveAxis(in.Band.StartAltitude, in.Band.EndAltitude)
	azimuth := resolveAxis(in.Band.StartAzimuth, in.Band.EndAzimuth)
	illuminance := resolveAxis(in.Band.StartIlluminance, in.Band.EndIlluminance)

	var (
		hits    []string
		miss    string
		applied bool
	)
	disqualify := func(reason string) {
		if miss == "" {
			miss = reason
		}
	}

	if altitude.configured() && in.Altitude != nil {
		applied = true
		alt := *in.Altitude
		switch {
		case in.Shading && alt >= *altitude.end:
			hits = append(hits, "altitude ≥ "+formatNumber(*altitude.end))
		case in.Shading:
			disqualify("altitude < " + formatNumber(*altitude.end))
		case alt > *altitude.start:
			hits = append(hits, "altitude > "+formatNumber(*altitude.start))
		default:
			disqualify("altitude ≤ " + formatNumber(*altitude.start))
		}
	}

	if azimuth.configured() && in.Azimuth != nil {
		applied = true
		az := *in.Azimuth
		switch {
		case az <= *azimuth.start:
			disqualify("azimuth ≤ " + formatNumber(*azimuth.start))
		case az > *azimuth.end:
			disqualify("azimuth > " + formatNumber(*azimuth.end))
		default:
			hits = append(hits, formatNumber(*azimuth.start)+" < azimuth ≤ "+formatNumber(*azimuth.end))
		}
	}

	if illuminance.configured() && in.Illuminance != nil {
		applied = true
		lux := *in.Illuminance
		switch {
		case in.Shading && lux >= *illuminance.end:
			hits = append(hits, "illuminance ≥ "+formatNumber(*illuminance.end))
		case in.Shading:
			disqualify("illuminance < " + formatNumber(*illuminance.end))
		case lux >= *illuminance.start:
			hits = append(hits, "illuminance ≥ "+formatNumber(*illuminance.start))
		default:
			disqualify("illuminance < " + formatNumber(*illuminance.start))
		}
	}

	if !applied {
		return open
	}
	if miss != "" {
		open.Reason = miss
		return open
	}

	if veto := temperatureVeto(in.Temperature, in.Outside, "outside"); veto != "" {
		open.Reason = veto
		return open
	}
	if veto := temperatureVeto(in.Temperature, in.Inside, "inside"); veto != "" {
		open.Reason = veto
		return open
	}

	return PolicyResult{
		Position: in.Band.PositionClosed,
		Special:  SpecialShade,
		Reason:   strings.Join(hits, ", "),
	}
}

// temperatureVeto returns a reason when a known temperature is too low
// to justify shading.
func temperatureVeto(band TemperatureBand, temp *float64, label string) string {
	if temp == nil {
		return ""
	}
	switch {
	case band.Desired != nil && *temp < *band.Desired:
		return label + " temp < " + formatNumber(*band.Desired)
	case band.Max != nil && *temp < *band.Max:
		return label + " temp < " + formatNumber(*band.Max)
	}
	return ""
}
