package player

import (
	"slices"

	"github.com/keshon/rainymusic/internal/music/audio"
)

const MaxEqGainDB = 10.0

// Center frequencies in Hz, in band order.
var HzBands = [audio.BandCount]int{20, 40, 63, 100, 150, 250, 400, 450, 630, 1000, 1600, 2500, 4000, 10000, 16000}

// Levels are normalized to [-1, 1], i.e. gain in dB divided by ten.
var EqPresets = map[string][audio.BandCount]float64{
	"flat":  {},
	"boost": {-0.075, 0.125, 0.125, 0.1, 0.1, 0.05, 0.075, 0, 0, 0, 0, 0, 0.125, 0.15, 0.05},
	"metal": {0, 0.1, 0.1, 0.15, 0.13, 0.1, 0, 0.125, 0.175, 0.175, 0.125, 0.125, 0.1, 0.075, 0},
	"piano": {-0.25, -0.25, -0.125, 0, 0.25, 0.25, 0, -0.25, -0.25, 0, 0, 0.5, 0.25, -0.025, 0},
}

// ResolveBand maps a 1-based band number or a center frequency to a 0-based
// band index.
func ResolveBand(band int) (int, error) {
	if band >= 1 && band <= audio.BandCount {
		return band - 1, nil
	}
	if i := slices.Index(HzBands[:], band); i >= 0 {
		return i, nil
	}
	return 0, ErrUnknownEqBand
}

func bandsFromLevels(levels [audio.BandCount]float64) []audio.Band {
	bands := make([]audio.Band, audio.BandCount)
	for i, level := range levels {
		bands[i] = audio.Band{Band: i, GainDB: level * MaxEqGainDB}
	}
	return bands
}
