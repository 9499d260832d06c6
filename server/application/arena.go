package application

import (
	"math/rand/v2"
)

// マップ生成パラメータ。座標は正規化 [0,1]。
const (
	platformCountMin = 3
	platformCountMax = 6

	platformXMin = 0.1
	platformXMax = 0.7
	platformYMin = 0.2
	platformYMax = 0.8
	platformWMin = 0.2
	platformWMax = 0.4
	platformHMin = 0.03
	platformHMax = 0.06

	hazardChance = 0.4
	hazardX      = 0.5
	hazardY      = 0.9
	hazardRadius = 0.15
)

// Platform は軸平行の足場矩形です。
type Platform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Hazard は円形ハザードです。
type Hazard struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// ArenaMap はマッチ開始時に一度だけ生成され、以後は不変です。
type ArenaMap struct {
	Platforms []Platform `json:"platforms"`
	Hazards   []Hazard   `json:"hazards"`
}

// GenerateArena はランダムなアリーナを生成します。
// rngを注入するのはテストで出力を固定できるようにするためです。
func GenerateArena(rng *rand.Rand) ArenaMap {
	count := platformCountMin + rng.IntN(platformCountMax-platformCountMin+1)
	platforms := make([]Platform, 0, count)
	for range count {
		platforms = append(platforms, Platform{
			X: uniform(rng, platformXMin, platformXMax),
			Y: uniform(rng, platformYMin, platformYMax),
			W: uniform(rng, platformWMin, platformWMax),
			H: uniform(rng, platformHMin, platformHMax),
		})
	}
	hazards := make([]Hazard, 0, 1)
	if rng.Float64() < hazardChance {
		hazards = append(hazards, Hazard{X: hazardX, Y: hazardY, R: hazardRadius})
	}
	return ArenaMap{Platforms: platforms, Hazards: hazards}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
