package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOptions is returned for out-of-range search parameters.
var ErrInvalidOptions = errors.New("invalid optimization options")

// Options configures one optimization request.
type Options struct {
	Algorithm  Kind `json:"algorithm"`
	Iterations int  `json:"iterations"`

	PopulationSize   int     `json:"populationSize"`
	EliteCount       int     `json:"eliteCount"`
	CrossoverRate    float64 `json:"crossoverRate"`
	MutationRate     float64 `json:"mutationRate"`
	MutationRateMin  float64 `json:"mutationRateMin"`
	MutationRateMax  float64 `json:"mutationRateMax"`
	StagnationWindow int     `json:"stagnationWindow"`

	InitialTemperature float64 `json:"initialTemperature"`
	CoolingRate        float64 `json:"coolingRate"`
	MinTemperature     float64 `json:"minTemperature"`
	ReheatFactor       float64 `json:"reheatFactor"`

	TabuTenure       int     `json:"tabuTenure"`
	NeighborhoodSize int     `json:"neighborhoodSize"`
	TabuPenalty      float64 `json:"tabuPenalty"`
	AspirationWeight float64 `json:"aspirationWeight"`

	MaxDuration     time.Duration `json:"maxDuration"`
	StallLimit      int           `json:"stallLimit"`
	AdaptEvery      int           `json:"adaptEvery"`
	Restarts        int           `json:"restarts"`
	Workers         int           `json:"workers"`
	Seed            int64         `json:"seed"`
	ResolveEachMove bool          `json:"resolveEachMove"`

	Weights Weights `json:"weights"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Algorithm:          KindTemperature,
		Iterations:         500,
		PopulationSize:     24,
		EliteCount:         2,
		CrossoverRate:      0.8,
		MutationRate:       0.1,
		MutationRateMin:    0.02,
		MutationRateMax:    0.5,
		StagnationWindow:   25,
		InitialTemperature: 50,
		CoolingRate:        0.995,
		MinTemperature:     0.01,
		ReheatFactor:       2,
		TabuTenure:         12,
		NeighborhoodSize:   16,
		TabuPenalty:        25,
		AspirationWeight:   2,
		AdaptEvery:         10,
		Restarts:           1,
		Workers:            1,
		Seed:               1,
		ResolveEachMove:    true,
		Weights:            DefaultWeights(),
	}
}

// Validate checks parameter ranges.
func (o Options) Validate() error {
	if _, err := ParseKind(string(o.Algorithm)); err != nil {
		return err
	}
	switch {
	case o.Iterations < 0:
		return fmt.Errorf("%w: iterations must be >= 0", ErrInvalidOptions)
	case o.Iterations == 0 && o.MaxDuration <= 0:
		return fmt.Errorf("%w: iterations or maxDuration is required", ErrInvalidOptions)
	case o.PopulationSize < 2:
		return fmt.Errorf("%w: populationSize must be >= 2", ErrInvalidOptions)
	case o.EliteCount < 0 || o.EliteCount >= o.PopulationSize:
		return fmt.Errorf("%w: eliteCount must be in [0, populationSize)", ErrInvalidOptions)
	case o.CrossoverRate < 0 || o.CrossoverRate > 1:
		return fmt.Errorf("%w: crossoverRate must be in [0, 1]", ErrInvalidOptions)
	case o.MutationRateMin < 0 || o.MutationRateMax > 1 || o.MutationRateMin > o.MutationRateMax:
		return fmt.Errorf("%w: mutation rate bounds must satisfy 0 <= min <= max <= 1", ErrInvalidOptions)
	case o.MutationRate < o.MutationRateMin || o.MutationRate > o.MutationRateMax:
		return fmt.Errorf("%w: mutationRate must lie within its bounds", ErrInvalidOptions)
	case o.StagnationWindow < 1:
		return fmt.Errorf("%w: stagnationWindow must be >= 1", ErrInvalidOptions)
	case o.InitialTemperature <= 0 || o.MinTemperature <= 0 || o.MinTemperature > o.InitialTemperature:
		return fmt.Errorf("%w: temperatures must satisfy 0 < min <= initial", ErrInvalidOptions)
	case o.CoolingRate <= 0 || o.CoolingRate >= 1:
		return fmt.Errorf("%w: coolingRate must be in (0, 1)", ErrInvalidOptions)
	case o.ReheatFactor < 1:
		return fmt.Errorf("%w: reheatFactor must be >= 1", ErrInvalidOptions)
	case o.TabuTenure < 1:
		return fmt.Errorf("%w: tabuTenure must be >= 1", ErrInvalidOptions)
	case o.NeighborhoodSize < 1:
		return fmt.Errorf("%w: neighborhoodSize must be >= 1", ErrInvalidOptions)
	case o.TabuPenalty < 0 || o.AspirationWeight < 0:
		return fmt.Errorf("%w: tabuPenalty and aspirationWeight must be >= 0", ErrInvalidOptions)
	case o.MaxDuration < 0 || o.StallLimit < 0 || o.AdaptEvery < 0:
		return fmt.Errorf("%w: maxDuration, stallLimit and adaptEvery must be >= 0", ErrInvalidOptions)
	case o.Restarts < 1:
		return fmt.Errorf("%w: restarts must be >= 1", ErrInvalidOptions)
	case o.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1", ErrInvalidOptions)
	}
	return o.Weights.Validate()
}

// Budget returns the controller budget derived from the options.
func (o Options) Budget() Budget {
	return Budget{
		MaxIterations: o.Iterations,
		MaxDuration:   o.MaxDuration,
		StallLimit:    o.StallLimit,
	}
}
