package neat

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/campoy/unique"
)

// StatisticsReporter keeps the best genome and the member fitnesses of every
// species for each generation. Memory grows with the length of the run.
type StatisticsReporter struct {
	BaseReporter

	MostFitGenomes       []*Genome
	GenerationStatistics []map[int]map[int]float64 // species key -> genome key -> fitness
}

// NewStatisticsReporter creates an empty statistics collector.
func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{}
}

func (s *StatisticsReporter) PostEvaluate(_ *Config, _ map[int]*Genome, speciesSet *SpeciesSet, best *Genome) {
	s.MostFitGenomes = append(s.MostFitGenomes, best.Copy())

	stats := make(map[int]map[int]float64, len(speciesSet.Species))
	for sid, sp := range speciesSet.Species {
		members := make(map[int]float64, len(sp.Members))
		for k, g := range sp.Members {
			members[k] = g.Fitness
		}
		stats[sid] = members
	}
	s.GenerationStatistics = append(s.GenerationStatistics, stats)
}

// FitnessStat applies f to each generation's member fitnesses, ordered by
// species key and then genome key.
func (s *StatisticsReporter) FitnessStat(f func([]float64) float64) []float64 {
	stat := make([]float64, 0, len(s.GenerationStatistics))
	for _, gen := range s.GenerationStatistics {
		var scores []float64
		for _, sid := range slices.Sorted(maps.Keys(gen)) {
			members := gen[sid]
			for _, gid := range slices.Sorted(maps.Keys(members)) {
				scores = append(scores, members[gid])
			}
		}
		stat = append(stat, f(scores))
	}
	return stat
}

// FitnessMean returns the per-generation mean fitness.
func (s *StatisticsReporter) FitnessMean() []float64 { return s.FitnessStat(Mean) }

// FitnessStdev returns the per-generation standard deviation of the fitness.
func (s *StatisticsReporter) FitnessStdev() []float64 { return s.FitnessStat(Stdev) }

// FitnessMedian returns the per-generation median fitness.
func (s *StatisticsReporter) FitnessMedian() []float64 { return s.FitnessStat(Median) }

// BestGenomes returns the n most fit genomes ever seen.
func (s *StatisticsReporter) BestGenomes(n int) []*Genome {
	best := slices.Clone(s.MostFitGenomes)
	slices.SortStableFunc(best, func(a, b *Genome) int {
		switch {
		case a.Fitness > b.Fitness:
			return -1
		case a.Fitness < b.Fitness:
			return 1
		}
		return 0
	})
	return best[:min(n, len(best))]
}

// BestUniqueGenomes returns the n most fit genomes, each genome key at most once.
func (s *StatisticsReporter) BestUniqueGenomes(n int) []*Genome {
	best := slices.Clone(s.MostFitGenomes)
	unique.Slice(&best, func(i, j int) bool { return best[i].Key < best[j].Key })
	return (&StatisticsReporter{MostFitGenomes: best}).BestGenomes(n)
}

// BestGenome returns the most fit genome ever seen, or nil before the first generation.
func (s *StatisticsReporter) BestGenome() *Genome {
	if best := s.BestGenomes(1); len(best) > 0 {
		return best[0]
	}
	return nil
}

// SpeciesSizes returns, per generation, the size of every species seen during
// the run. Column i is species i+1.
func (s *StatisticsReporter) SpeciesSizes() [][]int {
	maxSpecies := 0
	for _, gen := range s.GenerationStatistics {
		for sid := range gen {
			maxSpecies = max(maxSpecies, sid)
		}
	}
	counts := make([][]int, 0, len(s.GenerationStatistics))
	for _, gen := range s.GenerationStatistics {
		row := make([]int, maxSpecies)
		for sid := 1; sid <= maxSpecies; sid++ {
			row[sid-1] = len(gen[sid])
		}
		counts = append(counts, row)
	}
	return counts
}

// WriteGenomeFitness writes the best and mean fitness of each generation.
func (s *StatisticsReporter) WriteGenomeFitness(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ' '
	means := s.FitnessMean()
	for i, g := range s.MostFitGenomes {
		if i >= len(means) {
			break
		}
		if err := cw.Write([]string{formatFloat(g.Fitness), formatFloat(means[i])}); err != nil {
			return fmt.Errorf("failed to write fitness history: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSpeciesCount writes the species sizes of each generation.
func (s *StatisticsReporter) WriteSpeciesCount(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ' '
	for _, row := range s.SpeciesSizes() {
		record := make([]string, len(row))
		for i, n := range row {
			record[i] = strconv.Itoa(n)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write speciation history: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
