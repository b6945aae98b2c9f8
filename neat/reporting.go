package neat

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/gosuri/uitable"
)

// Reporter observes a run. Reporters are called synchronously by the
// generational loop and must not modify the state they are handed.
type Reporter interface {
	StartGeneration(generation int)
	EndGeneration(config *Config, population map[int]*Genome, speciesSet *SpeciesSet)
	PostEvaluate(config *Config, population map[int]*Genome, speciesSet *SpeciesSet, best *Genome)
	PostReproduction(config *Config, population map[int]*Genome, speciesSet *SpeciesSet)
	CompleteExtinction()
	FoundSolution(config *Config, generation int, best *Genome)
	SpeciesStagnant(speciesID int, species *Species)
	Info(msg string)
}

// BaseReporter implements every Reporter method as a no-op. Embed it to
// override only the events you care about.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int) {}
func (BaseReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {}
func (BaseReporter) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {}
func (BaseReporter) PostReproduction(*Config, map[int]*Genome, *SpeciesSet) {}
func (BaseReporter) CompleteExtinction() {}
func (BaseReporter) FoundSolution(*Config, int, *Genome) {}
func (BaseReporter) SpeciesStagnant(int, *Species) {}
func (BaseReporter) Info(string) {}

// ReporterSet fans every event out to its reporters in the order they were
// added. A nil *ReporterSet discards all events.
type ReporterSet struct {
	reporters []Reporter
}

// NewReporterSet creates a set holding the given reporters.
func NewReporterSet(reporters ...Reporter) *ReporterSet {
	return &ReporterSet{reporters: reporters}
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

// Remove unregisters a reporter.
func (rs *ReporterSet) Remove(r Reporter) {
	rs.reporters = slices.DeleteFunc(rs.reporters, func(x Reporter) bool { return x == r })
}

// Len returns the number of registered reporters.
func (rs *ReporterSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.reporters)
}

func (rs *ReporterSet) each(fn func(Reporter)) {
	if rs == nil {
		return
	}
	for _, r := range rs.reporters {
		fn(r)
	}
}

func (rs *ReporterSet) StartGeneration(generation int) {
	rs.each(func(r Reporter) { r.StartGeneration(generation) })
}

func (rs *ReporterSet) EndGeneration(config *Config, population map[int]*Genome, speciesSet *SpeciesSet) {
	rs.each(func(r Reporter) { r.EndGeneration(config, population, speciesSet) })
}

func (rs *ReporterSet) PostEvaluate(config *Config, population map[int]*Genome, speciesSet *SpeciesSet, best *Genome) {
	rs.each(func(r Reporter) { r.PostEvaluate(config, population, speciesSet, best) })
}

func (rs *ReporterSet) PostReproduction(config *Config, population map[int]*Genome, speciesSet *SpeciesSet) {
	rs.each(func(r Reporter) { r.PostReproduction(config, population, speciesSet) })
}

func (rs *ReporterSet) CompleteExtinction() {
	rs.each(func(r Reporter) { r.CompleteExtinction() })
}

func (rs *ReporterSet) FoundSolution(config *Config, generation int, best *Genome) {
	rs.each(func(r Reporter) { r.FoundSolution(config, generation, best) })
}

func (rs *ReporterSet) SpeciesStagnant(speciesID int, species *Species) {
	rs.each(func(r Reporter) { r.SpeciesStagnant(speciesID, species) })
}

func (rs *ReporterSet) Info(msg string) {
	rs.each(func(r Reporter) { r.Info(msg) })
}

// Infof formats and sends an info message.
func (rs *ReporterSet) Infof(format string, args ...any) {
	if rs.Len() == 0 {
		return
	}
	rs.Info(fmt.Sprintf(format, args...))
}

// --------------------------- StdOutReporter ---------------------------

// StdOutReporter prints a human readable account of the run.
type StdOutReporter struct {
	BaseReporter

	ShowSpeciesDetail bool
	Out               io.Writer

	generation      int
	generationStart time.Time
	generationTimes []time.Duration
	numExtinctions  int
}

// NewStdOutReporter creates a reporter writing to os.Stdout.
func NewStdOutReporter(showSpeciesDetail bool) *StdOutReporter {
	return &StdOutReporter{ShowSpeciesDetail: showSpeciesDetail, Out: os.Stdout}
}

func (r *StdOutReporter) StartGeneration(generation int) {
	r.generation = generation
	fmt.Fprintf(r.Out, "\n ****** Running generation %d ****** \n\n", generation)
	r.generationStart = time.Now()
}

func (r *StdOutReporter) EndGeneration(_ *Config, population map[int]*Genome, speciesSet *SpeciesSet) {
	ng, ns := len(population), len(speciesSet.Species)
	if r.ShowSpeciesDetail {
		fmt.Fprintf(r.Out, "Population of %d members in %d species (after reproduction):\n", ng, ns)
		table := uitable.New()
		table.MaxColWidth = 40
		table.Wrap = false
		table.AddRow("ID", "age", "size", "fitness", "adj fit", "stag")
		for _, sid := range speciesSet.SortedKeys() {
			s := speciesSet.Species[sid]
			fitness, adjusted := "--", "--"
			if len(s.FitnessHistory) > 0 {
				fitness = fmt.Sprintf("%.3f", s.Fitness)
				adjusted = fmt.Sprintf("%.3f", s.AdjustedFitness)
			}
			table.AddRow(sid, r.generation-s.Created, len(s.Members), fitness, adjusted, r.generation-s.LastImproved)
		}
		fmt.Fprintln(r.Out, table)
	} else {
		fmt.Fprintf(r.Out, "Population of %d members in %d species (after reproduction)\n", ng, ns)
	}

	elapsed := time.Since(r.generationStart)
	r.generationTimes = append(r.generationTimes, elapsed)
	if len(r.generationTimes) > 10 {
		r.generationTimes = r.generationTimes[len(r.generationTimes)-10:]
	}
	fmt.Fprintf(r.Out, "Total extinctions: %d\n", r.numExtinctions)
	if len(r.generationTimes) > 1 {
		var total time.Duration
		for _, t := range r.generationTimes {
			total += t
		}
		average := total / time.Duration(len(r.generationTimes))
		fmt.Fprintf(r.Out, "Generation time: %.3f sec (%.3f average)\n", elapsed.Seconds(), average.Seconds())
	} else {
		fmt.Fprintf(r.Out, "Generation time: %.3f sec\n", elapsed.Seconds())
	}
}

func (r *StdOutReporter) PostEvaluate(_ *Config, population map[int]*Genome, speciesSet *SpeciesSet, best *Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	fmt.Fprintf(r.Out, "Population's average fitness: %3.5f stdev: %3.5f\n", Mean(fitnesses), Stdev(fitnesses))
	nodes, conns := best.Size()
	sid, _ := speciesSet.GetSpeciesID(best.Key)
	fmt.Fprintf(r.Out, "Best fitness: %3.5f - size: (%d, %d) - species %d - id %d\n", best.Fitness, nodes, conns, sid, best.Key)
}

func (r *StdOutReporter) CompleteExtinction() {
	r.numExtinctions++
	fmt.Fprintln(r.Out, "All species extinct.")
}

func (r *StdOutReporter) FoundSolution(_ *Config, generation int, best *Genome) {
	nodes, conns := best.Size()
	fmt.Fprintf(r.Out, "\nBest individual in generation %d meets fitness threshold - complexity: (%d, %d)\n", generation, nodes, conns)
}

func (r *StdOutReporter) SpeciesStagnant(speciesID int, species *Species) {
	if r.ShowSpeciesDetail {
		fmt.Fprintf(r.Out, "\nSpecies %d with %d members is stagnated: removing it\n", speciesID, len(species.Members))
	}
}

func (r *StdOutReporter) Info(msg string) {
	fmt.Fprintln(r.Out, msg)
}
