package neat

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsReporter exports run progress as Prometheus metrics.
type MetricsReporter struct {
	BaseReporter

	Generation      prometheus.Gauge
	BestFitness     prometheus.Gauge
	MeanFitness     prometheus.Gauge
	SpeciesCount    prometheus.Gauge
	PopulationSize  prometheus.Gauge
	StagnantSpecies prometheus.Counter
	Extinctions     prometheus.Counter
	SolutionsFound  prometheus.Counter
	BestGenomeNodes prometheus.Gauge
	BestGenomeConns prometheus.Gauge
}

// NewMetricsReporter creates the metrics and registers them with reg.
// Every metric carries the given constant labels.
func NewMetricsReporter(reg prometheus.Registerer, labels prometheus.Labels) (*MetricsReporter, error) {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "neat", Name: name, Help: help, ConstLabels: labels})
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neat", Name: name, Help: help, ConstLabels: labels})
	}

	m := &MetricsReporter{
		Generation:      gauge("generation", "Current generation number."),
		BestFitness:     gauge("best_fitness", "Fitness of the best genome of the current generation."),
		MeanFitness:     gauge("mean_fitness", "Mean fitness of the current population."),
		SpeciesCount:    gauge("species", "Number of species after speciation."),
		PopulationSize:  gauge("population_size", "Number of genomes after reproduction."),
		StagnantSpecies: counter("stagnant_species_total", "Species removed for stagnation."),
		Extinctions:     counter("extinctions_total", "Complete extinctions."),
		SolutionsFound:  counter("solutions_total", "Generations that met the fitness threshold."),
		BestGenomeNodes: gauge("best_genome_nodes", "Node count of the best genome of the current generation."),
		BestGenomeConns: gauge("best_genome_enabled_connections", "Enabled connection count of the best genome of the current generation."),
	}
	for _, c := range []prometheus.Collector{
		m.Generation, m.BestFitness, m.MeanFitness, m.SpeciesCount, m.PopulationSize,
		m.StagnantSpecies, m.Extinctions, m.SolutionsFound, m.BestGenomeNodes, m.BestGenomeConns,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MetricsReporter) StartGeneration(generation int) {
	m.Generation.Set(float64(generation))
}

func (m *MetricsReporter) PostEvaluate(_ *Config, population map[int]*Genome, speciesSet *SpeciesSet, best *Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	m.MeanFitness.Set(Mean(fitnesses))
	m.BestFitness.Set(best.Fitness)
	m.SpeciesCount.Set(float64(len(speciesSet.Species)))
	nodes, conns := best.Size()
	m.BestGenomeNodes.Set(float64(nodes))
	m.BestGenomeConns.Set(float64(conns))
}

func (m *MetricsReporter) EndGeneration(_ *Config, population map[int]*Genome, _ *SpeciesSet) {
	m.PopulationSize.Set(float64(len(population)))
}

func (m *MetricsReporter) SpeciesStagnant(int, *Species) {
	m.StagnantSpecies.Inc()
}

func (m *MetricsReporter) CompleteExtinction() {
	m.Extinctions.Inc()
}

func (m *MetricsReporter) FoundSolution(*Config, int, *Genome) {
	m.SolutionsFound.Inc()
}
