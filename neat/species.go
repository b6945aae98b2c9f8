package neat

import (
	"math"
	"slices"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	Key             int             // Unique identifier for the species.
	Created         int             // Generation number when the species was created.
	LastImproved    int             // Last generation where fitness improved.
	Representative  *Genome         // One of the members; never owns anything the member map doesn't.
	Members         map[int]*Genome // Genomes belonging to this species (maps genome key -> genome).
	Fitness         float64         // Aggregate of member fitnesses, set by stagnation.
	AdjustedFitness float64         // Fitness normalized across species, set by reproduction.
	FitnessHistory  []float64       // History of fitness values for stagnation detection.
}

// NewSpecies creates a new species.
func NewSpecies(key, generation int) *Species {
	return &Species{
		Key:            key,
		Created:        generation,
		LastImproved:   generation,
		Members:        make(map[int]*Genome),
		FitnessHistory: []float64{},
	}
}

// GetFitnesses returns the fitness values of all members, ordered by genome key.
func (s *Species) GetFitnesses() []float64 {
	fitnesses := make([]float64, 0, len(s.Members))
	for _, k := range s.sortedMemberKeys() {
		fitnesses = append(fitnesses, s.Members[k].Fitness)
	}
	return fitnesses
}

func (s *Species) sortedMemberKeys() []int {
	keys := make([]int, 0, len(s.Members))
	for k := range s.Members {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// --------------------------- GenomeDistanceCache ---------------------------

type genomePair struct {
	a, b int
}

// GenomeDistanceCache memoizes genome distances for one speciation pass.
// Distance is symmetric, so entries are keyed by the unordered pair of keys.
type GenomeDistanceCache struct {
	Distances map[genomePair]float64
	Hits      int
	Misses    int
	Config    *GenomeConfig
}

// NewGenomeDistanceCache creates a new distance cache.
func NewGenomeDistanceCache(config *GenomeConfig) *GenomeDistanceCache {
	return &GenomeDistanceCache{
		Distances: make(map[genomePair]float64),
		Config:    config,
	}
}

// Distance calculates or retrieves the distance between two genomes.
func (dc *GenomeDistanceCache) Distance(genome1, genome2 *Genome) float64 {
	key := genomePair{genome1.Key, genome2.Key}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}

	if d, ok := dc.Distances[key]; ok {
		dc.Hits++
		return d
	}
	dc.Misses++
	d := genome1.Distance(genome2, dc.Config)
	dc.Distances[key] = d
	return d
}

// Values returns every cached distance.
func (dc *GenomeDistanceCache) Values() []float64 {
	values := make([]float64, 0, len(dc.Distances))
	for _, d := range dc.Distances {
		values = append(values, d)
	}
	return values
}

// --------------------------- SpeciesSet ---------------------------

// SpeciesSet manages the collection of species within a population.
type SpeciesSet struct {
	Species         map[int]*Species // Map species key -> Species
	GenomeToSpecies map[int]int      // Map genome key -> species key
	Indexer         int              // Next species key
	Config          *SpeciesSetConfig
}

// NewSpeciesSet creates a new species set manager.
func NewSpeciesSet(config *SpeciesSetConfig) *SpeciesSet {
	return &SpeciesSet{
		Species:         make(map[int]*Species),
		GenomeToSpecies: make(map[int]int),
		Indexer:         1,
		Config:          config,
	}
}

// Speciate partitions the population into species based on genetic distance.
//
// Genomes are visited in key order. Each joins the species whose representative
// is nearest, provided that distance is below the compatibility threshold;
// otherwise it founds a new species and represents it. Representatives of
// existing species stay frozen for the whole pass. Afterwards empty species are
// dropped and every survivor gets a new representative picked uniformly at
// random among its members.
func (ss *SpeciesSet) Speciate(config *Config, population map[int]*Genome, generation int, rng *RNG, reporters *ReporterSet) {
	cache := NewGenomeDistanceCache(&config.Genome)
	threshold := ss.Config.CompatibilityThreshold

	representatives := make(map[int]*Genome, len(ss.Species))
	var order []int
	for _, sid := range ss.SortedKeys() {
		if rep := ss.Species[sid].Representative; rep != nil {
			representatives[sid] = rep
			order = append(order, sid)
		}
	}

	members := make(map[int]map[int]*Genome)
	genomeKeys := make([]int, 0, len(population))
	for k := range population {
		genomeKeys = append(genomeKeys, k)
	}
	slices.Sort(genomeKeys)

	for _, gid := range genomeKeys {
		g := population[gid]
		bestSID, bestDist := -1, math.Inf(1)
		for _, sid := range order {
			if d := cache.Distance(representatives[sid], g); d < bestDist {
				bestSID, bestDist = sid, d
			}
		}
		if bestSID == -1 || bestDist >= threshold {
			bestSID = ss.Indexer
			ss.Indexer++
			representatives[bestSID] = g
			order = append(order, bestSID)
		}
		if members[bestSID] == nil {
			members[bestSID] = make(map[int]*Genome)
		}
		members[bestSID][gid] = g
	}

	newSpecies := make(map[int]*Species, len(members))
	genomeToSpecies := make(map[int]int, len(population))
	for _, sid := range order {
		memberMap := members[sid]
		if len(memberMap) == 0 {
			continue
		}
		s := ss.Species[sid]
		if s == nil {
			s = NewSpecies(sid, generation)
		}
		s.Members = memberMap
		keys := s.sortedMemberKeys()
		s.Representative = memberMap[keys[rng.IntN(len(keys))]]
		for _, gid := range keys {
			genomeToSpecies[gid] = sid
			memberMap[gid].SpeciesID = sid
		}
		newSpecies[sid] = s
	}
	ss.Species = newSpecies
	ss.GenomeToSpecies = genomeToSpecies

	if len(cache.Distances) > 0 {
		distances := cache.Values()
		reporters.Infof("Mean genetic distance %.3f, standard deviation %.3f", Mean(distances), Stdev(distances))
	}
	reporters.Infof("Distance cache: %d hits, %d misses", cache.Hits, cache.Misses)
}

// SortedKeys returns the species keys in ascending order.
func (ss *SpeciesSet) SortedKeys() []int {
	keys := make([]int, 0, len(ss.Species))
	for k := range ss.Species {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// GetSpeciesID returns the species ID for a given genome ID.
func (ss *SpeciesSet) GetSpeciesID(genomeID int) (int, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	return sid, exists
}

// GetSpecies returns the Species object for a given genome ID.
func (ss *SpeciesSet) GetSpecies(genomeID int) (*Species, bool) {
	sid, exists := ss.GenomeToSpecies[genomeID]
	if !exists {
		return nil, false
	}
	s, exists := ss.Species[sid]
	return s, exists
}
