package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreatesCycle(t *testing.T) {
	connections := []ConnectionKey{{-1, 1}, {1, 2}, {2, 0}}

	tests := []struct {
		name string
		test ConnectionKey
		want bool
	}{
		{"back edge", ConnectionKey{0, 1}, true},
		{"two hop back edge", ConnectionKey{2, 1}, true},
		{"self loop", ConnectionKey{3, 3}, true},
		{"forward edge", ConnectionKey{-1, 0}, false},
		{"skip edge", ConnectionKey{1, 0}, false},
		{"unknown node", ConnectionKey{5, 1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CreatesCycle(connections, tc.test))
		})
	}
}

func TestRequiredForOutput(t *testing.T) {
	// -2->3 is a dead end; 5->4->0 is not fed by any input but still feeds the output.
	connections := []ConnectionKey{{-1, 2}, {2, 0}, {-2, 3}, {4, 0}, {5, 4}}
	required := RequiredForOutput([]int{-1, -2}, []int{0}, connections)

	assert.Equal(t, map[int]bool{0: true, 2: true, 4: true, 5: true}, required)
}

func TestPolicyFor(t *testing.T) {
	cfg := DefaultConfig(2, 1)
	g := genomeWith(1, []int{0, 1}, conn(-1, 1, 1, 1), conn(1, 0, 1, 2))

	ff := PolicyFor(&cfg.Genome)
	assert.IsType(t, FeedForwardPolicy{}, ff)
	assert.False(t, ff.AllowsConnection(g, ConnectionKey{0, 1}))
	assert.False(t, ff.AllowsConnection(g, ConnectionKey{1, 1}))
	assert.True(t, ff.AllowsConnection(g, ConnectionKey{-2, 1}))

	cfg.Genome.FeedForward = false
	rec := PolicyFor(&cfg.Genome)
	assert.IsType(t, RecurrentPolicy{}, rec)
	assert.True(t, rec.AllowsConnection(g, ConnectionKey{0, 1}))
	assert.True(t, rec.AllowsConnection(g, ConnectionKey{1, 1}))
}

func TestCycleCheckSeesDisabledConnections(t *testing.T) {
	g := genomeWith(1, []int{0, 1}, conn(-1, 1, 1, 1), conn(1, 0, 1, 2))
	g.Connections[ConnectionKey{1, 0}].Enabled = false

	assert.False(t, FeedForwardPolicy{}.AllowsConnection(g, ConnectionKey{0, 1}))
}
