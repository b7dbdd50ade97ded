package sched

import (
	"fmt"
	"sort"
)

// cluster is a cohesive group of tests sharing a topic, assigned to a
// shard as a unit.
type cluster struct {
	topic   string
	tests   []string
	totalMS float64
}

// Shard returns the subset of tests assigned to shardIndex out of
// shardCount shards.
//
// Tests are first clustered by topic so related tests, which often share
// expensive fixtures, land on the same worker. Clusters are then assigned
// with the longest-processing-time-first heuristic: sorted by descending
// total estimated duration and placed greedily on the least-loaded shard.
// LPT bounds the makespan to within 4/3 of the optimum of this NP-hard
// balancing problem, which is plenty for test scheduling.
//
// The returned subset preserves the relative order of the input, so
// callers should pass an already Sort-ed list.
func (s *Sequencer) Shard(tests []string, shardIndex, shardCount int) ([]string, error) {
	if shardCount <= 0 {
		return nil, fmt.Errorf("shard count must be positive, got %d", shardCount)
	}
	if shardIndex < 0 || shardIndex >= shardCount {
		return nil, fmt.Errorf("shard index %d out of range [0,%d)", shardIndex, shardCount)
	}

	clusters := s.clusterByTopic(tests)
	assignment := assignLPT(clusters, shardCount)

	var out []string
	for _, test := range tests {
		if assignment[topicOf(test)] == shardIndex {
			out = append(out, test)
		}
	}
	return out, nil
}

// clusterByTopic groups tests by topic in deterministic (topic-sorted)
// order, summing member duration estimates.
func (s *Sequencer) clusterByTopic(tests []string) []*cluster {
	byTopic := make(map[string]*cluster)
	for _, test := range tests {
		topic := topicOf(test)
		c, ok := byTopic[topic]
		if !ok {
			c = &cluster{topic: topic}
			byTopic[topic] = c
		}
		c.tests = append(c.tests, test)
		c.totalMS += s.meta.Get(test).DurationMS
	}

	out := make([]*cluster, 0, len(byTopic))
	for _, c := range byTopic {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].topic < out[j].topic })
	return out
}

// assignLPT maps each cluster's topic to a shard index: clusters in
// descending duration order, each placed on the shard currently holding
// the least total estimated duration. Ties break toward the lowest shard
// index, keeping the assignment deterministic.
func assignLPT(clusters []*cluster, shardCount int) map[string]int {
	ordered := make([]*cluster, len(clusters))
	copy(ordered, clusters)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].totalMS != ordered[j].totalMS {
			return ordered[i].totalMS > ordered[j].totalMS
		}
		return ordered[i].topic < ordered[j].topic
	})

	loads := make([]float64, shardCount)
	assignment := make(map[string]int, len(ordered))
	for _, c := range ordered {
		min := 0
		for i := 1; i < shardCount; i++ {
			if loads[i] < loads[min] {
				min = i
			}
		}
		assignment[c.topic] = min
		loads[min] += c.totalMS
	}
	return assignment
}

// Plan is a complete scheduling decision: the global order plus every
// shard's assigned subset.
type Plan struct {
	Order  []string   `json:"order" yaml:"order"`
	Shards [][]string `json:"shards" yaml:"shards"`
}

// BuildPlan sorts the tests and computes every shard's assignment in one
// pass. Used by the CLI and by hosts that want the whole picture rather
// than a single shard's view.
func (s *Sequencer) BuildPlan(tests []string, shardCount int) (*Plan, error) {
	order := s.Sort(tests)
	plan := &Plan{Order: order, Shards: make([][]string, shardCount)}
	for i := 0; i < shardCount; i++ {
		shard, err := s.Shard(order, i, shardCount)
		if err != nil {
			return nil, err
		}
		plan.Shards[i] = shard
	}
	return plan, nil
}
