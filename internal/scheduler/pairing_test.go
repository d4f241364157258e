package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPairingPlanGroupSizes(t *testing.T) {
	for n := 0; n <= 9; n++ {
		t.Run(fmt.Sprintf("%d instructors", n), func(t *testing.T) {
			workloads := make([]Workload, n)
			for i := range workloads {
				workloads[i] = Workload{InstructorID: fmt.Sprintf("i%d", i), Projects: i % 3}
			}
			plan := BuildPairingPlan(workloads)

			assert.Len(t, plan.Upper, n/2)
			assert.Len(t, plan.Lower, n-n/2)

			seen := make(map[string]int)
			for _, pair := range plan.Pairs {
				for _, id := range pair.Participants() {
					seen[id]++
				}
			}
			assert.Len(t, seen, n, "every instructor joins exactly one pair")
			for id, count := range seen {
				assert.Equal(t, 1, count, id)
			}
		})
	}
}

func TestBuildPairingPlanHighestWithLowest(t *testing.T) {
	plan := BuildPairingPlan([]Workload{
		{InstructorID: "light-a", Projects: 1},
		{InstructorID: "heavy", Projects: 3},
		{InstructorID: "light-b", Projects: 1},
		{InstructorID: "light-c", Projects: 1},
	})

	require.Len(t, plan.Pairs, 2)
	assert.Equal(t, Pair{First: "heavy", Second: "light-b"}, plan.Pairs[0])
	assert.Equal(t, Pair{First: "light-a", Second: "light-c"}, plan.Pairs[1])
}

func TestBuildPairingPlanOddLeftoverJoinsFirstPair(t *testing.T) {
	plan := BuildPairingPlan([]Workload{
		{InstructorID: "a", Projects: 5},
		{InstructorID: "b", Projects: 4},
		{InstructorID: "c", Projects: 3},
		{InstructorID: "d", Projects: 2},
		{InstructorID: "e", Projects: 1},
	})

	assert.Equal(t, []string{"a", "b"}, plan.Upper)
	assert.Equal(t, []string{"c", "d", "e"}, plan.Lower)
	require.Len(t, plan.Pairs, 2)
	assert.Equal(t, []string{"a", "c", "e"}, plan.Pairs[0].Participants())
	assert.Equal(t, []string{"b", "d"}, plan.Pairs[1].Participants())
}

func TestBuildPairingPlanDegenerateInputs(t *testing.T) {
	empty := BuildPairingPlan(nil)
	assert.Empty(t, empty.Pairs)

	single := BuildPairingPlan([]Workload{{InstructorID: "solo", Projects: 2}})
	require.Len(t, single.Pairs, 1)
	assert.Equal(t, []string{"solo"}, single.Pairs[0].Participants())
}

func TestWorkloadsForUsesResponsibleCounts(t *testing.T) {
	problem := buildProblem(t, []int{3, 1, 0}, 1, 4)

	assert.Equal(t, []Workload{
		{InstructorID: "i1", Projects: 3},
		{InstructorID: "i2", Projects: 1},
		{InstructorID: "i3", Projects: 0},
	}, WorkloadsFor(problem))
}
