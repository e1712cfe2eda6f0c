package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kproc/runtime/kernel"
)

func TestNew(t *testing.T) {
	var testCases = []struct {
		description string
		config      *Config
		expectType  kernel.Policy
		expectErr   bool
	}{
		{description: "nil config", expectType: &kernel.StrictPriority{}},
		{description: "default", config: &Config{Mode: ModePriority}, expectType: &kernel.StrictPriority{}},
		{description: "empty mode", config: &Config{}, expectType: &kernel.StrictPriority{}},
		{description: "round robin", config: &Config{Mode: "RoundRobin", Quantum: 3}, expectType: &RoundRobin{}},
		{description: "round robin zero quantum", config: &Config{Mode: ModeRoundRobin}, expectErr: true},
		{description: "multilevel defaults", config: &Config{Mode: ModeMultiLevel}, expectType: &Feedback{}},
		{description: "multilevel quantums", config: &Config{Mode: ModeMultiLevel, Quantums: []int{1, 2, 3}}, expectType: &Feedback{}},
		{description: "multilevel short quantums", config: &Config{Mode: ModeMultiLevel, Quantums: []int{1, 2}}, expectErr: true},
		{description: "multilevel zero quantum", config: &Config{Mode: ModeMultiLevel, Quantums: []int{1, 0, 3}}, expectErr: true},
		{description: "negative demote", config: &Config{Mode: ModeMultiLevel, Demote: -1}, expectErr: true},
		{description: "unknown", config: &Config{Mode: "lottery"}, expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			actual, err := New(testCase.config, 8)
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, testCase.expectType, actual)
		})
	}
}

func TestNew_Quantum(t *testing.T) {
	rr, err := New(&Config{Mode: ModeRoundRobin, Quantum: 3}, 8)
	require.NoError(t, err)
	p := kernel.NewProc(1, "worker", 5)
	assert.Equal(t, 3, rr.Quantum(p))

	feedback, err := New(&Config{Mode: ModeMultiLevel, Quantums: []int{1, 2, 3}}, 8)
	require.NoError(t, err)
	Classify(p)
	assert.Equal(t, 3, feedback.Quantum(p))
}

func TestFeedback_ExpireDemotes(t *testing.T) {
	f := NewFeedback(4, DefaultQuantums, 2)
	p := kernel.NewProc(1, "hello", 5)
	Classify(p)

	f.Expire(p)
	assert.Equal(t, kernel.InteractiveLevel, p.QueueLevel, "first expiry keeps the tier")
	f.Expire(p)
	assert.Equal(t, kernel.BatchLevel, p.QueueLevel)
	assert.Equal(t, 1, f.levels.Len(kernel.BatchLevel))

	f.Expire(p)
	f.Expire(p)
	assert.Equal(t, kernel.BatchLevel, p.QueueLevel, "the last tier is a floor")
}

func TestFeedback_DemoteConsecutive(t *testing.T) {
	var testCases = []struct {
		description string
		// e: slice ended by expiry, b: process blocked before its quantum ran out
		slices      string
		expectLevel int
	}{
		{description: "consecutive expiries", slices: "ee", expectLevel: kernel.BatchLevel},
		{description: "blocked in between", slices: "ebe", expectLevel: kernel.InteractiveLevel},
		{description: "blocked then consecutive", slices: "ebee", expectLevel: kernel.BatchLevel},
		{description: "blocked only", slices: "bbb", expectLevel: kernel.InteractiveLevel},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := NewFeedback(4, DefaultQuantums, 2)
			p := kernel.NewProc(1, "hello", 5)
			Classify(p)
			for _, slice := range testCase.slices {
				f.dispatch(p)
				if slice == 'e' {
					f.Expire(p)
				}
			}
			assert.Equal(t, testCase.expectLevel, p.QueueLevel)
		})
	}
}
