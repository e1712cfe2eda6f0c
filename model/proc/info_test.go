package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfo_MarshalBinary(t *testing.T) {
	var testCases = []struct {
		description string
		info        Info
		expect      Info
	}{
		{
			description: "regular record",
			info:        Info{PID: 3, PPID: 1, State: StateRunning, Size: 8192, Name: "sh"},
			expect:      Info{PID: 3, PPID: 1, State: StateRunning, Size: 8192, Name: "sh"},
		},
		{
			description: "no parent",
			info:        Info{PID: 1, PPID: 0, State: StateSleeping, Size: 4096, Name: "init"},
			expect:      Info{PID: 1, PPID: 0, State: StateSleeping, Size: 4096, Name: "init"},
		},
		{
			description: "name truncated to fit terminator",
			info:        Info{PID: 7, PPID: 1, State: StateRunnable, Name: "averyveryverylongname"},
			expect:      Info{PID: 7, PPID: 1, State: StateRunnable, Name: "averyveryverylo"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			data, err := testCase.info.MarshalBinary()
			require.NoError(t, err)
			assert.Len(t, data, InfoSize)
			actual := Info{}
			require.NoError(t, actual.UnmarshalBinary(data))
			assert.Equal(t, testCase.expect, actual)
		})
	}
}

func TestInfo_UnmarshalBinary_Short(t *testing.T) {
	info := Info{}
	assert.Error(t, info.UnmarshalBinary(make([]byte, 4)))
	sysTime := SysTime{}
	assert.Error(t, sysTime.UnmarshalBinary(make([]byte, 4)))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "zombie", StateZombie.String())
	assert.Equal(t, "runble", StateRunnable.String())
	assert.Equal(t, "???", State(42).String())
	assert.True(t, StateSleeping.IsLive())
	assert.False(t, StateZombie.IsLive())
}
