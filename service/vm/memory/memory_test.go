package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kproc/service/vm"
)

func TestService_Grow(t *testing.T) {
	var testCases = []struct {
		description string
		maxPages    int
		from        uint64
		to          uint64
		expectErr   bool
		expectUsed  int
	}{
		{description: "grow one page", maxPages: 8, from: 0, to: 4096, expectUsed: 2},
		{description: "grow partial page", maxPages: 8, from: 0, to: 100, expectUsed: 2},
		{description: "grow three pages", maxPages: 8, from: 0, to: 3 * 4096, expectUsed: 4},
		{description: "out of pages", maxPages: 3, from: 0, to: 3 * 4096, expectErr: true, expectUsed: 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			srv := New(Config{PageSize: 4096, MaxPages: testCase.maxPages})
			space, err := srv.Create()
			require.NoError(t, err)
			size, err := srv.Grow(space, testCase.from, testCase.to)
			if testCase.expectErr {
				assert.ErrorIs(t, err, vm.ErrOutOfMemory)
				assert.Equal(t, testCase.from, size)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, testCase.to, size)
			}
			assert.Equal(t, testCase.expectUsed, srv.Used())
		})
	}
}

func TestService_Shrink(t *testing.T) {
	srv := New(Config{PageSize: 4096, MaxPages: 16})
	space, err := srv.Create()
	require.NoError(t, err)
	_, err = srv.Grow(space, 0, 4*4096)
	require.NoError(t, err)
	assert.Equal(t, 5, srv.Used())
	size, err := srv.Grow(space, 4*4096, 4096)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, size)
	assert.Equal(t, 2, srv.Used())
	srv.Free(space, size)
	assert.Equal(t, 0, srv.Used())
}

func TestService_CopyInOut(t *testing.T) {
	srv := New(Config{PageSize: 16, MaxPages: 16})
	space, err := srv.Create()
	require.NoError(t, err)
	_, err = srv.Grow(space, 0, 64)
	require.NoError(t, err)

	// spans a page boundary
	require.NoError(t, srv.CopyOut(space, 10, []byte("hello world")))
	data := make([]byte, 11)
	require.NoError(t, srv.CopyIn(space, 10, data))
	assert.Equal(t, "hello world", string(data))

	assert.ErrorIs(t, srv.CopyOut(space, 60, []byte("overflow")), vm.ErrBadAddress)
	assert.ErrorIs(t, srv.CopyIn(space, ^uint64(0)-2, make([]byte, 8)), vm.ErrBadAddress)
	assert.ErrorIs(t, srv.CopyIn(nil, 0, make([]byte, 1)), vm.ErrBadSpace)
}

func TestService_Copy(t *testing.T) {
	srv := New(Config{PageSize: 16, MaxPages: 16})
	src, err := srv.Create()
	require.NoError(t, err)
	_, err = srv.Grow(src, 0, 32)
	require.NoError(t, err)
	require.NoError(t, srv.CopyOut(src, 0, []byte("parent")))

	dst, err := srv.Create()
	require.NoError(t, err)
	require.NoError(t, srv.Copy(src, dst, 32))
	data := make([]byte, 6)
	require.NoError(t, srv.CopyIn(dst, 0, data))
	assert.Equal(t, "parent", string(data))

	// child writes are private
	require.NoError(t, srv.CopyOut(dst, 0, []byte("child!")))
	require.NoError(t, srv.CopyIn(src, 0, data))
	assert.Equal(t, "parent", string(data))
	assert.Equal(t, 6, srv.Used())
}

func TestService_CopyOutOfMemory(t *testing.T) {
	srv := New(Config{PageSize: 16, MaxPages: 5})
	src, _ := srv.Create()
	_, err := srv.Grow(src, 0, 48)
	require.NoError(t, err)
	dst, err := srv.Create()
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Copy(src, dst, 48), vm.ErrOutOfMemory)
	assert.Equal(t, 5, srv.Used())
}

func TestService_Frames(t *testing.T) {
	srv := New(Config{PageSize: 16, MaxPages: 1})
	tf, err := srv.NewFrame()
	require.NoError(t, err)
	_, err = srv.NewFrame()
	assert.ErrorIs(t, err, vm.ErrOutOfMemory)
	srv.FreeFrame(tf)
	assert.Equal(t, 1, srv.Available())
}
