package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------- Kind Tests ---------------------

func TestKind_String(t *testing.T) {
	assert.Equal(t, "next", KindNext.String())
	assert.Equal(t, "error", KindError.String())
	assert.Equal(t, "completed", KindCompleted.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestKind_IsTerminal(t *testing.T) {
	assert.False(t, KindNext.IsTerminal())
	assert.True(t, KindError.IsTerminal())
	assert.True(t, KindCompleted.IsTerminal())
}

// --------------------- Notification Tests ---------------------

func TestNotification_Next(t *testing.T) {
	n := Next("hello")

	assert.Equal(t, KindNext, n.Kind())
	assert.True(t, n.IsNext())
	assert.False(t, n.IsError())
	assert.False(t, n.IsCompleted())
	assert.Equal(t, "hello", n.Value())
	assert.NoError(t, n.Err())
}

func TestNotification_Error(t *testing.T) {
	boom := errors.New("boom")
	n := Error[string](boom)

	assert.Equal(t, KindError, n.Kind())
	assert.False(t, n.IsNext())
	assert.True(t, n.IsError())
	assert.False(t, n.IsCompleted())
	require.Error(t, n.Err())
	assert.Same(t, boom, n.Err())
	assert.Equal(t, "", n.Value())
}

func TestNotification_Completed(t *testing.T) {
	n := Completed[int]()

	assert.Equal(t, KindCompleted, n.Kind())
	assert.False(t, n.IsNext())
	assert.False(t, n.IsError())
	assert.True(t, n.IsCompleted())
	assert.Zero(t, n.Value())
	assert.NoError(t, n.Err())
}

func TestNotification_ExactlyOneVariant(t *testing.T) {
	cases := []struct {
		name string
		n    Notification[int]
	}{
		{"next", Next(7)},
		{"error", Error[int](errors.New("x"))},
		{"completed", Completed[int]()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			active := 0
			if tc.n.IsNext() {
				active++
			}
			if tc.n.IsError() {
				active++
			}
			if tc.n.IsCompleted() {
				active++
			}
			assert.Equal(t, 1, active)
		})
	}
}

func TestNotification_StructValues(t *testing.T) {
	type order struct {
		ID    int
		Total float64
	}

	n := Next(order{ID: 12, Total: 99.5})
	assert.Equal(t, order{ID: 12, Total: 99.5}, n.Value())
}
