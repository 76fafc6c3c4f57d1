package outcome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blankErr struct{}

func (blankErr) Error() string { return "" }

func TestSuccess(t *testing.T) {
	o := Success("test data")

	assert.True(t, o.IsSuccess())
	assert.False(t, o.IsError())
	assert.False(t, o.IsLoading())
	assert.Equal(t, KindSuccess, o.Kind())

	data, ok := o.Data()
	require.True(t, ok)
	assert.Equal(t, "test data", data)
	assert.Nil(t, o.Cause())
	assert.Empty(t, o.Message())
}

func TestFailWithMessage(t *testing.T) {
	cause := errors.New("Test error")
	o := FailWithMessage[string](cause, "Custom error message")

	assert.True(t, o.IsError())
	assert.False(t, o.IsSuccess())
	assert.Equal(t, cause, o.Cause())
	assert.Equal(t, "Custom error message", o.Message())

	_, ok := o.Data()
	assert.False(t, ok)
}

func TestMessageFallbacks(t *testing.T) {
	tests := []struct {
		name string
		o    Outcome[int]
		want string
	}{
		{"explicit message wins", FailWithMessage[int](errors.New("cause"), "shown"), "shown"},
		{"empty message uses cause", FailWithMessage[int](errors.New("cause"), ""), "cause"},
		{"derived from cause", Fail[int](errors.New("boom")), "boom"},
		{"blank cause", Fail[int](blankErr{}), UnknownError},
		{"nil cause", Fail[int](nil), UnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.o.Message())
		})
	}
}

func TestZeroValueIsLoading(t *testing.T) {
	var o Outcome[[]string]
	assert.True(t, o.IsLoading())
	assert.Equal(t, Loading[[]string](), o)
	assert.Equal(t, "loading", o.Kind().String())
}

func TestCallbacksOnlyFireForActiveVariant(t *testing.T) {
	var success, failure, loading bool

	chained := Success("data").
		OnSuccess(func(string) { success = true }).
		OnError(func(error, string) { failure = true }).
		OnLoading(func() { loading = true })

	assert.True(t, success)
	assert.False(t, failure)
	assert.False(t, loading)
	assert.Equal(t, Success("data"), chained)

	var gotCause error
	var gotMsg string
	cause := errors.New("Test error")
	Fail[string](cause).OnError(func(c error, m string) {
		gotCause, gotMsg = c, m
	})
	assert.Equal(t, cause, gotCause)
	assert.Equal(t, "Test error", gotMsg)

	loading = false
	Loading[string]().OnLoading(func() { loading = true })
	assert.True(t, loading)
}

func TestMap(t *testing.T) {
	n := Map(Success("abc"), func(s string) int { return len(s) })
	data, ok := n.Data()
	require.True(t, ok)
	assert.Equal(t, 3, data)

	cause := errors.New("nope")
	failed := Map(FailWithMessage[string](cause, "msg"), func(s string) int { return len(s) })
	assert.True(t, failed.IsError())
	assert.Equal(t, cause, failed.Cause())
	assert.Equal(t, "msg", failed.Message())

	assert.True(t, Map(Loading[string](), func(s string) int { return 0 }).IsLoading())
}
