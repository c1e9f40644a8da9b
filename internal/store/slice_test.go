package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type todos struct {
	Items []string
	Busy  bool
}

func newTodoSlice() *Slice[todos] {
	return NewSlice[todos]("todos", func() todos { return todos{Items: []string{}} }).
		On("todos/add", func(s todos, a Action) (todos, error) {
			item, err := DecodePayload[string](a)
			if err != nil {
				return s, err
			}
			s.Items = append(append([]string{}, s.Items...), item)
			return s, nil
		})
}

func TestSliceStartsFromInitialState(t *testing.T) {
	sl := newTodoSlice()

	got, err := sl.Reduce(nil, Action{Type: "unrelated"})
	require.NoError(t, err)
	assert.Equal(t, todos{Items: []string{}}, got)
}

func TestSliceHandlesCases(t *testing.T) {
	sl := newTodoSlice()
	s := newTestStore(t, sl.Module())
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, Action{Type: "todos/add", Payload: "milk"}))
	require.NoError(t, s.Dispatch(ctx, Action{Type: "todos/add", Payload: json.RawMessage(`"bread"`)}))

	assert.Equal(t, []string{"milk", "bread"}, sl.Select(s.GetState()).Items)
	assert.True(t, sl.Handles("todos/add"))
	assert.False(t, sl.Handles("todos/remove"))
}

func TestSliceRejectsForeignState(t *testing.T) {
	_, err := newTodoSlice().Reduce(42, Action{Type: "todos/add"})
	require.ErrorIs(t, err, ErrSliceType)
}

func TestSliceBadPayloadRollsBack(t *testing.T) {
	sl := newTodoSlice()
	s := newTestStore(t, sl.Module())
	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, Action{Type: "todos/add", Payload: "milk"}))

	err := s.Dispatch(ctx, Action{Type: "todos/add"})
	require.ErrorIs(t, err, ErrTransitionFailed)
	require.ErrorIs(t, err, ErrPayload)
	assert.Equal(t, []string{"milk"}, sl.Select(s.GetState()).Items)
}

func TestSliceSelectDefaultsWhenAbsent(t *testing.T) {
	assert.Equal(t, todos{Items: []string{}}, newTodoSlice().Select(nil))
}

func TestSliceDuplicateCasePanics(t *testing.T) {
	sl := newTodoSlice()
	assert.Panics(t, func() {
		sl.On("todos/add", func(s todos, _ Action) (todos, error) { return s, nil })
	})
}

func TestDerive(t *testing.T) {
	sl := newTodoSlice()
	count := Derive(Selector[todos](sl.Select), func(s todos) int { return len(s.Items) })
	assert.Equal(t, 2, count(State{"todos": todos{Items: []string{"a", "b"}}}))
}

func TestDecodePayload(t *testing.T) {
	type item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	got, err := DecodePayload[item](Action{Payload: item{ID: 1, Name: "a"}})
	require.NoError(t, err)
	assert.Equal(t, item{ID: 1, Name: "a"}, got)

	got, err = DecodePayload[item](Action{Payload: &item{ID: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ID)

	got, err = DecodePayload[item](Action{Payload: map[string]any{"id": 3, "name": "c"}})
	require.NoError(t, err)
	assert.Equal(t, item{ID: 3, Name: "c"}, got)

	_, err = DecodePayload[item](Action{Type: "x", Payload: json.RawMessage(`[1,2]`)})
	require.ErrorIs(t, err, ErrPayload)

	_, err = DecodePayload[item](Action{Type: "x"})
	require.ErrorIs(t, err, ErrPayload)
}

func TestActionUnmarshalKeepsRawPayload(t *testing.T) {
	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"type":"t","payload":{"id":5},"meta":{"k":"v"}}`), &a))

	assert.Equal(t, "t", a.Type)
	assert.Equal(t, json.RawMessage(`{"id":5}`), a.Payload)
	assert.Equal(t, "v", a.MetaValue("k"))

	require.NoError(t, json.Unmarshal([]byte(`{"type":"t","payload":null}`), &a))
	assert.Nil(t, a.Payload)
}

func TestWithMetaCopies(t *testing.T) {
	a := Action{Type: "t", Meta: map[string]string{"a": "1"}}
	b := a.WithMeta("b", "2")
	assert.Equal(t, map[string]string{"a": "1"}, a.Meta)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, b.Meta)
}
