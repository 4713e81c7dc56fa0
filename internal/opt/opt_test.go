package opt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_ZeroIsAbsent(t *testing.T) {
	var v Value[float64]
	_, ok := v.Get()
	assert.False(t, ok)
	assert.False(t, v.IsSet())
	assert.Equal(t, 7.0, v.OrElse(7))
	assert.Nil(t, v.Ptr())
}

func TestValue_PresentZero(t *testing.T) {
	v := Some(0.0)
	got, ok := v.Get()
	require.True(t, ok)
	assert.Equal(t, 0.0, got)
	assert.Equal(t, 0.0, v.OrElse(7))
	require.NotNil(t, v.Ptr())
}

func TestValue_JSON(t *testing.T) {
	type record struct {
		Price Value[float64] `json:"price"`
		Count Value[int]     `json:"count"`
	}

	data, err := json.Marshal(record{Price: Some(12.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":12.5,"count":null}`, string(data))

	var out record
	require.NoError(t, json.Unmarshal([]byte(`{"price":null,"count":0}`), &out))
	assert.False(t, out.Price.IsSet())
	count, ok := out.Count.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, count)
}

func TestFromPtr(t *testing.T) {
	assert.False(t, FromPtr[int](nil).IsSet())
	n := 3
	assert.Equal(t, Some(3), FromPtr(&n))
}
