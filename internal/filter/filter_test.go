package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesUnmarshal(t *testing.T) {
	var body struct {
		ClientIDs Values `json:"clientIds"`
		Title     Values `json:"title"`
		UnitIDs   Values `json:"unitIds"`
		Missing   Values `json:"missing"`
	}
	err := json.Unmarshal([]byte(`{"clientIds":[1,"2"," 3 "],"title":"Foo","unitIds":null}`), &body)
	require.NoError(t, err)

	assert.Equal(t, Values{"1", "2", " 3 "}, body.ClientIDs)
	assert.Equal(t, Values{"Foo"}, body.Title)
	assert.Nil(t, body.UnitIDs)
	assert.Nil(t, body.Missing)
}

func TestValueUnmarshal(t *testing.T) {
	var body struct {
		IsTest Value `json:"isTest"`
		Status Value `json:"status"`
		Page   Value `json:"page"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"isTest":true,"status":"false","page":2}`), &body))

	assert.Equal(t, Value("true"), body.IsTest)
	assert.Equal(t, Value("false"), body.Status)
	assert.Equal(t, Value("2"), body.Page)
}

func TestIDsDropsNonNumeric(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3}, IDs([]string{"1", "abc", " 2 ", "", "3.0", "NaN", "Infinity", "2.5"}))
	assert.Nil(t, IDs(nil))
	assert.Nil(t, IDs([]string{"x"}))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Strings([]string{" a", "", "b "}))
	assert.Nil(t, Strings([]string{" "}))
}

func TestBool(t *testing.T) {
	for _, in := range []string{"true", "TRUE", "1", " true "} {
		b := Bool(in)
		require.NotNil(t, b, in)
		assert.True(t, *b)
	}
	for _, in := range []string{"false", "0", "False"} {
		b := Bool(in)
		require.NotNil(t, b, in)
		assert.False(t, *b)
	}
	for _, in := range []string{"", "yes", "undefined"} {
		assert.Nil(t, Bool(in), in)
	}
	assert.True(t, BoolOr("", true))
	assert.False(t, BoolOr("false", true))
}

func TestPositiveInt(t *testing.T) {
	assert.Equal(t, 10, PositiveInt("", 10))
	assert.Equal(t, 3, PositiveInt("3", 10))
	assert.Equal(t, 10, PositiveInt("0", 10))
	assert.Equal(t, 10, PositiveInt("abc", 10))
	assert.Equal(t, 10, PositiveInt("-2", 10))
}

func TestNonNegativeInt(t *testing.T) {
	assert.Equal(t, 0, NonNegativeInt(""))
	assert.Equal(t, 20, NonNegativeInt("20"))
	assert.Equal(t, 0, NonNegativeInt("-1"))
}
