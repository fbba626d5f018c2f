package relation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectByID(t *testing.T) {
	in := map[string]any{"title": "Hello", "tags": []int{1, 2, 3}}
	got := ConnectByID(in, []string{"tags"})

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Hello","tags":{"connect":[{"id":1},{"id":2},{"id":3}]}}`, string(b))
	assert.Equal(t, []int{1, 2, 3}, in["tags"], "input is not modified")
}

func TestConnectByID_RoundTrip(t *testing.T) {
	lists := [][]any{
		{},
		{1},
		{float64(4), float64(2), float64(9)},
		{"a1", "b2"},
	}
	for _, ids := range lists {
		got := ConnectByID(map[string]any{"tags": ids}, []string{"tags"})
		c, ok := got["tags"].(Connect)
		require.True(t, ok)
		back := make([]any, len(c.Connect))
		for i, id := range c.Connect {
			back[i] = id.ID
		}
		assert.Equal(t, ids, back)
	}
}

func TestConnectByID_LeavesOtherShapesAlone(t *testing.T) {
	in := map[string]any{"tags": nil, "labels": "x", "title": "t"}
	got := ConnectByID(in, []string{"tags", "labels", "missing"})
	assert.Equal(t, in, got)
	assert.NotContains(t, got, "missing")
}

func TestConnectForeignKeys(t *testing.T) {
	got := ConnectForeignKeys(map[string]any{"title": "t", "authorId": 7, "editorId": nil}, map[string]string{
		"authorId": "author",
		"editorId": "editor",
	})
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","author":{"connect":{"id":7}}}`, string(b))
	assert.Equal(t, ConnectOne{Connect: ID{ID: 7}}, got["author"])
}
