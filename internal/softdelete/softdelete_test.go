package softdelete

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestApply_DeleteBecomesMarkingUpdate(t *testing.T) {
	in := Query{Model: "Post", Action: ActionDelete, Args: map[string]any{
		"where": map[string]any{"id": 5},
	}}
	got := Apply(in, now)

	assert.Equal(t, Query{Model: "Post", Action: ActionUpdate, Args: map[string]any{
		"where": map[string]any{"id": 5},
		"data":  map[string]any{"deletedAt": now},
	}}, got)
	assert.Equal(t, ActionDelete, in.Action, "input is not modified")
	assert.NotContains(t, in.Args, "data")
}

func TestApply_DeleteManyMergesData(t *testing.T) {
	earlier := now.Add(-time.Hour)
	tests := []struct {
		name string
		data any
		want map[string]any
	}{
		{"no data", nil, map[string]any{"deletedAt": now}},
		{"other keys kept", map[string]any{"archived": true}, map[string]any{"archived": true, "deletedAt": now}},
		{"caller deletedAt kept", map[string]any{"deletedAt": earlier}, map[string]any{"deletedAt": earlier}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{"where": map[string]any{"published": false}}
			if tt.data != nil {
				args["data"] = tt.data
			}
			got := Apply(Query{Model: "Post", Action: ActionDeleteMany, Args: args}, now)
			assert.Equal(t, ActionUpdateMany, got.Action)
			assert.Equal(t, tt.want, got.Args["data"])
			assert.Equal(t, map[string]any{"published": false}, got.Args["where"])
		})
	}
}

func TestApply_ReadsSkipDeletedRows(t *testing.T) {
	tests := []struct {
		action Action
		want   Action
	}{
		{ActionFindUnique, ActionFindFirst},
		{ActionFindUniqueOrThrow, ActionFindFirstOrThrow},
		{ActionFindFirst, ActionFindFirst},
		{ActionFindMany, ActionFindMany},
		{ActionCount, ActionCount},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got := Apply(Query{Model: "Post", Action: tt.action, Args: map[string]any{
				"where": map[string]any{"id": 1},
			}}, now)
			assert.Equal(t, tt.want, got.Action)
			assert.Equal(t, map[string]any{"id": 1, "deletedAt": nil}, got.Args["where"])
		})
	}
}

func TestApply_FindManyWithoutArgs(t *testing.T) {
	got := Apply(Query{Model: "Post", Action: ActionFindMany}, now)
	assert.Equal(t, map[string]any{"where": map[string]any{"deletedAt": nil}}, got.Args)
}

func TestApply_CallerDeletedAtFilterWins(t *testing.T) {
	filter := map[string]any{"not": nil}
	got := Apply(Query{Model: "Post", Action: ActionFindMany, Args: map[string]any{
		"where": map[string]any{"deletedAt": filter},
	}}, now)
	assert.Equal(t, map[string]any{"deletedAt": filter}, got.Args["where"])
}

func TestApply_OtherActionsUntouched(t *testing.T) {
	for _, a := range []Action{ActionCreate, ActionUpdate, ActionUpdateMany, ActionUpsert} {
		in := Query{Model: "Post", Action: a, Args: map[string]any{"data": map[string]any{"title": "x"}}}
		assert.Equal(t, in, Apply(in, now), string(a))
	}
}

func TestRules_EveryRuleHasARewrite(t *testing.T) {
	seen := map[Action]bool{}
	for _, r := range Rules {
		require.False(t, seen[r.Action], "duplicate rule for %s", r.Action)
		seen[r.Action] = true
		assert.NotEmpty(t, r.Rewrite)
		assert.Contains(t, []Effect{EffectMark, EffectMerge, EffectLive}, r.Effect)
	}
}
