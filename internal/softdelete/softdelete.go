// Package softdelete defines the query rewrites the generated Prisma service
// applies so that deletes mark rows instead of removing them and reads skip
// marked rows. The rule table is rendered into the generated TypeScript
// middleware; Apply is the same table executed in Go.
package softdelete

import (
	"maps"
	"time"
)

// Action is a Prisma client operation name.
type Action string

const (
	ActionDelete             Action = "delete"
	ActionDeleteMany         Action = "deleteMany"
	ActionUpdate             Action = "update"
	ActionUpdateMany         Action = "updateMany"
	ActionFindUnique         Action = "findUnique"
	ActionFindUniqueOrThrow  Action = "findUniqueOrThrow"
	ActionFindFirst          Action = "findFirst"
	ActionFindFirstOrThrow   Action = "findFirstOrThrow"
	ActionFindMany           Action = "findMany"
	ActionCount              Action = "count"
	ActionCreate             Action = "create"
	ActionUpsert             Action = "upsert"
)

// Effect is what a rule does to the query arguments.
type Effect string

const (
	// EffectMark replaces data with {deletedAt: now}.
	EffectMark Effect = "mark"
	// EffectMerge sets deletedAt on the caller's data, keeping its other
	// keys and any deletedAt the caller already chose.
	EffectMerge Effect = "merge"
	// EffectLive adds where.deletedAt = null unless the caller filtered on
	// deletedAt.
	EffectLive Effect = "live"
)

// Field is the soft-delete marker column.
const Field = "deletedAt"

// Rule rewrites one action.
type Rule struct {
	Action  Action `json:"action"`
	Rewrite Action `json:"rewrite"`
	Effect  Effect `json:"effect"`
}

// Rules is the rewrite table in evaluation order. findUnique becomes
// findFirst because a unique lookup cannot carry the extra deletedAt filter.
var Rules = []Rule{
	{ActionDelete, ActionUpdate, EffectMark},
	{ActionDeleteMany, ActionUpdateMany, EffectMerge},
	{ActionFindUnique, ActionFindFirst, EffectLive},
	{ActionFindUniqueOrThrow, ActionFindFirstOrThrow, EffectLive},
	{ActionFindFirst, ActionFindFirst, EffectLive},
	{ActionFindFirstOrThrow, ActionFindFirstOrThrow, EffectLive},
	{ActionFindMany, ActionFindMany, EffectLive},
	{ActionCount, ActionCount, EffectLive},
}

// Lookup returns the rule for action, if any.
func Lookup(action Action) (Rule, bool) {
	for _, r := range Rules {
		if r.Action == action {
			return r, true
		}
	}
	return Rule{}, false
}

// Query is one intercepted client call.
type Query struct {
	Model  string         `json:"model"`
	Action Action         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// Apply rewrites q the way the generated middleware does. now stamps
// deletedAt. q is not modified; untouched actions come back as a copy.
func Apply(q Query, now time.Time) Query {
	out := Query{Model: q.Model, Action: q.Action, Args: cloneArgs(q.Args)}
	rule, ok := Lookup(q.Action)
	if !ok {
		return out
	}
	out.Action = rule.Rewrite
	if out.Args == nil {
		out.Args = map[string]any{}
	}

	switch rule.Effect {
	case EffectMark:
		out.Args["data"] = map[string]any{Field: now}
	case EffectMerge:
		data, _ := out.Args["data"].(map[string]any)
		if data == nil {
			data = map[string]any{}
		}
		if v, set := data[Field]; !set || v == nil {
			data[Field] = now
		}
		out.Args["data"] = data
	case EffectLive:
		where, _ := out.Args["where"].(map[string]any)
		if where == nil {
			where = map[string]any{}
		}
		if _, set := where[Field]; !set {
			where[Field] = nil
		}
		out.Args["where"] = where
	}
	return out
}

// cloneArgs copies args and its "where" and "data" maps, the only levels
// Apply writes to.
func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := maps.Clone(args)
	for _, k := range []string{"where", "data"} {
		if m, ok := out[k].(map[string]any); ok {
			out[k] = maps.Clone(m)
		}
	}
	return out
}
