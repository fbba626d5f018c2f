// Package relation converts form payloads into the nested relation shape
// the Prisma client expects. The generated frontend page and backend pipe
// perform the same transforms in TypeScript; the preview server applies
// these to show what a form submission becomes.
package relation

import "maps"

// Connect is the payload connecting existing rows by id.
type Connect struct {
	Connect []ID `json:"connect"`
}

// ConnectOne connects a single row.
type ConnectOne struct {
	Connect ID `json:"connect"`
}

// ID identifies one row.
type ID struct {
	ID any `json:"id"`
}

// ConnectByID returns a copy of record with each named list field rewritten
// from a plain id list into {connect: [{id}, ...]}. Fields that are absent,
// nil or not a list are left as they are. Connecting is additive: ids not
// in the list stay linked.
func ConnectByID(record map[string]any, fields []string) map[string]any {
	out := maps.Clone(record)
	for _, name := range fields {
		ids, ok := idList(out[name])
		if !ok {
			continue
		}
		c := Connect{Connect: make([]ID, len(ids))}
		for i, id := range ids {
			c.Connect[i] = ID{ID: id}
		}
		out[name] = c
	}
	return out
}

// ConnectForeignKeys rewrites scalar xxxId carriers into {xxx: {connect:
// {id}}}, keyed by the relation field name. carriers maps carrier field to
// relation field, e.g. authorId -> author. Nil values are dropped.
func ConnectForeignKeys(record map[string]any, carriers map[string]string) map[string]any {
	out := maps.Clone(record)
	for carrier, rel := range carriers {
		v, ok := out[carrier]
		if !ok {
			continue
		}
		delete(out, carrier)
		if v == nil {
			continue
		}
		out[rel] = ConnectOne{Connect: ID{ID: v}}
	}
	return out
}

func idList(v any) ([]any, bool) {
	switch ids := v.(type) {
	case []any:
		return ids, true
	case []int:
		return toAny(ids), true
	case []int64:
		return toAny(ids), true
	case []float64:
		return toAny(ids), true
	case []string:
		return toAny(ids), true
	}
	return nil, false
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
