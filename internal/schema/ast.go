package schema

import "strings"

// File is the parsed form of one Prisma schema file, before normalization.
type File struct {
	Blocks []*Block
}

// Block is a top-level declaration: model, enum, datasource, generator,
// view or composite type.
type Block struct {
	Kind       string
	Name       string
	Line, Col  int
	Fields     []*FieldDecl // model, view, type
	Values     []*EnumValue // enum
	Properties []*Property  // datasource, generator
	Attributes []*Attribute // @@ attributes
}

// FieldDecl is one line of a model body: name, type, modifiers, attributes.
type FieldDecl struct {
	Name       string
	Type       string
	TypeArgs   []*Arg // Unsupported("...")
	List       bool
	Optional   bool
	Attributes []*Attribute
	Line, Col  int
}

// Attribute returns the first attribute with the given name, or nil.
func (f *FieldDecl) Attribute(name string) *Attribute {
	for _, a := range f.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// EnumValue is one member of an enum block.
type EnumValue struct {
	Name       string
	Attributes []*Attribute
	Line       int
}

// Property is a key = value line of a datasource or generator block.
type Property struct {
	Key   string
	Value Expr
}

// Attribute is a field attribute (@default(now())) or block attribute
// (@@unique([a, b])). Name excludes the leading @ or @@ and may be dotted
// (db.VarChar).
type Attribute struct {
	Name string
	Args []*Arg
}

// Arg returns the argument named name, falling back to the positional
// argument at index pos. Pass pos < 0 to disable the fallback.
func (a *Attribute) Arg(name string, pos int) (Expr, bool) {
	for _, arg := range a.Args {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	if pos >= 0 && pos < len(a.Args) && a.Args[pos].Name == "" {
		return a.Args[pos].Value, true
	}
	return Expr{}, false
}

// Arg is a possibly named attribute or function argument.
type Arg struct {
	Name  string
	Value Expr
}

// ExprKind classifies an attribute argument value.
type ExprKind int

const (
	ExprIdent ExprKind = iota
	ExprString
	ExprNumber
	ExprCall
	ExprArray
)

// Expr is an attribute argument value: a literal, an identifier, a function
// call like now() or an array like [id].
type Expr struct {
	Kind  ExprKind
	Value string // identifier, literal text or function name
	Args  []*Arg // ExprCall
	Items []Expr // ExprArray
}

// String renders the expression in Prisma syntax.
func (e Expr) String() string {
	switch e.Kind {
	case ExprString:
		return `"` + strings.ReplaceAll(e.Value, `"`, `\"`) + `"`
	case ExprCall:
		return e.Value + "(" + joinArgs(e.Args) + ")"
	case ExprArray:
		parts := make([]string, len(e.Items))
		for i, it := range e.Items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return e.Value
	}
}

// Idents returns the identifier items of an array expression, or the
// expression itself when it is a bare identifier.
func (e Expr) Idents() []string {
	switch e.Kind {
	case ExprIdent:
		return []string{e.Value}
	case ExprArray:
		var out []string
		for _, it := range e.Items {
			if it.Kind == ExprIdent {
				out = append(out, it.Value)
			}
		}
		return out
	}
	return nil
}

func joinArgs(args []*Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			parts[i] = a.Name + ": " + a.Value.String()
		} else {
			parts[i] = a.Value.String()
		}
	}
	return strings.Join(parts, ", ")
}
