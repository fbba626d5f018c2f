package schema

import (
	"errors"
	"slices"

	"github.com/matthewbaird/crudgen/internal/naming"
)

// ReservedNames are the lower-case entity names that would land in a
// support directory of a generated project: src/prisma and src/common in
// the backend, src/components, src/core and src/utils in the frontend.
var ReservedNames = []string{"common", "components", "core", "prisma", "utils"}

// Validate checks the invariants the generators rely on: every entity has
// an id field and all audit fields, and no entity name is reserved. All
// offending entities are reported in declaration order. When several
// checks fail the errors are joined, so errors.As finds each.
func Validate(m *Model) error {
	var audit MissingAuditFieldsError
	var ids MissingIDError
	var reserved ReservedNameError
	for _, e := range m.Entities {
		if slices.Contains(ReservedNames, naming.For(e.Name).Lower) {
			reserved.Entities = append(reserved.Entities, e.Name)
		}
		var missing []string
		for _, name := range AuditFields {
			if e.Field(name) == nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			audit.Missing = append(audit.Missing, EntityMissing{Entity: e.Name, Fields: missing})
		}
		if e.ID() == nil {
			ids.Entities = append(ids.Entities, e.Name)
		}
	}

	var errs []error
	if len(audit.Missing) > 0 {
		errs = append(errs, &audit)
	}
	if len(ids.Entities) > 0 {
		errs = append(errs, &ids)
	}
	if len(reserved.Entities) > 0 {
		errs = append(errs, &reserved)
	}
	return errors.Join(errs...)
}
