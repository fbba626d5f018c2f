package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/schema"
)

// Describe formats err for the terminal.
func Describe(err error) string {
	var b strings.Builder
	var phase *pipeline.PhaseError
	if errors.As(err, &phase) {
		fmt.Fprintf(&b, "crudgen: %s phase failed\n", phase.Phase)
		err = phase.Err
	}

	b.WriteString("Error: " + err.Error())
	var audit *schema.MissingAuditFieldsError
	if errors.As(err, &audit) {
		b.WriteString("\nEvery model needs:\n")
		b.WriteString("  createdAt DateTime  @default(now())\n")
		b.WriteString("  updatedAt DateTime  @updatedAt\n")
		b.WriteString("  deletedAt DateTime?")
	}
	return b.String()
}
