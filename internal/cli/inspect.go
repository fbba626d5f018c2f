package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/emit/contract"
	"github.com/matthewbaird/crudgen/internal/formschema"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/schema"
	"github.com/matthewbaird/crudgen/internal/softdelete"
)

// Inspection is what inspect prints: the normalized model as the
// generators see it.
type Inspection struct {
	Schema     string             `json:"schema" yaml:"schema"`
	Entities   []EntityInspection `json:"entities" yaml:"entities"`
	Enums      []*schema.Enum     `json:"enums" yaml:"enums"`
	SoftDelete []softdelete.Rule  `json:"softDelete" yaml:"softDelete"`
	Artifacts  []emit.Artifact    `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// EntityInspection describes one entity.
type EntityInspection struct {
	Names     naming.Names          `json:"names" yaml:"names"`
	Fields    []*schema.Field       `json:"fields" yaml:"fields"`
	Contract  contract.Fields       `json:"contract" yaml:"contract"`
	Form      formschema.FormSchema `json:"form" yaml:"form"`
	Relations []string              `json:"listRelations,omitempty" yaml:"listRelations,omitempty"`
}

// Inspect builds the inspection of m. With opts.Target set, the files a
// run with opts would write are included.
func Inspect(m *schema.Model, opts pipeline.Options) (*Inspection, error) {
	p := formschema.Projector{Enums: m.Enums, Labels: opts.Labels}
	out := &Inspection{
		Schema:     m.Path,
		Entities:   make([]EntityInspection, 0, len(m.Entities)),
		Enums:      m.Enums,
		SoftDelete: softdelete.Rules,
	}
	for _, e := range m.Entities {
		form := p.Project(e)
		out.Entities = append(out.Entities, EntityInspection{
			Names:     naming.For(e.Name),
			Fields:    e.Fields,
			Contract:  contract.FieldSet(m, e),
			Form:      form,
			Relations: form.ListRelations(),
		})
	}
	if opts.Target != "" {
		r, err := pipeline.Render(m, opts)
		if err != nil {
			return nil, err
		}
		out.Artifacts = r.All()
		emit.Sort(out.Artifacts)
	}
	return out, nil
}

func newInspectCmd() *cobra.Command {
	var (
		format    string
		artifacts string
	)

	cmd := &cobra.Command{
		Use:   "inspect <schema>",
		Short: "Print the normalized model, form schemas and contract field sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			m, err := schema.Load(args[0])
			if err != nil {
				return err
			}
			if err := schema.Validate(m); err != nil {
				return err
			}
			var target pipeline.Target
			if artifacts != "" {
				if target, err = pipeline.ParseTarget(artifacts); err != nil {
					return err
				}
			}
			in, err := Inspect(m, runOptions(cfg, args[0], target))
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), format, in)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&artifacts, "artifacts", "", "also list the files generated for a target: front, back or both")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}
