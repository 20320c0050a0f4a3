package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blobpool/blobpool/pkg/config"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

var schemaOutput string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Emit the configuration JSON schema",
	Long: `Generate a JSON schema describing the configuration file.

Point your IDE's YAML language server at the schema for completion and
inline validation, or feed it to any JSON schema validator.

Examples:
  # Print schema to stdout
  blobpool config schema

  # Save schema to file
  blobpool config schema --output config.schema.json`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to a file instead of stdout")
}

func runSchema(cmd *cobra.Command, args []string) error {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "Blobpool Configuration"
	schema.Description = "Configuration schema for the blobpool server"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if schemaOutput == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if err := os.WriteFile(schemaOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", schemaOutput)
	return nil
}
