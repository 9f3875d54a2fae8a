package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/averik/jsonschema"
)

var (
	schemaPath    string
	draftFlag     int
	assertFormat  bool
	assertContent bool
)

var validateCmd = &cobra.Command{
	Use:   "validate -s schema.json instance.json [instance...]",
	Short: "Validate instance documents against a schema",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file or URL")
	validateCmd.Flags().IntVar(&draftFlag, "draft", 2020, "default draft for schemas without $schema (4, 6, 7, 2019, 2020)")
	validateCmd.Flags().BoolVar(&assertFormat, "assert-format", false, "treat format as an assertion")
	validateCmd.Flags().BoolVar(&assertContent, "assert-content", false, "treat content keywords as assertions (draft 7)")
	validateCmd.MarkFlagRequired("schema")
}

func runValidate(cmd *cobra.Command, args []string) error {
	schemas, idx, err := compileSchema(schemaPath)
	if err != nil {
		return err
	}
	failed := 0
	for _, path := range args {
		doc, err := readDocument(path)
		if err != nil {
			return err
		}
		if err := schemas.Validate(doc, idx); err != nil {
			failed++
			logger.Error().Str("instance", path).Msg("invalid")
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		logger.Info().Str("instance", path).Msg("valid")
	}
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}

func compileSchema(path string) (*jsonschema.Schemas, jsonschema.SchemaIndex, error) {
	draft, err := draftByNumber(draftFlag)
	if err != nil {
		return nil, 0, err
	}
	c := jsonschema.NewCompiler()
	c.DefaultDraft(draft)
	if assertFormat {
		c.AssertFormat()
	}
	if assertContent {
		c.AssertContent()
	}
	c.RegisterLoader("http", jsonschema.HTTPLoader{})
	c.RegisterLoader("https", jsonschema.HTTPLoader{})

	loc, err := schemaURL(path)
	if err != nil {
		return nil, 0, err
	}
	var schemas jsonschema.Schemas
	idx, err := c.Compile(&schemas, loc)
	if err != nil {
		return nil, 0, err
	}
	return &schemas, idx, nil
}

func draftByNumber(n int) (*jsonschema.Draft, error) {
	switch n {
	case 4:
		return jsonschema.Draft4, nil
	case 6:
		return jsonschema.Draft6, nil
	case 7:
		return jsonschema.Draft7, nil
	case 2019:
		return jsonschema.Draft2019, nil
	case 2020:
		return jsonschema.Draft2020, nil
	}
	return nil, fmt.Errorf("unknown draft %d: want 4, 6, 7, 2019 or 2020", n)
}

// schemaURL accepts either a URL or a local path.
func schemaURL(path string) (string, error) {
	if strings.Contains(path, "://") {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func readDocument(path string) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return jsonschema.UnmarshalYAML(data)
	default:
		return jsonschema.UnmarshalJSON(f)
	}
}
