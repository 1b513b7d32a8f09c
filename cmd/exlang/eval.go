package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/szaher/exlang/internal/parser"
	"github.com/szaher/exlang/internal/scope"
)

func newEvalCmd() *cobra.Command {
	var (
		contextFile string
		varsFile    string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against a context",
		Long: `Evaluate a property expression against a YAML context document.
The document becomes the context object; --vars loads an additional
YAML map of scope variables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := loadYAMLDoc(contextFile)
			if err != nil {
				return err
			}

			sc := scope.NewMapScope()
			if varsFile != "" {
				vars, err := loadYAMLDoc(varsFile)
				if err != nil {
					return err
				}
				m, ok := vars.(map[string]any)
				if !ok {
					return fmt.Errorf("vars file %s: expected a YAML map", varsFile)
				}
				for k, v := range m {
					sc.Define(k, v)
				}
			}

			head, err := parser.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parsing expression: %w", err)
			}
			if head == nil {
				return fmt.Errorf("empty expression")
			}

			var result any
			for n := head; n != nil; n = n.Next {
				if n.IsOperator() {
					return fmt.Errorf("operator %q: operator reduction is not supported by eval", n.Name())
				}
				result, err = n.Resolve(root, root, sc)
				if err != nil {
					return err
				}
			}
			return writeResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().StringVarP(&contextFile, "context", "c", "", "YAML context document (default: empty context)")
	cmd.Flags().StringVar(&varsFile, "vars", "", "YAML map of scope variables")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func loadYAMLDoc(path string) (any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func writeResult(w io.Writer, result any, format string) error {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
