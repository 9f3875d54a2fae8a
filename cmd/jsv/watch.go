package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/averik/jsonschema/internal/watch"
)

var debounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch -s schema.json instance.json [instance...]",
	Short: "Re-validate instances whenever the schema or an instance changes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file")
	watchCmd.Flags().IntVar(&draftFlag, "draft", 2020, "default draft for schemas without $schema (4, 6, 7, 2019, 2020)")
	watchCmd.Flags().BoolVar(&assertFormat, "assert-format", false, "treat format as an assertion")
	watchCmd.Flags().BoolVar(&assertContent, "assert-content", false, "treat content keywords as assertions (draft 7)")
	watchCmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "delay before reacting to a change")
	watchCmd.MarkFlagRequired("schema")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if strings.Contains(schemaPath, "://") && !strings.HasPrefix(schemaPath, "file://") {
		return fmt.Errorf("watch needs a local schema file, got %q", schemaPath)
	}
	paths := append([]string{strings.TrimPrefix(schemaPath, "file://")}, args...)
	w, err := watch.Files(debounce, paths...)
	if err != nil {
		return err
	}
	defer w.Close()

	runPass(args)
	logger.Info().Strs("files", paths).Msg("watching")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logger.Info().Msg("stopping")
			return nil
		case err, ok := <-w.Events():
			if !ok {
				return nil
			}
			if err != nil {
				logger.Warn().Err(err).Msg("watch error")
				continue
			}
			runPass(args)
		}
	}
}

// runPass compiles the schema fresh and validates every instance; failures
// are logged rather than fatal so the watch loop survives bad edits.
func runPass(instances []string) {
	schemas, idx, err := compileSchema(schemaPath)
	if err != nil {
		logger.Error().Err(err).Str("schema", schemaPath).Msg("compile failed")
		return
	}
	for _, path := range instances {
		doc, err := readDocument(path)
		if err != nil {
			logger.Error().Err(err).Str("instance", path).Msg("read failed")
			continue
		}
		if err := schemas.Validate(doc, idx); err != nil {
			logger.Error().Str("instance", path).Msg("invalid")
			os.Stderr.WriteString(err.Error() + "\n")
			continue
		}
		logger.Info().Str("instance", path).Msg("valid")
	}
}
