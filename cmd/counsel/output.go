package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

func (a *app) writeJSON(v any) error {
	f, done, err := a.outputFile()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		done()
		return fmt.Errorf("encode output: %w", err)
	}
	return done()
}

func (a *app) writeText(s string) error {
	f, done, err := a.outputFile()
	if err != nil {
		return err
	}

	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if _, err := f.WriteString(s); err != nil {
		done()
		return err
	}
	if a.opts.output != "" {
		a.infra.Logger.Info("output written", "file", a.opts.output)
	}
	return done()
}
