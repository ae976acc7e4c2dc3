package config

// This file implements the non-flag configuration layers. Precedence, lowest
// to highest: DefaultConfig, YAML config file, environment (.env included),
// command-line flags.

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadFile decodes a YAML config file on top of cfg. Keys absent from the
// file leave the current values untouched; unknown keys are an error.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. An empty path means ".env" in
// the working directory, which may be absent.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// envBinding maps environment variable names (first set wins) onto a setter.
type envBinding struct {
	names []string
	set   func(cfg *Config, v string) error
}

var envBindings = []envBinding{
	{[]string{"OCRRENAME_LANG", "TESSERACT_LANG"}, func(c *Config, v string) error {
		c.OCR.Language = v
		return nil
	}},
	{[]string{"OCRRENAME_TESSERACT", "TESSERACT_CMD"}, func(c *Config, v string) error {
		c.OCR.Command = v
		return nil
	}},
	{[]string{"OCRRENAME_TESSDATA_DIR"}, func(c *Config, v string) error {
		c.OCR.TessdataDir = v
		return nil
	}},
	{[]string{"OCRRENAME_PDFTOPPM"}, func(c *Config, v string) error {
		c.PDF.Command = v
		return nil
	}},
	{[]string{"OCRRENAME_OCR_BACKEND"}, func(c *Config, v string) error {
		c.OCR.Backend = OCRBackend(v)
		return nil
	}},
	{[]string{"OCRRENAME_PDF_BACKEND"}, func(c *Config, v string) error {
		c.PDF.Backend = PDFBackend(v)
		return nil
	}},
	{[]string{"OCRRENAME_DPI"}, func(c *Config, v string) error {
		n, err := parseInt(v, "OCRRENAME_DPI")
		if err != nil {
			return err
		}
		c.PDF.DPI = n
		return nil
	}},
	{[]string{"OCRRENAME_JOBS"}, func(c *Config, v string) error {
		n, err := parseInt(v, "OCRRENAME_JOBS")
		if err != nil {
			return err
		}
		c.Jobs = n
		return nil
	}},
}

// ApplyEnv overlays environment variables onto cfg. lookup is normally
// os.LookupEnv; tests pass a map-backed function.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		for _, name := range b.names {
			v, ok := lookup(name)
			if !ok || v == "" {
				continue
			}
			if err := b.set(cfg, v); err != nil {
				return err
			}
			break
		}
	}
	return nil
}

// parseInt parses a whole number for numeric settings; returns a clear error on failure.
func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number (got %q)", name, s)
	}
	return n, nil
}
