/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/dkmstr/udstunnel/internal/config"
)

// writeDefaultConfig serializes config.Default() to path, picking the
// wire format from its extension, the way nabbar/golib/cobra's
// ConfigureWriteConfig converts its canonical JSON to TOML/YAML on write.
func writeDefaultConfig(path string) error {
	def := config.Default()

	raw, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default configuration: %w", err)
	}

	var out []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		out, err = jsonToYAML(raw)
	case ".toml", ".tml":
		out, err = jsonToTOML(raw)
	default:
		out = raw
	}
	if err != nil {
		return fmt.Errorf("convert default configuration for %q: %w", path, err)
	}

	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}

	fmt.Printf("config file %q written; override any field with the environment prefix udstunnel_\n", path)
	return nil
}

func jsonToYAML(raw []byte) ([]byte, error) {
	var mod map[string]interface{}
	if err := json.Unmarshal(raw, &mod); err != nil {
		return nil, err
	}
	return yaml.Marshal(mod)
}

func jsonToTOML(raw []byte) ([]byte, error) {
	var mod map[string]interface{}
	if err := json.Unmarshal(raw, &mod); err != nil {
		return nil, err
	}
	return toml.Marshal(mod)
}
