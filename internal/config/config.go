/*
Package config holds the scan configuration: defaults, the optional YAML
file and validation.
*/
package config

/*
liscan — scanner for registrable .li domain labels
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/x-stp/liscan/internal/candidate"
	"github.com/x-stp/liscan/internal/core"
	"github.com/x-stp/liscan/internal/whois"
)

// DefaultDictFile is the system word list most Unix systems ship.
const DefaultDictFile = "/usr/share/dict/words"

// ServerConfig selects the lookup server.
type ServerConfig struct {
	Host           string  `yaml:"host"`
	Port           int     `yaml:"port"`
	TLD            string  `yaml:"tld"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// ScanConfig is everything a scan run needs.
type ScanConfig struct {
	Length         int                `yaml:"length"`
	Charset        candidate.Charset  `yaml:"charset"`
	Methods        []candidate.Method `yaml:"methods"`
	MinRepeats     int                `yaml:"min_repeats"`
	DictFile       string             `yaml:"dict_file"`
	PinyinDictFile string             `yaml:"pinyin_dict_file"`

	DelaySeconds float64 `yaml:"delay_seconds"`
	MaxRetries   int     `yaml:"max_retries"`
	MaxPerMinute int     `yaml:"max_per_minute"`

	Output  string `yaml:"output"`
	LiveLog string `yaml:"live_log"`
	Verbose bool   `yaml:"verbose"`

	Server ServerConfig `yaml:"server"`
}

// Default returns the built-in configuration. Length and Methods have no
// default and must be set before Validate passes.
func Default() *ScanConfig {
	return &ScanConfig{
		Charset:      candidate.CharsetAlnum,
		MinRepeats:   2,
		DictFile:     DefaultDictFile,
		DelaySeconds: core.DefaultBaseDelay.Seconds(),
		MaxRetries:   core.DefaultMaxRetries,
		Server: ServerConfig{
			Host:           whois.DefaultHost,
			Port:           whois.DefaultPort,
			TLD:            whois.DefaultTLD,
			TimeoutSeconds: whois.DefaultTimeout.Seconds(),
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (*ScanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration the way the command line does. All
// problems are reported together; each one matches candidate.ErrConfig.
func (c *ScanConfig) Validate() error {
	return errors.Join(c.validateGeneration(), c.ValidateLookup())
}

type problems []error

func (p *problems) add(field, value, reason string) {
	*p = append(*p, &candidate.ConfigError{Field: field, Value: value, Reason: reason})
}

func (c *ScanConfig) validateGeneration() error {
	var errs problems
	add := errs.add

	if c.Length <= 0 {
		add("length", fmt.Sprint(c.Length), "must be a positive integer")
	}
	if !c.Charset.Valid() {
		add("charset", string(c.Charset), "unknown charset selector")
	}
	if len(c.Methods) == 0 {
		add("methods", "", "at least one generation method is required")
	}
	for _, m := range c.Methods {
		if !m.Valid() {
			add("method", string(m), "unknown generation method")
		}
	}
	if c.Enabled(candidate.MethodRepeats) && c.MinRepeats < 2 {
		add("min_repeats", fmt.Sprint(c.MinRepeats), "must be >= 2 with the repeats method")
	}
	if c.Enabled(candidate.MethodDict) && c.DictFile == "" {
		add("dict_file", "", "required with the dict method")
	}
	if c.Enabled(candidate.MethodPinyin) && c.PinyinDictFile == "" {
		add("pinyin_dict_file", "", "required with the pinyin method")
	}
	return errors.Join(errs...)
}

// ValidateLookup checks only the querying settings, for runs that bring
// their own labels.
func (c *ScanConfig) ValidateLookup() error {
	var errs problems
	add := errs.add

	if c.DelaySeconds < 0 {
		add("delay_seconds", fmt.Sprint(c.DelaySeconds), "must not be negative")
	}
	if c.MaxRetries < 0 {
		add("max_retries", fmt.Sprint(c.MaxRetries), "must not be negative")
	}
	if c.MaxPerMinute < 0 {
		add("max_per_minute", fmt.Sprint(c.MaxPerMinute), "must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("server.port", fmt.Sprint(c.Server.Port), "out of range")
	}
	if c.Server.TimeoutSeconds < 0 {
		add("server.timeout_seconds", fmt.Sprint(c.Server.TimeoutSeconds), "must not be negative")
	}
	return errors.Join(errs...)
}

// Enabled reports whether m is selected.
func (c *ScanConfig) Enabled(m candidate.Method) bool {
	return c.Generation().Enabled(m)
}

// Generation returns the candidate pipeline settings.
func (c *ScanConfig) Generation() candidate.Spec {
	return candidate.Spec{
		Length:     c.Length,
		Charset:    c.Charset,
		Methods:    c.Methods,
		MinRepeats: c.MinRepeats,
		DictFile:   c.DictFile,
		PinyinFile: c.PinyinDictFile,
	}
}

// BaseDelay converts DelaySeconds.
func (c *ScanConfig) BaseDelay() time.Duration {
	return seconds(c.DelaySeconds)
}

// ClientConfig returns the lookup client settings. The timeout applies to
// connecting and to each read and write.
func (c *ScanConfig) ClientConfig() *whois.Config {
	timeout := seconds(c.Server.TimeoutSeconds)
	return &whois.Config{
		Host:        c.Server.Host,
		Port:        c.Server.Port,
		TLD:         c.Server.TLD,
		DialTimeout: timeout,
		IOTimeout:   timeout,
	}
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
