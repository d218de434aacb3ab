package candidate

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
	"io"
	"slices"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/x-stp/liscan/internal/metrics"
)

// Method names a candidate generation strategy.
type Method string

// Generation methods, named as on the command line.
const (
	MethodExhaustive Method = "all"
	MethodDict       Method = "dict"
	MethodPinyin     Method = "pinyin"
	MethodRepeats    Method = "repeats"
)

// Methods is the fixed order in which enabled sources are chained. The order
// only decides which source emits a shared label first.
var Methods = []Method{MethodExhaustive, MethodDict, MethodPinyin, MethodRepeats}

// Valid reports whether m is a known generation method.
func (m Method) Valid() bool {
	return slices.Contains(Methods, m)
}

// progressEvery controls how often the pipeline logs its progress.
const progressEvery = 10000

// Spec is the part of the scan configuration the pipeline reads.
type Spec struct {
	Length     int
	Charset    Charset
	Methods    []Method
	MinRepeats int
	DictFile   string
	PinyinFile string
}

// Enabled reports whether m is among the selected methods.
func (s Spec) Enabled(m Method) bool {
	return slices.Contains(s.Methods, m)
}

// PipelineStats counts what the pipeline did with the candidates it pulled.
type PipelineStats struct {
	Produced  int64 // candidates pulled from all sources
	Invalid   int64 // rejected by the label rules
	Duplicate int64 // already yielded earlier in this run
	Yielded   int64 // unique valid labels handed out
}

type namedSource struct {
	method Method
	src    Source
}

// Pipeline chains the enabled sources, validates each candidate and drops
// labels already yielded during this run. It is pull-based: production only
// happens inside Next, one label at a time.
//
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	alphabet      string
	hyphenAllowed bool
	length        int
	sources       []namedSource
	cur           int
	seen          *labelSet
	stats         PipelineStats
	logger        *zap.Logger
	finished      bool
}

// NewPipeline resolves the charset and builds one source per enabled method.
// Methods whose prerequisites are missing (no file path, min repeats < 2) are
// skipped with a warning.
//
// Parameters:
//
//	spec: Label length, charset, methods and their word-list settings.
//	logger: Receives source setup and progress events. Nil disables logging.
//
// Returns:
//
//	A *Pipeline yielding unique valid labels, or a *ConfigError for an
//	unknown charset or method.
func NewPipeline(spec Spec, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	alphabet, hyphenAllowed, err := Resolve(spec.Charset)
	if err != nil {
		return nil, err
	}
	for _, m := range spec.Methods {
		if !m.Valid() {
			return nil, &ConfigError{Field: "method", Value: string(m), Reason: "unknown generation method"}
		}
	}

	p := &Pipeline{
		alphabet:      alphabet,
		hyphenAllowed: hyphenAllowed,
		length:        spec.Length,
		seen:          newLabelSet(),
		logger:        logger,
	}

	for _, m := range Methods {
		if !spec.Enabled(m) {
			continue
		}
		var src Source
		switch m {
		case MethodExhaustive:
			src = NewExhaustive(spec.Length, alphabet)
		case MethodDict, MethodPinyin:
			path := spec.DictFile
			if m == MethodPinyin {
				path = spec.PinyinFile
			}
			if path == "" {
				logger.Warn("generation method needs a word list file, skipping", zap.String("method", string(m)))
				continue
			}
			src = NewWordList(path, spec.Length, alphabet, logger.With(zap.String("method", string(m))))
		case MethodRepeats:
			if spec.MinRepeats < 2 {
				logger.Warn("repeats method needs min repeats >= 2, skipping", zap.Int("min_repeats", spec.MinRepeats))
				continue
			}
			src = NewRepeatPattern(spec.Length, alphabet, spec.MinRepeats)
		}
		logger.Info("added candidate source",
			zap.String("method", string(m)),
			zap.Int("length", spec.Length),
			zap.String("alphabet", alphabet))
		p.sources = append(p.sources, namedSource{method: m, src: src})
	}

	if len(p.sources) == 0 {
		logger.Warn("no usable generation method selected, the scan will produce no labels")
	}
	return p, nil
}

// Alphabet returns the resolved alphabet.
func (p *Pipeline) Alphabet() string {
	return p.alphabet
}

// HyphenAllowed reports whether the resolved alphabet contains '-'.
func (p *Pipeline) HyphenAllowed() bool {
	return p.hyphenAllowed
}

// Active returns the methods that actually got a source, in chaining order.
func (p *Pipeline) Active() []Method {
	out := make([]Method, 0, len(p.sources))
	for _, s := range p.sources {
		out = append(out, s.method)
	}
	return out
}

// Next returns the next unique valid label, or ok=false when every source
// is exhausted.
func (p *Pipeline) Next() (string, bool) {
	m := metrics.GetMetrics()
	for p.cur < len(p.sources) {
		label, ok := p.sources[p.cur].src.Next()
		if !ok {
			closeSource(p.sources[p.cur].src)
			p.cur++
			continue
		}

		p.stats.Produced++
		if p.stats.Produced%progressEvery == 0 {
			p.logger.Debug("candidate generation progress",
				zap.Int64("processed", p.stats.Produced),
				zap.Int("unique", p.seen.Len()))
		}

		if utf8.RuneCountInString(label) != p.length || !IsValidLabel(label, p.hyphenAllowed) {
			p.stats.Invalid++
			m.RecordCandidate(metrics.CandidateInvalid)
			continue
		}
		if !p.seen.Add(label) {
			p.stats.Duplicate++
			m.RecordCandidate(metrics.CandidateDuplicate)
			continue
		}
		p.stats.Yielded++
		m.RecordCandidate(metrics.CandidateYielded)
		return label, true
	}

	if !p.finished {
		p.finished = true
		p.logger.Info("candidate generation finished", zap.Int("unique", p.seen.Len()))
	}
	return "", false
}

// Stats returns a copy of the pipeline counters.
func (p *Pipeline) Stats() PipelineStats {
	return p.stats
}

// Close releases every source still holding resources. The pipeline yields
// nothing afterwards.
func (p *Pipeline) Close() error {
	var errs []error
	for i := p.cur; i < len(p.sources); i++ {
		if err := closeSource(p.sources[i].src); err != nil {
			errs = append(errs, err)
		}
	}
	p.cur = len(p.sources)
	return errors.Join(errs...)
}

func closeSource(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
