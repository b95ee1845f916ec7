package patterns

import (
	"hash/fnv"
	"regexp"
	"sync"

	"github.com/invopilot/invopilot/pkg/invoice"
)

// compiledPattern is one cache entry. The hash covers the regex source and
// flags, so an edited pattern under the same ID recompiles instead of
// serving the stale program.
type compiledPattern struct {
	hash       uint64
	matcher    *regexp.Regexp
	validator  *regexp.Regexp // nil when the pattern has no validation regex
	compileErr error
}

// regexCache memoizes compiled patterns across concurrently processed
// documents. Reads share an RLock; first compilation per key is serialized
// with a double-checked write lock so each program is built exactly once.
type regexCache struct {
	mu      sync.RWMutex
	entries map[string]*compiledPattern
}

func newRegexCache() *regexCache {
	return &regexCache{entries: make(map[string]*compiledPattern)}
}

// get returns the compiled form of a pattern, compiling on first access. A
// compilation failure is cached too: a persistently bad regex should not be
// re-attempted on every document.
func (c *regexCache) get(p *invoice.ExtractionPattern) *compiledPattern {
	hash := patternHash(p)

	c.mu.RLock()
	entry, ok := c.entries[p.ID]
	c.mu.RUnlock()
	if ok && entry.hash == hash {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[p.ID]; ok && entry.hash == hash {
		return entry
	}

	entry = &compiledPattern{hash: hash}
	entry.matcher, entry.compileErr = regexp.Compile(flagPrefix(p.Flags) + p.Regex)
	if entry.compileErr == nil && p.ValidationRegex != "" {
		entry.validator, entry.compileErr = regexp.Compile(p.ValidationRegex)
	}
	c.entries[p.ID] = entry
	return entry
}

// invalidate drops every entry. Called on the external patterns-changed
// signal; the next document recompiles on demand.
func (c *regexCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]*compiledPattern)
	c.mu.Unlock()
}

func (c *regexCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func patternHash(p *invoice.ExtractionPattern) uint64 {
	h := fnv.New64a()
	h.Write([]byte(p.Regex))
	h.Write([]byte{0})
	h.Write([]byte(p.ValidationRegex))
	h.Write([]byte{flagByte(p.Flags)})
	return h.Sum64()
}

func flagByte(f invoice.PatternFlags) byte {
	var b byte
	if f.CaseInsensitive {
		b |= 1
	}
	if f.Multiline {
		b |= 2
	}
	if f.DotAll {
		b |= 4
	}
	return b
}

func flagPrefix(f invoice.PatternFlags) string {
	flags := ""
	if f.CaseInsensitive {
		flags += "i"
	}
	if f.Multiline {
		flags += "m"
	}
	if f.DotAll {
		flags += "s"
	}
	if flags == "" {
		return ""
	}
	return "(?" + flags + ")"
}
