// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package cache memoizes compiled shader variants.
//
// Drivers look a variant up on every draw whose state changed, so the same
// (source, key) pair is requested many times and often from several
// goroutines at once. A Cache translates each pair once; concurrent
// requests for a pair that is still compiling wait for that compile.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/gogpu/vc4c/tgsi"
	"github.com/gogpu/vc4c/vc4"
)

// schemaVersion is mixed into every digest. Bump it when the compiler's
// output for an unchanged key changes.
const schemaVersion uint16 = 1

// Digest identifies one shader variant.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// keyRecord is what gets hashed. Kind separates fragment and vertex keys
// whose encodings could otherwise collide.
type keyRecord struct {
	Schema  uint16      `msgpack:"schema"`
	Source  string      `msgpack:"source"`
	Kind    string      `msgpack:"kind"`
	FS      *vc4.FSKey  `msgpack:"fs,omitempty"`
	VS      *vc4.VSKey  `msgpack:"vs,omitempty"`
	Options vc4.Options `msgpack:"options"`
}

// KeyDigest hashes a variant request. A nil opts hashes like
// vc4.DefaultOptions.
func KeyDigest(source string, key vc4.StageKey, opts *vc4.Options) (Digest, error) {
	rec := keyRecord{Schema: schemaVersion, Source: source}
	switch k := key.(type) {
	case *vc4.FSKey:
		rec.Kind, rec.FS = "fs", k
	case *vc4.VSKey:
		rec.Kind, rec.VS = "vs", k
	}
	if rec.FS == nil && rec.VS == nil {
		return Digest{}, fmt.Errorf("cache: compile key is nil")
	}
	if opts == nil {
		opts = vc4.DefaultOptions()
	}
	rec.Options = *opts

	b, err := msgpack.Marshal(&rec)
	if err != nil {
		return Digest{}, fmt.Errorf("cache: encode key: %w", err)
	}
	return sha256.Sum256(b), nil
}

// Stats counts cache traffic.
type Stats struct {
	Hits     uint64
	Compiles uint64
	Entries  int
}

// Cache is a concurrency-safe shader variant cache. The zero value is not
// usable; call New.
//
// Returned shaders are shared between callers and must not be modified.
// Failed compiles are not cached.
type Cache struct {
	mu      sync.RWMutex
	entries map[Digest]*vc4.Shader
	group   singleflight.Group

	hits     atomic.Uint64
	compiles atomic.Uint64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Digest]*vc4.Shader)}
}

func (c *Cache) lookup(d Digest) (*vc4.Shader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sh, ok := c.entries[d]
	return sh, ok
}

// Compile returns the shader for (source, key, opts), parsing and
// translating it on first use.
func (c *Cache) Compile(source string, key vc4.StageKey, opts *vc4.Options) (*vc4.Shader, error) {
	d, err := KeyDigest(source, key, opts)
	if err != nil {
		return nil, err
	}
	if sh, ok := c.lookup(d); ok {
		c.hits.Add(1)
		return sh, nil
	}

	v, err, _ := c.group.Do(d.String(), func() (any, error) {
		// A flight that finished between lookup and Do already stored it.
		if sh, ok := c.lookup(d); ok {
			c.hits.Add(1)
			return sh, nil
		}
		c.compiles.Add(1)

		prog, err := tgsi.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		sh, err := vc4.Compile(prog, key, opts)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[d] = sh
		c.mu.Unlock()
		vc4.Logger().Debug("vc4: cached shader variant", "digest", d.String()[:12], "stage", sh.Stage.String())
		return sh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*vc4.Shader), nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return Stats{Hits: c.hits.Load(), Compiles: c.compiles.Load(), Entries: n}
}

// Reset drops every entry. Compiles in flight still return their result
// but store it into the emptied cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
