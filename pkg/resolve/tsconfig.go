package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// compilerOptions is the subset of tsconfig.json's compilerOptions this
// facade understands (spec §6 "Config discovery"). Fields the real
// TypeScript compiler supports beyond path mapping (target, lib, strict,
// ...) are intentionally not modeled: this facade only needs enough of the
// config to drive module resolution, not to type-check.
type compilerOptions struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
}

// tsconfigFile is the JSON shape of a tsconfig.json/jsconfig.json this
// facade reads. Extends is followed one level (the common monorepo
// "extends a shared base config" pattern); deeper chains fall back to the
// immediate file's own settings, which is a deliberate scope reduction
// documented in DESIGN.md.
type tsconfigFile struct {
	Extends         string           `json:"extends"`
	CompilerOptions compilerOptions  `json:"compilerOptions"`
	Include         []string         `json:"include"`
	Exclude         []string         `json:"exclude"`
}

// resolvedConfig is a tsconfig after extends-merging, anchored to the
// directory it was discovered in (baseUrl and include/exclude globs are
// relative to that directory, per the TypeScript config resolution rules).
type resolvedConfig struct {
	dir     string
	baseURL string
	paths   map[string][]string
	include []string
	exclude []string
}

// defaultConfig is used when no tsconfig.json/jsconfig.json is found
// walking up from a file's directory (spec §4.2 "if absent, uses default
// options").
func defaultConfig(dir string) *resolvedConfig {
	return &resolvedConfig{dir: dir}
}

// configCache discovers and memoizes the nearest tsconfig per directory, so
// repeated Resolve calls for files in the same package do not re-walk the
// filesystem or re-parse JSON (spec §6: "applied to every resolution call
// from files it transitively influences").
type configCache struct {
	mu      sync.Mutex
	byDir   map[string]*resolvedConfig
	byFile  map[string]*tsconfigFile
}

func newConfigCache() *configCache {
	return &configCache{
		byDir:  make(map[string]*resolvedConfig),
		byFile: make(map[string]*tsconfigFile),
	}
}

// nearestConfig finds the tsconfig.json governing containingDir, searching
// upward to the filesystem root. The result is cached per starting
// directory.
func (c *configCache) nearestConfig(containingDir string) *resolvedConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg, ok := c.byDir[containingDir]; ok {
		return cfg
	}

	cfg := c.searchUpward(containingDir)
	c.byDir[containingDir] = cfg
	return cfg
}

func (c *configCache) searchUpward(dir string) *resolvedConfig {
	start := dir
	for {
		for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
			path := filepath.Join(dir, name)
			if tc, ok := c.readConfig(path); ok {
				return c.resolve(tc, dir)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return defaultConfig(start)
}

func (c *configCache) readConfig(path string) (*tsconfigFile, bool) {
	if tc, ok := c.byFile[path]; ok {
		return tc, tc != nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.byFile[path] = nil
		return nil, false
	}
	var tc tsconfigFile
	if err := json.Unmarshal(data, &tc); err != nil {
		c.byFile[path] = nil
		return nil, false
	}
	c.byFile[path] = &tc
	return &tc, true
}

// resolve anchors tc (found in dir) to its directory and merges one level
// of `extends`, with the extending file's own settings taking precedence
// over the base it extends.
func (c *configCache) resolve(tc *tsconfigFile, dir string) *resolvedConfig {
	rc := &resolvedConfig{
		dir:     dir,
		baseURL: tc.CompilerOptions.BaseURL,
		paths:   tc.CompilerOptions.Paths,
		include: tc.Include,
		exclude: tc.Exclude,
	}

	if tc.Extends != "" {
		basePath := tc.Extends
		if !filepath.IsAbs(basePath) {
			basePath = filepath.Join(dir, basePath)
		}
		if base, ok := c.readConfig(basePath); ok {
			if rc.baseURL == "" {
				rc.baseURL = base.CompilerOptions.BaseURL
			}
			if rc.paths == nil {
				rc.paths = base.CompilerOptions.Paths
			}
			if rc.include == nil {
				rc.include = base.Include
			}
			if rc.exclude == nil {
				rc.exclude = base.Exclude
			}
		}
	}

	return rc
}
