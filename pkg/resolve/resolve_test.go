package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestResolver_RelativeSpecifierProbesKnownExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "foo.ts"), "export interface Foo {}")
	writeFile(t, filepath.Join(root, "index.ts"), `export { Foo } from "./foo"`)

	r := New()
	resolved, err := r.Resolve("./foo", filepath.Join(root, "index.ts"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "foo.ts"), resolved)
}

func TestResolver_RelativeSpecifierFallsBackToDirectoryIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bar", "index.ts"), "export interface Bar {}")
	writeFile(t, filepath.Join(root, "index.ts"), `export { Bar } from "./bar"`)

	r := New()
	resolved, err := r.Resolve("./bar", filepath.Join(root, "index.ts"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "bar", "index.ts"), resolved)
}

func TestResolver_UnresolvableRelativeSpecifierReturnsErrUnresolvable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.ts"), `export { Gone } from "./gone"`)

	r := New()
	_, err := r.Resolve("./gone", filepath.Join(root, "index.ts"))
	require.ErrorIs(t, err, ErrUnresolvable)
}

func TestResolver_BareSpecifierResolvesViaTsconfigPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": { "@lib/*": ["src/lib/*"] }
		}
	}`)
	writeFile(t, filepath.Join(root, "src", "lib", "widget.ts"), "export interface Widget {}")
	writeFile(t, filepath.Join(root, "src", "app.ts"), `import { Widget } from "@lib/widget"`)

	r := New()
	resolved, err := r.Resolve("@lib/widget", filepath.Join(root, "src", "app.ts"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "src", "lib", "widget.ts"), resolved)
}

func TestResolver_BareSpecifierWithNoTsconfigMatchIsUnresolvable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.ts"), `import { x } from "some-package"`)

	r := New()
	_, err := r.Resolve("some-package", filepath.Join(root, "app.ts"))
	require.ErrorIs(t, err, ErrUnresolvable)
}

func TestResolver_ExtendsMergesOneLevel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.base.json"), `{
		"compilerOptions": { "baseUrl": ".", "paths": { "@lib/*": ["src/lib/*"] } }
	}`)
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{ "extends": "./tsconfig.base.json" }`)
	writeFile(t, filepath.Join(root, "src", "lib", "widget.ts"), "export interface Widget {}")
	writeFile(t, filepath.Join(root, "src", "app.ts"), "")

	r := New()
	resolved, err := r.Resolve("@lib/widget", filepath.Join(root, "src", "app.ts"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "src", "lib", "widget.ts"), resolved)
}

func TestResolver_InScopeHonorsIncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{
		"include": ["src/**/*"],
		"exclude": ["src/**/*.test.ts"]
	}`)
	writeFile(t, filepath.Join(root, "src", "app.ts"), "")
	writeFile(t, filepath.Join(root, "src", "app.test.ts"), "")

	r := New()
	require.True(t, r.InScope(filepath.Join(root, "src", "app.ts")))
	require.False(t, r.InScope(filepath.Join(root, "src", "app.test.ts")))
}
