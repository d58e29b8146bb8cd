package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cssinline/internal/config"
	"cssinline/internal/state"
	"cssinline/pkg/inliner"
)

// "Привет" in windows-1251
var cp1251Hello = []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}

func TestDecodeDocument(t *testing.T) {
	t.Run("utf-8 meta", func(t *testing.T) {
		doc, err := decodeDocument([]byte(`<meta charset="utf-8"><p>Привет</p>`), "")
		require.NoError(t, err)
		assert.Equal(t, "utf-8", doc.name)
		assert.Equal(t, `<meta charset="utf-8"><p>Привет</p>`, doc.content)
	})

	t.Run("sniffed utf-8 without meta", func(t *testing.T) {
		doc, err := decodeDocument([]byte(`<p>Привет</p>`), "")
		require.NoError(t, err)
		assert.Equal(t, "utf-8", doc.name)
		assert.Equal(t, `<p>Привет</p>`, doc.content)

		out, err := doc.encode(doc.content)
		require.NoError(t, err)
		assert.Equal(t, `<p>Привет</p>`, string(out))
	})

	t.Run("ascii without meta", func(t *testing.T) {
		doc, err := decodeDocument([]byte(`<p>x</p>`), "")
		require.NoError(t, err)
		assert.Equal(t, "windows-1252", doc.name)
		assert.Equal(t, `<p>x</p>`, doc.content)
	})

	t.Run("detected from meta", func(t *testing.T) {
		data := append([]byte(`<meta charset="windows-1251"><p>`), cp1251Hello...)
		doc, err := decodeDocument(data, "")
		require.NoError(t, err)
		assert.Equal(t, "windows-1251", doc.name)
		assert.Equal(t, `<meta charset="windows-1251"><p>Привет`, doc.content)

		out, err := doc.encode(doc.content)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("forced label", func(t *testing.T) {
		doc, err := decodeDocument(cp1251Hello, "cp1251")
		require.NoError(t, err)
		assert.Equal(t, "windows-1251", doc.name)
		assert.Equal(t, "Привет", doc.content)
	})

	t.Run("unknown label", func(t *testing.T) {
		_, err := decodeDocument([]byte("x"), "no-such-charset")
		assert.Error(t, err)
	})
}

func TestDocument_EncodeEscapesUnsupported(t *testing.T) {
	doc, err := decodeDocument([]byte("x"), "windows-1251")
	require.NoError(t, err)

	out, err := doc.encode("ok ✓")
	require.NoError(t, err)
	assert.Equal(t, "ok &#10003;", string(out))
}

func TestReadSource(t *testing.T) {
	data, err := readSource("", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(data))

	data, err = readSource("-", strings.NewReader("dash"))
	require.NoError(t, err)
	assert.Equal(t, "dash", string(data))

	_, err = readSource(filepath.Join(t.TempDir(), "absent.html"), nil)
	assert.Error(t, err)
}

func TestWriteDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")

	require.NoError(t, writeDestination(path, []byte("one"), false))
	assert.Error(t, writeDestination(path, []byte("two"), false), "existing files are kept without overwrite")
	require.NoError(t, writeDestination(path, []byte("three"), true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "three", string(data))
}

func TestFindHTMLFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.html", "b.HTM", "c.txt", filepath.Join("sub", "d.html")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := findHTMLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.html"),
		filepath.Join(dir, "b.HTM"),
		filepath.Join(dir, "sub", "d.html"),
	}, files)
}

func TestProcessDir(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	input := `<style type="text/css">p{color:red}</style><p>x</p>`
	require.NoError(t, os.WriteFile(filepath.Join(src, "good.html"), []byte(input), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "bad.html"), []byte(input), 0o644))

	// an existing destination makes one file fail without stopping the others
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "sub", "bad.html"), []byte("keep"), 0o644))

	log := zaptest.NewLogger(t)
	err := processDir(context.Background(), inliner.New(config.Default(), log), src, dst, inlineOptions{stats: true, warnings: true}, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(filepath.Join(dst, "good.html"))
	require.NoError(t, err)
	assert.Equal(t, `<style type="text/css">p{color:red}</style><p style="color:red">x</p>`, string(data))

	data, err = os.ReadFile(filepath.Join(dst, "sub", "bad.html"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestPrintIssues(t *testing.T) {
	var sb strings.Builder
	printIssues(&sb, "a.html", nil)
	assert.Equal(t, "a.html: no email compatibility issues found\n", sb.String())

	sb.Reset()
	printIssues(&sb, "b.html", []inliner.ValidationIssue{
		{Type: "structure", Severity: "warning", Message: "use tables", Element: "body"},
	})
	assert.Equal(t, "b.html: found 1 email compatibility issues:\n  [WARNING] body: use tables\n", sb.String())
}

func TestApp_InlineKeepsDocumentCharset(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "in.html"), filepath.Join(dir, "out.html")
	data := append([]byte(`<meta charset="windows-1251"><style type="text/css">p{color:red}</style><p>`), cp1251Hello...)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	require.NoError(t, newApp().Run(state.ContextWithEnv(context.Background()), []string{appName, "inline", src, dst}))

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	want := append([]byte(`<meta charset="windows-1251"><style type="text/css">p{color:red}</style><p style="color:red">`), cp1251Hello...)
	assert.Equal(t, want, out)
}

func TestApp_DumpConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := newApp().Run(state.ContextWithEnv(context.Background()), []string{appName, "dumpconfig", "--default", path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "target_email_client: generic")
}

func TestApp_Inline(t *testing.T) {
	src, dst := filepath.Join(t.TempDir(), "mail.html"), t.TempDir()
	require.NoError(t, os.WriteFile(src, []byte(`<style type="text/css">p{color:red;float:left}</style><p>x</p>`), 0o644))

	args := []string{appName, "inline", "--target", "outlook", "--email-optimizations", src, dst}
	require.NoError(t, newApp().Run(state.ContextWithEnv(context.Background()), args))

	data, err := os.ReadFile(filepath.Join(dst, "mail.html"))
	require.NoError(t, err)
	assert.Equal(t, `<style type="text/css">p{color:red;float:left}</style><p style="color:red">x</p>`, string(data))
}
