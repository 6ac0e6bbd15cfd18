package xsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 辅助函数
// =============================================================================

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
	return path
}

func mustParseSpec(t *testing.T, raw string) *Spec {
	t.Helper()
	sp, err := ParseSpec(raw)
	require.NoError(t, err)
	return sp
}

// =============================================================================
// FileProvider 测试
// =============================================================================

func TestFileProvider_LoadProperties(t *testing.T) {
	path := createTempFile(t, "app.properties", "server.host=localhost\nserver.port=8080\n")
	p := NewFileProvider()

	tbl, err := p.Load(context.Background(), mustParseSpec(t, path))
	require.NoError(t, err)

	assert.Equal(t, "localhost", tbl.GetOr("server.host", ""))
	assert.Equal(t, "8080", tbl.GetOr("server.port", ""))
}

func TestFileProvider_LoadYAML(t *testing.T) {
	path := createTempFile(t, "app.yaml", "server:\n  host: localhost\n  port: 8080\n")
	p := NewFileProvider()

	tbl, err := p.Load(context.Background(), mustParseSpec(t, path))
	require.NoError(t, err)

	assert.Equal(t, "localhost", tbl.GetOr("server.host", ""))
	assert.Equal(t, "8080", tbl.GetOr("server.port", ""))
}

func TestFileProvider_NotFound(t *testing.T) {
	p := NewFileProvider()
	missing := filepath.Join(t.TempDir(), "missing.properties")

	_, err := p.Load(context.Background(), mustParseSpec(t, missing))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.NotErrorIs(t, err, ErrSourceLoad)
}

func TestFileProvider_ParseFailure(t *testing.T) {
	path := createTempFile(t, "bad.properties", `bad=\u00zz`)
	p := NewFileProvider()

	_, err := p.Load(context.Background(), mustParseSpec(t, path))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceLoad)
}

func TestFileProvider_Stamp(t *testing.T) {
	path := createTempFile(t, "app.properties", "a=1\n")
	p := NewFileProvider()
	spec := mustParseSpec(t, path)

	first, err := p.Stamp(context.Background(), spec)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	unchanged, err := p.Stamp(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, first, unchanged)

	// 改写文件后印章必须变化
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte("a=1\nb=2\n"), 0600))
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err := p.Stamp(context.Background(), spec)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestFileProvider_StampNotFound(t *testing.T) {
	p := NewFileProvider()
	missing := filepath.Join(t.TempDir(), "missing.properties")

	_, err := p.Stamp(context.Background(), mustParseSpec(t, missing))
	assert.ErrorIs(t, err, ErrSourceNotFound)
}
