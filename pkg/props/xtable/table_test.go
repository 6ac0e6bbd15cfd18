package xtable

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 构造函数测试
// =============================================================================

func TestNew_Empty(t *testing.T) {
	tbl := New()
	require.NotNil(t, tbl)

	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Keys())
	assert.Empty(t, tbl.Map())
}

func TestFromMap_SortedInsertion(t *testing.T) {
	tbl := FromMap(map[string]string{
		"zebra":  "z",
		"apple":  "a",
		"mango":  "m",
		"banana": "b",
	})

	// map 迭代无序，FromMap 必须产出确定的键序
	assert.Equal(t, []string{"apple", "banana", "mango", "zebra"}, tbl.Keys())
	assert.Equal(t, 4, tbl.Len())
}

func TestFromMap_Nil(t *testing.T) {
	tbl := FromMap(nil)
	require.NotNil(t, tbl)
	assert.Equal(t, 0, tbl.Len())
}

// =============================================================================
// Parse 测试
// =============================================================================

func TestParse_Basic(t *testing.T) {
	tbl, err := Parse([]byte("server.host=localhost\nserver.port=8080\n"))
	require.NoError(t, err)

	v, ok := tbl.Get("server.host")
	assert.True(t, ok)
	assert.Equal(t, "localhost", v)

	v, ok = tbl.Get("server.port")
	assert.True(t, ok)
	assert.Equal(t, "8080", v)
}

func TestParse_CommentsAndBlankLines(t *testing.T) {
	text := `
# 注释行
! 另一种注释
key.one=1

key.two=2
`
	tbl, err := Parse([]byte(text))
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"key.one", "key.two"}, tbl.Keys())
}

func TestParse_ColonAndSpaceSeparators(t *testing.T) {
	tbl, err := Parse([]byte("alpha: one\nbeta two\ngamma=three\n"))
	require.NoError(t, err)

	assert.Equal(t, "one", tbl.GetOr("alpha", ""))
	assert.Equal(t, "two", tbl.GetOr("beta", ""))
	assert.Equal(t, "three", tbl.GetOr("gamma", ""))
}

func TestParse_LineContinuation(t *testing.T) {
	tbl, err := Parse([]byte("fruits=apple, \\\n    banana, cherry\n"))
	require.NoError(t, err)

	assert.Equal(t, "apple, banana, cherry", tbl.GetOr("fruits", ""))
}

func TestParse_NoExpansion(t *testing.T) {
	tbl, err := Parse([]byte("base=/opt\npath=${base}/bin\n"))
	require.NoError(t, err)

	// 禁用展开：${base} 原样保留
	assert.Equal(t, "${base}/bin", tbl.GetOr("path", ""))
}

func TestParse_DuplicateKeyLastWins(t *testing.T) {
	tbl, err := Parse([]byte("key=first\nkey=second\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, "second", tbl.GetOr("key", ""))
}

func TestParse_Invalid(t *testing.T) {
	// 非法 Unicode 转义触发解析错误
	_, err := Parse([]byte(`bad=\u00zz`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailed)
}

func TestParse_Empty(t *testing.T) {
	tbl, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
}

// =============================================================================
// Get / Set / Delete 测试
// =============================================================================

func TestSet_NewAndOverwrite(t *testing.T) {
	tbl := New()

	prev, existed := tbl.Set("name", "alice")
	assert.False(t, existed)
	assert.Empty(t, prev)

	prev, existed = tbl.Set("name", "bob")
	assert.True(t, existed)
	assert.Equal(t, "alice", prev)

	assert.Equal(t, "bob", tbl.GetOr("name", ""))
	assert.Equal(t, 1, tbl.Len())
}

func TestSet_EmptyKeyIgnored(t *testing.T) {
	tbl := New()

	prev, existed := tbl.Set("", "value")
	assert.False(t, existed)
	assert.Empty(t, prev)
	assert.Equal(t, 0, tbl.Len())
}

func TestSet_EmptyValueAllowed(t *testing.T) {
	tbl := New()
	tbl.Set("flag", "")

	v, ok := tbl.Get("flag")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestGet_Missing(t *testing.T) {
	tbl := New()

	v, ok := tbl.Get("nope")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, "fallback", tbl.GetOr("nope", "fallback"))
}

func TestDelete_ExistingAndMissing(t *testing.T) {
	tbl := FromMap(map[string]string{"a": "1", "b": "2"})

	prev, existed := tbl.Delete("a")
	assert.True(t, existed)
	assert.Equal(t, "1", prev)
	assert.Equal(t, 1, tbl.Len())

	prev, existed = tbl.Delete("a")
	assert.False(t, existed)
	assert.Empty(t, prev)
	assert.Equal(t, 1, tbl.Len())
}

func TestClear(t *testing.T) {
	tbl := FromMap(map[string]string{"a": "1", "b": "2"})
	tbl.Clear()

	assert.Equal(t, 0, tbl.Len())
	_, ok := tbl.Get("a")
	assert.False(t, ok)

	// 清空后可继续写入
	tbl.Set("c", "3")
	assert.Equal(t, 1, tbl.Len())
}

// =============================================================================
// 键序测试
// =============================================================================

func TestKeys_InsertionOrder(t *testing.T) {
	tbl := New()
	tbl.Set("third", "3")
	tbl.Set("first", "1")
	tbl.Set("second", "2")

	assert.Equal(t, []string{"third", "first", "second"}, tbl.Keys())

	// 覆盖已有键不改变其位置
	tbl.Set("third", "33")
	assert.Equal(t, []string{"third", "first", "second"}, tbl.Keys())
}

func TestKeys_CopyIsolated(t *testing.T) {
	tbl := FromMap(map[string]string{"a": "1", "b": "2"})

	keys := tbl.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, tbl.Keys())
}

// =============================================================================
// PutAll / Clone / Map 测试
// =============================================================================

func TestPutAll_OverwriteAndAppend(t *testing.T) {
	dst := FromMap(map[string]string{"a": "1", "b": "2"})
	src := New()
	src.Set("b", "20")
	src.Set("c", "30")

	dst.PutAll(src)

	assert.Equal(t, "1", dst.GetOr("a", ""))
	assert.Equal(t, "20", dst.GetOr("b", ""))
	assert.Equal(t, "30", dst.GetOr("c", ""))
	// 已有键保位，新键追加
	assert.Equal(t, []string{"a", "b", "c"}, dst.Keys())
}

func TestPutAll_Nil(t *testing.T) {
	tbl := FromMap(map[string]string{"a": "1"})
	tbl.PutAll(nil)
	assert.Equal(t, 1, tbl.Len())
}

func TestClone_Independent(t *testing.T) {
	orig := FromMap(map[string]string{"a": "1", "b": "2"})
	clone := orig.Clone()

	require.True(t, orig.Equal(clone))

	clone.Set("a", "changed")
	clone.Set("c", "new")

	assert.Equal(t, "1", orig.GetOr("a", ""))
	_, ok := orig.Get("c")
	assert.False(t, ok)
}

func TestMap_Snapshot(t *testing.T) {
	tbl := FromMap(map[string]string{"a": "1", "b": "2"})

	m := tbl.Map()
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	// 修改快照不影响原表
	m["a"] = "mutated"
	assert.Equal(t, "1", tbl.GetOr("a", ""))
}

// =============================================================================
// Equal / Checksum 测试
// =============================================================================

func TestEqual_OrderInsensitive(t *testing.T) {
	left := New()
	left.Set("a", "1")
	left.Set("b", "2")

	right := New()
	right.Set("b", "2")
	right.Set("a", "1")

	assert.True(t, left.Equal(right))
	assert.True(t, right.Equal(left))
}

func TestEqual_Differences(t *testing.T) {
	base := FromMap(map[string]string{"a": "1", "b": "2"})

	diffValue := FromMap(map[string]string{"a": "1", "b": "changed"})
	assert.False(t, base.Equal(diffValue))

	diffKey := FromMap(map[string]string{"a": "1", "c": "2"})
	assert.False(t, base.Equal(diffKey))

	subset := FromMap(map[string]string{"a": "1"})
	assert.False(t, base.Equal(subset))

	assert.False(t, base.Equal(nil))
	assert.True(t, New().Equal(nil))
}

func TestChecksum_OrderInsensitive(t *testing.T) {
	left := New()
	left.Set("a", "1")
	left.Set("b", "2")

	right := New()
	right.Set("b", "2")
	right.Set("a", "1")

	assert.Equal(t, left.Checksum(), right.Checksum())
}

func TestChecksum_ContentSensitive(t *testing.T) {
	base := FromMap(map[string]string{"a": "1", "b": "2"})
	changed := FromMap(map[string]string{"a": "1", "b": "3"})

	assert.NotEqual(t, base.Checksum(), changed.Checksum())
}

func TestChecksum_BoundaryAmbiguity(t *testing.T) {
	// 分隔符必须避免 {"ab":"c"} 与 {"a":"bc"} 撞指纹
	left := FromMap(map[string]string{"ab": "c"})
	right := FromMap(map[string]string{"a": "bc"})

	assert.NotEqual(t, left.Checksum(), right.Checksum())
}

// =============================================================================
// Load / Store 测试
// =============================================================================

func TestLoad_MergesIntoExisting(t *testing.T) {
	tbl := FromMap(map[string]string{"keep": "old", "both": "old"})

	err := tbl.Load(strings.NewReader("both=new\nadded=new\n"))
	require.NoError(t, err)

	assert.Equal(t, "old", tbl.GetOr("keep", ""))
	assert.Equal(t, "new", tbl.GetOr("both", ""))
	assert.Equal(t, "new", tbl.GetOr("added", ""))
}

func TestLoad_ParseError(t *testing.T) {
	tbl := FromMap(map[string]string{"keep": "old"})

	err := tbl.Load(strings.NewReader(`bad=\u00zz`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailed)

	// 解析失败时已有内容不受影响
	assert.Equal(t, "old", tbl.GetOr("keep", ""))
	assert.Equal(t, 1, tbl.Len())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, assert.AnError
}

func TestLoad_ReadError(t *testing.T) {
	tbl := New()

	err := tbl.Load(failingReader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestStore_RoundTrip(t *testing.T) {
	orig := New()
	orig.Set("server.host", "localhost")
	orig.Set("server.port", "8080")
	orig.Set("greeting", "hello world")

	var buf bytes.Buffer
	require.NoError(t, orig.Store(&buf, ""))

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, orig.Equal(parsed))
	// 键序也要在往返中保持
	assert.Equal(t, orig.Keys(), parsed.Keys())
}

func TestStore_Comment(t *testing.T) {
	tbl := FromMap(map[string]string{"a": "1"})

	var buf bytes.Buffer
	require.NoError(t, tbl.Store(&buf, "generated snapshot"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# generated snapshot\n"))

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, tbl.Equal(parsed))
}

func TestString_ContainsEntries(t *testing.T) {
	tbl := New()
	tbl.Set("a", "1")

	assert.Contains(t, tbl.String(), "a = 1")
}
