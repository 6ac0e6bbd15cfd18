package xtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Merge 优先级测试
// =============================================================================

func TestMerge_LaterLayerWins(t *testing.T) {
	defaults := FromMap(map[string]string{"a": "1", "b": "2"})
	source := FromMap(map[string]string{"b": "20", "c": "30"})
	override := FromMap(map[string]string{"a": "100"})

	merged := Merge(defaults, source, override)

	assert.Equal(t, "100", merged.GetOr("a", ""))
	assert.Equal(t, "20", merged.GetOr("b", ""))
	assert.Equal(t, "30", merged.GetOr("c", ""))
	assert.Equal(t, 3, merged.Len())
}

func TestMerge_InputsUntouched(t *testing.T) {
	base := FromMap(map[string]string{"a": "1"})
	overlay := FromMap(map[string]string{"a": "2", "b": "2"})

	merged := Merge(base, overlay)

	assert.Equal(t, "2", merged.GetOr("a", ""))
	// 入参不被修改
	assert.Equal(t, "1", base.GetOr("a", ""))
	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, overlay.Len())

	// 合并结果与入参相互独立
	merged.Set("a", "changed")
	assert.Equal(t, "2", overlay.GetOr("a", ""))
}

func TestMerge_NilLayersSkipped(t *testing.T) {
	base := FromMap(map[string]string{"a": "1"})

	merged := Merge(base, nil, FromMap(map[string]string{"b": "2"}), nil)

	assert.Equal(t, 2, merged.Len())
	assert.Equal(t, "1", merged.GetOr("a", ""))
	assert.Equal(t, "2", merged.GetOr("b", ""))
}

func TestMerge_NilBase(t *testing.T) {
	merged := Merge(nil, FromMap(map[string]string{"a": "1"}))

	require.NotNil(t, merged)
	assert.Equal(t, "1", merged.GetOr("a", ""))
}

func TestMerge_NoOverlays(t *testing.T) {
	base := FromMap(map[string]string{"a": "1"})

	merged := Merge(base)

	assert.True(t, base.Equal(merged))
	merged.Set("b", "2")
	assert.Equal(t, 1, base.Len())
}

func TestMerge_KeyOrderStable(t *testing.T) {
	base := New()
	base.Set("one", "1")
	base.Set("two", "2")

	overlay := New()
	overlay.Set("two", "22")
	overlay.Set("three", "3")

	merged := Merge(base, overlay)

	// 先到先占位：覆盖不移位，新键追加
	assert.Equal(t, []string{"one", "two", "three"}, merged.Keys())
	assert.Equal(t, "22", merged.GetOr("two", ""))
}

func TestMerge_EmptyValueOverridesNonEmpty(t *testing.T) {
	base := FromMap(map[string]string{"flag": "enabled"})
	overlay := New()
	overlay.Set("flag", "")

	merged := Merge(base, overlay)

	v, ok := merged.Get("flag")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestMerge_ManyLayersPrecedenceChain(t *testing.T) {
	layers := make([]*Table, 0, 5)
	for i := 0; i < 5; i++ {
		layers = append(layers, FromMap(map[string]string{
			"shared": string(rune('a' + i)),
		}))
	}

	merged := Merge(layers[0], layers[1:]...)

	assert.Equal(t, "e", merged.GetOr("shared", ""))
}
