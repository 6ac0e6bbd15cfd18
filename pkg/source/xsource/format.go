package xsource

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// Format 表示字节型源的文本格式。
type Format string

const (
	// FormatProperties Java properties 文本，默认格式。
	FormatProperties Format = "properties"
	// FormatYAML YAML 文档，展平为点号键。
	FormatYAML Format = "yaml"
	// FormatJSON JSON 文档，展平为点号键。
	FormatJSON Format = "json"
)

// ParseFormat 解析格式名。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "properties", "props":
		return FormatProperties, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat 按路径扩展名推断格式，无法识别时返回 FormatProperties。
func DetectFormat(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatProperties
	}
}

// Decode 将源文本按格式解码为属性表。
//
// YAML/JSON 文档经 koanf 展平：嵌套键用点号连接，标量转字符串，
// 列表各元素转字符串后以逗号连接。展平结果按键排序写入，保证
// 同一文档总是产出相同的表。
func Decode(data []byte, format Format) (*xtable.Table, error) {
	switch format {
	case FormatProperties, "":
		return xtable.Parse(data)
	case FormatYAML:
		return decodeFlat(data, yaml.Parser())
	case FormatJSON:
		return decodeFlat(data, json.Parser())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func decodeFlat(data []byte, parser koanf.Parser) (*xtable.Table, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, err
	}
	flat := k.All()
	m := make(map[string]string, len(flat))
	for key, v := range flat {
		m[key] = stringify(v)
	}
	return xtable.FromMap(m), nil
}

// stringify 把展平后的标量值转为属性字符串。
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", x)
	}
}
