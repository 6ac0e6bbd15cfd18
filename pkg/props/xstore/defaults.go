package xstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// DefaultsProvider 产出配置的默认值表（最低优先级层）。
// 实现必须是纯函数：每次调用产出等价的表，不做 I/O。
type DefaultsProvider interface {
	Defaults() (*xtable.Table, error)
}

// MapDefaults 直接以字面 map 作为默认值。
type MapDefaults map[string]string

// Defaults 实现 DefaultsProvider。
func (m MapDefaults) Defaults() (*xtable.Table, error) {
	return xtable.FromMap(m), nil
}

// StructDefaults 从结构体原型的标签推导默认值表。
//
// 带 default 标签的字段贡献一条默认值；键取 prop 标签，
// 缺省为小写字段名；prop:"-" 跳过。嵌套结构体按点号拼接前缀：
//
//	type AppConfig struct {
//	    Host   string `prop:"server.host" default:"localhost"`
//	    Port   int    `prop:"server.port" default:"8080"`
//	    Redis  struct {
//	        Addr string `default:"127.0.0.1:6379"`
//	    } `prop:"redis"`
//	}
//
// 产出 server.host=localhost、server.port=8080、redis.addr=127.0.0.1:6379。
// 字段按声明顺序写入。原型可以是结构体或其（多级）指针。
func StructDefaults(prototype any) DefaultsProvider {
	return &structDefaults{prototype: prototype}
}

type structDefaults struct {
	prototype any
}

// Defaults 实现 DefaultsProvider。
func (s *structDefaults) Defaults() (*xtable.Table, error) {
	v := reflect.ValueOf(s.prototype)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil pointer", ErrBadDefaults)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrBadDefaults, v.Kind())
	}
	tbl := xtable.New()
	collectDefaults(v.Type(), "", tbl)
	return tbl, nil
}

func collectDefaults(t reflect.Type, prefix string, tbl *xtable.Table) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := sf.Tag.Get("prop")
		if key == "-" {
			continue
		}
		if key == "" {
			key = strings.ToLower(sf.Name)
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		if def, ok := sf.Tag.Lookup("default"); ok {
			tbl.Set(key, def)
			continue
		}
		ft := sf.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			collectDefaults(ft, key, tbl)
		}
	}
}
