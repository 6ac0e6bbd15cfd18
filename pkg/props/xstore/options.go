package xstore

import (
	"github.com/omeyang/xprops/pkg/props/xtable"
	"github.com/omeyang/xprops/pkg/source/xsource"
)

// Option 配置 Store。
type Option func(*Store)

// WithResolver 指定源解析器。不设置时使用 xsource.NewResolver()
// 的默认注册表（file/env/http）。
func WithResolver(r *xsource.Resolver) Option {
	return func(s *Store) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithImports 追加只读的导入层。导入层优先级最高，且先传入的
// 一层压过后传入的。map 在此处拷贝快照，调用方之后的修改不感知。
func WithImports(imports ...map[string]string) Option {
	return func(s *Store) {
		for _, m := range imports {
			if len(m) == 0 {
				continue
			}
			s.imports = append(s.imports, xtable.FromMap(m))
		}
	}
}

// WithLogger 指定日志实现。
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver 指定观测实现。
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithOwner 指定 ReloadEvent.Config 携带的逻辑配置对象。
func WithOwner(owner any) Option {
	return func(s *Store) {
		s.SetOwner(owner)
	}
}
