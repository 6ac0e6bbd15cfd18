package xsource

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// Resolver 持有 scheme→Provider 注册表，把一组 spec 解析为单个属性表。
//
// Resolver 无状态、并发安全（注册表在构造后只读），可被多个配置实例
// 共享。默认注册零依赖的内建 Provider（file/env/http），需要后端客户端
// 的 Provider（redis/etcd/k8s）通过 WithProvider 注入。
type Resolver struct {
	providers map[string]Provider
}

// NewResolver 创建 Resolver 并应用选项。
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{providers: make(map[string]Provider)}
	r.register(NewFileProvider())
	r.register(NewEnvProvider())
	r.register(NewHTTPProvider())
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Resolver) register(p Provider) {
	if p == nil {
		return
	}
	for _, scheme := range p.Schemes() {
		r.providers[scheme] = p
	}
}

// provider 查找 scheme 对应的 Provider。
func (r *Resolver) provider(scheme string) (Provider, error) {
	p, ok := r.providers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return p, nil
}

// Resolve 按策略把 specs 解析为单个属性表。
//
// 缺席的源被跳过；全部缺席返回空表而非错误。任何真实的加载失败
// （ErrSourceLoad）让整次解析失败，返回的表为 nil。
func (r *Resolver) Resolve(ctx context.Context, specs []string, policy LoadPolicy) (*xtable.Table, error) {
	parsed, err := r.parseAll(specs)
	if err != nil {
		return nil, err
	}
	if policy == PolicyMerge {
		return r.resolveMerge(ctx, parsed)
	}
	return r.resolveFirst(ctx, parsed)
}

// resolveFirst 按列表顺序尝试，第一个可加载的源胜出。
func (r *Resolver) resolveFirst(ctx context.Context, parsed []*Spec) (*xtable.Table, error) {
	for _, sp := range parsed {
		p, err := r.provider(sp.Scheme)
		if err != nil {
			return nil, err
		}
		tbl, err := p.Load(ctx, sp)
		if errors.Is(err, ErrSourceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return tbl, nil
	}
	return xtable.New(), nil
}

// resolveMerge 并发拉取全部源，再按列表顺序合并（靠后者覆盖）。
func (r *Resolver) resolveMerge(ctx context.Context, parsed []*Spec) (*xtable.Table, error) {
	tables := make([]*xtable.Table, len(parsed))
	g, gctx := errgroup.WithContext(ctx)
	for i, sp := range parsed {
		p, err := r.provider(sp.Scheme)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			tbl, err := p.Load(gctx, sp)
			if errors.Is(err, ErrSourceNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			tables[i] = tbl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := xtable.New()
	for _, tbl := range tables {
		merged.PutAll(tbl)
	}
	return merged, nil
}

// Stamps 收集每个可盖章源的当前印章，键为原始 spec 字符串。
//
// 缺席的源记为空印章（这样"源出现/消失"也会被看作变化）；
// 未实现 Stamper 的源不参与比较。任何真实失败让整次收集失败。
func (r *Resolver) Stamps(ctx context.Context, specs []string) (Stamps, error) {
	parsed, err := r.parseAll(specs)
	if err != nil {
		return nil, err
	}
	out := make(Stamps, len(parsed))
	for _, sp := range parsed {
		p, err := r.provider(sp.Scheme)
		if err != nil {
			return nil, err
		}
		st, ok := p.(Stamper)
		if !ok {
			continue
		}
		stamp, err := st.Stamp(ctx, sp)
		if errors.Is(err, ErrSourceNotFound) {
			out[sp.Raw] = ""
			continue
		}
		if err != nil {
			return nil, err
		}
		out[sp.Raw] = stamp
	}
	return out, nil
}

func (r *Resolver) parseAll(specs []string) ([]*Spec, error) {
	parsed := make([]*Spec, 0, len(specs))
	for _, raw := range specs {
		sp, err := ParseSpec(raw)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, sp)
	}
	return parsed, nil
}

// Stamps 是一次印章收集的结果，键为原始 spec 字符串。
type Stamps map[string]string

// Equal 判断两次收集的印章是否完全一致。
func (s Stamps) Equal(other Stamps) bool {
	return maps.Equal(s, other)
}
