package xsource

import (
	"context"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// Provider 按 scheme 加载一类属性源。
//
// Load 的错误分两类：源缺席返回 ErrSourceNotFound（可被策略跳过），
// 其余失败包装为 ErrSourceLoad。实现必须在这两者之间做出明确分类，
// Resolver 依赖这一点决定跳过还是失败。
type Provider interface {
	// Schemes 返回该 Provider 负责的 scheme 列表。
	Schemes() []string
	// Load 加载 spec 指向的源。
	Load(ctx context.Context, spec *Spec) (*xtable.Table, error)
}

// Stamper 是 Provider 的可选能力：廉价地给出源内容的印章。
//
// 印章相同视为内容未变；印章不同才值得触发一次重载。
// 缺席的源返回 ErrSourceNotFound，由调用方记录为空印章。
type Stamper interface {
	Stamp(ctx context.Context, spec *Spec) (string, error)
}
