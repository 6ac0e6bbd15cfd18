package xsource

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// EnvProvider 把进程环境变量映射为属性源。
//
// spec 形如 env:APP_，取所有带该前缀的变量；前缀为空取整个环境。
// 属性键由变量名去前缀、转小写、下划线换点号得到：
// APP_SERVER_PORT（前缀 APP_）→ server.port。
type EnvProvider struct {
	// environ 可在测试中替换，默认 os.Environ。
	environ func() []string
}

// NewEnvProvider 创建环境变量 Provider。
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{environ: os.Environ}
}

// Schemes 实现 Provider。
func (p *EnvProvider) Schemes() []string {
	return []string{SchemeEnv}
}

// Load 收集带前缀的环境变量。一个匹配都没有视为源缺席。
func (p *EnvProvider) Load(_ context.Context, spec *Spec) (*xtable.Table, error) {
	tbl := p.collect(spec.Target)
	if tbl.Len() == 0 {
		return nil, fmt.Errorf("%w: no env vars with prefix %q", ErrSourceNotFound, spec.Target)
	}
	return tbl, nil
}

// Stamp 返回收集结果的内容哈希。
func (p *EnvProvider) Stamp(_ context.Context, spec *Spec) (string, error) {
	tbl := p.collect(spec.Target)
	if tbl.Len() == 0 {
		return "", fmt.Errorf("%w: no env vars with prefix %q", ErrSourceNotFound, spec.Target)
	}
	return "sum:" + strconv.FormatUint(tbl.Checksum(), 16), nil
}

func (p *EnvProvider) collect(prefix string) *xtable.Table {
	m := make(map[string]string)
	for _, entry := range p.environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		key = strings.ReplaceAll(key, "_", ".")
		if key == "" {
			continue
		}
		m[key] = value
	}
	return xtable.FromMap(m)
}
