package xsource

import (
	"context"
	"fmt"
	"strings"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// EtcdKV 定义 etcd 读取接口，用于依赖注入和测试。
// 接口方法与 clientv3.KV 保持一致，*clientv3.Client 直接满足。
type EtcdKV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// 确保 *clientv3.Client 实现 EtcdKV 接口（编译时检查）
var _ EtcdKV = (*clientv3.Client)(nil)

// EtcdProvider 把 etcd 前缀下的键值作为属性源。
//
// spec 形如 etcd:///configs/app/，对 Target 做前缀扫描；
// 属性键由 etcd 键去前缀、去头部斜杠、斜杠换点号得到：
// /configs/app/server/port（前缀 /configs/app/）→ server.port。
type EtcdProvider struct {
	kv EtcdKV
}

// NewEtcdProvider 创建 etcd Provider。
func NewEtcdProvider(kv EtcdKV) *EtcdProvider {
	return &EtcdProvider{kv: kv}
}

// Schemes 实现 Provider。
func (p *EtcdProvider) Schemes() []string {
	return []string{SchemeEtcd}
}

// Load 扫描前缀下的全部键值。前缀下没有键视为源缺席。
// etcd range 查询按键升序返回，属性表继承该顺序。
func (p *EtcdProvider) Load(ctx context.Context, spec *Spec) (*xtable.Table, error) {
	resp, err := p.get(ctx, spec)
	if err != nil {
		return nil, err
	}
	tbl := xtable.New()
	for _, kv := range resp.Kvs {
		key := p.propertyKey(spec.Target, string(kv.Key))
		if key == "" {
			continue
		}
		tbl.Set(key, string(kv.Value))
	}
	return tbl, nil
}

// Stamp 返回 "rev:<最大修订号>:n:<键数>" 印章。
// 修订号覆盖新增与改写，键数覆盖删除。
func (p *EtcdProvider) Stamp(ctx context.Context, spec *Spec) (string, error) {
	resp, err := p.get(ctx, spec)
	if err != nil {
		return "", err
	}
	var maxRev int64
	for _, kv := range resp.Kvs {
		if kv.ModRevision > maxRev {
			maxRev = kv.ModRevision
		}
	}
	return fmt.Sprintf("rev:%d:n:%d", maxRev, len(resp.Kvs)), nil
}

func (p *EtcdProvider) get(ctx context.Context, spec *Spec) (*clientv3.GetResponse, error) {
	if p.kv == nil {
		return nil, fmt.Errorf("%w: etcd provider", ErrNilClient)
	}
	if spec.Target == "" {
		return nil, fmt.Errorf("%w: %q: missing etcd key prefix", ErrBadSpec, spec.Raw)
	}
	resp, err := p.kv.Get(ctx, spec.Target, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: etcd prefix %q: %w", ErrSourceLoad, spec.Target, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: etcd prefix %q", ErrSourceNotFound, spec.Target)
	}
	return resp, nil
}

func (p *EtcdProvider) propertyKey(prefix, raw string) string {
	key := strings.TrimPrefix(raw, prefix)
	key = strings.TrimPrefix(key, "/")
	return strings.ReplaceAll(key, "/", ".")
}
