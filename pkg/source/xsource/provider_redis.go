package xsource

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// RedisProvider 把 Redis hash 作为属性源。
//
// spec 形如 redis:app:config，spec 的 Target 即 hash 键，
// 字段与值经 HGETALL 直接映射为属性。客户端由调用方注入，
// 连接与寻址归客户端管。
type RedisProvider struct {
	client redis.UniversalClient
}

// NewRedisProvider 创建 Redis Provider。
func NewRedisProvider(client redis.UniversalClient) *RedisProvider {
	return &RedisProvider{client: client}
}

// Schemes 实现 Provider。
func (p *RedisProvider) Schemes() []string {
	return []string{SchemeRedis}
}

// Load 读取整个 hash。键不存在（HGETALL 返回空）视为源缺席。
func (p *RedisProvider) Load(ctx context.Context, spec *Spec) (*xtable.Table, error) {
	m, err := p.hgetall(ctx, spec)
	if err != nil {
		return nil, err
	}
	return xtable.FromMap(m), nil
}

// Stamp 返回 hash 内容的哈希印章。
func (p *RedisProvider) Stamp(ctx context.Context, spec *Spec) (string, error) {
	m, err := p.hgetall(ctx, spec)
	if err != nil {
		return "", err
	}
	return "sum:" + strconv.FormatUint(xtable.FromMap(m).Checksum(), 16), nil
}

func (p *RedisProvider) hgetall(ctx context.Context, spec *Spec) (map[string]string, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: redis provider", ErrNilClient)
	}
	if spec.Target == "" {
		return nil, fmt.Errorf("%w: %q: missing redis hash key", ErrBadSpec, spec.Raw)
	}
	m, err := p.client.HGetAll(ctx, spec.Target).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis hash %q: %w", ErrSourceLoad, spec.Target, err)
	}
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: redis hash %q", ErrSourceNotFound, spec.Target)
	}
	return m, nil
}
