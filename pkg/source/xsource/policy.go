package xsource

import (
	"fmt"
	"strings"
)

// LoadPolicy 决定多个源之间的取舍方式。
type LoadPolicy int

const (
	// PolicyFirst 按列表顺序尝试，第一个可加载的源胜出。
	PolicyFirst LoadPolicy = iota

	// PolicyMerge 合并全部可用源，列表中靠后的源覆盖靠前的。
	PolicyMerge
)

// String 返回策略名。
func (p LoadPolicy) String() string {
	switch p {
	case PolicyMerge:
		return "merge"
	default:
		return "first"
	}
}

// ParsePolicy 解析策略名。空串返回默认的 PolicyFirst。
func ParsePolicy(s string) (LoadPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return PolicyFirst, nil
	case "merge", "all":
		return PolicyMerge, nil
	default:
		return PolicyFirst, fmt.Errorf("%w: %q", ErrBadPolicy, s)
	}
}
