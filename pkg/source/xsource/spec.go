package xsource

import (
	"fmt"
	"net/url"
	"strings"
)

// 内建 Provider 的 scheme 常量。
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeEnv   = "env"
	SchemeRedis = "redis"
	SchemeEtcd  = "etcd"
	SchemeK8s   = "k8s"
)

// Spec 是解析后的源规格。
type Spec struct {
	// Raw 原始 spec 字符串，作为日志与印章的标识。
	Raw string
	// Scheme 小写的 scheme 名，决定由哪个 Provider 加载。
	Scheme string
	// Target scheme 相关的定位串：文件路径、完整 URL、env 前缀、
	// Redis hash 键、etcd 前缀、"namespace/name" 等。
	Target string
	// Format 字节型源的文本格式；扁平型源（env/redis/etcd）忽略。
	Format Format
	// Params URL 查询参数，留给 Provider 做 scheme 相关的扩展。
	Params url.Values
}

// ParseSpec 解析一条 spec 字符串。
//
// 无 scheme 的串整体视为本地文件路径；其余按 URL 拆解。
// 格式推断优先级：fragment 强制指定 > 路径扩展名 > properties 默认。
func ParseSpec(raw string) (*Spec, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: blank spec", ErrBadSpec)
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" {
		return &Spec{
			Raw:    raw,
			Scheme: SchemeFile,
			Target: trimmed,
			Format: DetectFormat(trimmed),
		}, nil
	}

	s := &Spec{
		Raw:    raw,
		Scheme: strings.ToLower(u.Scheme),
		Params: u.Query(),
	}

	switch s.Scheme {
	case SchemeHTTP, SchemeHTTPS:
		// fragment 只是本地格式提示，不下发给服务端
		bare := *u
		bare.Fragment = ""
		bare.RawFragment = ""
		s.Target = bare.String()
	default:
		if u.Opaque != "" {
			s.Target = u.Opaque
		} else {
			s.Target = u.Host + u.Path
		}
	}

	switch {
	case u.Fragment != "":
		f, ferr := ParseFormat(u.Fragment)
		if ferr != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrBadSpec, raw, ferr)
		}
		s.Format = f
	case s.Scheme == SchemeHTTP || s.Scheme == SchemeHTTPS:
		s.Format = DetectFormat(u.Path)
	default:
		s.Format = DetectFormat(s.Target)
	}
	return s, nil
}

// String 返回原始 spec 字符串。
func (s *Spec) String() string {
	return s.Raw
}
