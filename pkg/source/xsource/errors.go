package xsource

import "errors"

// 源加载相关错误。
var (
	// ErrBadSpec 表示 spec 字符串不合法或缺少必要部分。
	ErrBadSpec = errors.New("xsource: invalid source spec")

	// ErrBadPolicy 表示无法识别的加载策略名。
	ErrBadPolicy = errors.New("xsource: unknown load policy")

	// ErrUnknownFormat 表示无法识别的源文本格式。
	ErrUnknownFormat = errors.New("xsource: unknown source format")

	// ErrUnsupportedScheme 表示没有注册对应 scheme 的 Provider。
	ErrUnsupportedScheme = errors.New("xsource: no provider registered for scheme")

	// ErrSourceNotFound 表示源不存在（缺席）。
	// 缺席是可跳过的：两种加载策略都会继续尝试其余源。
	ErrSourceNotFound = errors.New("xsource: source not found")

	// ErrSourceLoad 表示源存在但加载失败（I/O 或解析错误）。
	// 与缺席不同，加载失败会让整次解析立即失败。
	ErrSourceLoad = errors.New("xsource: failed to load source")

	// ErrNilClient 表示 Provider 构造时注入的后端客户端为 nil。
	ErrNilClient = errors.New("xsource: nil backend client")
)
