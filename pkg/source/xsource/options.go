package xsource

// Option 配置 Resolver。
type Option func(*Resolver)

// WithProvider 注册一个 Provider；同 scheme 的已有注册会被覆盖。
func WithProvider(p Provider) Option {
	return func(r *Resolver) {
		r.register(p)
	}
}

// WithProviders 批量注册 Provider。
func WithProviders(ps ...Provider) Option {
	return func(r *Resolver) {
		for _, p := range ps {
			r.register(p)
		}
	}
}
