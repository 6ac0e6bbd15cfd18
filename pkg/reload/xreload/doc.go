// Package xreload 为配置 Store 提供热重载触发器。
//
// # 设计理念
//
// Store 只负责"怎么装、怎么读"，何时重载由本包的 Trigger 决定。
// 三种触发方式对应 xstore.ReloadMode：
//
//   - sync：不起后台任务，把检查挂到 Store 的读取路径上，
//     读取前顺带探测源是否过期，过期则当场重载。
//   - async：后台调度器按固定周期（或 cron 表达式）检查，
//     第一次检查发生在整整一个周期之后，绝不在启动时立刻执行。
//   - watch：监视 file 源所在目录，文件变化经防抖后触发检查。
//
// # 过期判定
//
// 检查不直接重载，先通过 xsource.Resolver.Stamps 收集各源的
// 印章（文件 mtime+size、HTTP ETag 等），与上次记录的印章比对，
// 一致则跳过。印章记录只在重载成功后更新，所以失败的重载会在
// 下个周期重试。进程启动后的第一次检查没有历史印章，总是重载。
//
// # 失败处理
//
// 检查失败只记日志，调度照常继续。可选 WithRetry 做每轮重试，
// WithBreaker 在源持续故障时熔断快速失败，避免每个周期都去撞
// 已经挂掉的源。
//
// # 典型用法
//
//	def := &xstore.Definition{
//		Name:      "app",
//		Sources:   []string{"config/app.properties"},
//		HotReload: &xstore.HotReload{Mode: xstore.ReloadAsync, Period: 30 * time.Second},
//	}
//	store, _ := xstore.New(def)
//	_ = store.Load(ctx)
//
//	trigger, _ := xreload.New(def, nil, store)
//	_ = trigger.Start(ctx)
//	defer trigger.Stop()
package xreload
