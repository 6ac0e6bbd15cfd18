// Package xstore 实现线程安全、可变更、可热更新的配置存储。
//
// # 设计理念
//
// Store 把三类来源合并为一张内存键值表：Schema 默认值、按源列表
// 解析出的外部源、以及导入表。读多写少是常态，内部用单把
// sync.RWMutex 保护整表，读操作共享读锁，写与重载持有写锁。
// 重载在锁外完成源拉取前的准备，在锁内从零重建合并表，只有整轮
// 成功才替换旧表；任何一步失败都保持旧内容原样可读。
//
// # 优先级
//
// 合并次序固定为:默认值 < 外部源 < 导入表。外部源内部的次序由
// xsource.LoadPolicy 决定；多个导入表之间先供给的优先级更高。
// 运行期通过 SetProperty 等写入的值在下一次成功重载时被整表替换。
//
// # 重载与监听
//
// Reload 成功后为本轮生成唯一的 ReloadEvent，在释放写锁之后按注册
// 顺序逐个通知监听器。监听器内可以安全地读取最新配置；单个监听器
// panic 不影响其余监听器，也不影响重载结果。IsLoading 仅在锁内
// 重建阶段为真，通知阶段为假。
//
// 热更新的触发（定时、cron、文件监视）由 xreload 包负责，经
// BindSyncCheck 绑定同步检查后，View 的每次取值都会先触发一次
// 新鲜度检查。
//
// # 类型化读取
//
// View 提供 string/int/bool/duration 等带解析的取值方法，以及把
// 某个键前缀绑定到结构体的 Unmarshal。所有取值失败都以 ok/默认值
// 表达，不产生 error。
package xstore
