// Package xtable 提供有序的字符串属性表（PropertyTable）和合并引擎。
//
// # 设计理念
//
// xtable 是 xprops 的最底层数据结构，定位为纯数据层：
//   - Table：键有序（插入序）的 string→string 映射，键唯一
//   - Merge：无状态的覆盖合并引擎，后者覆盖前者（last write wins）
//   - 编解码：标准 "key=value" 行文本格式（Java properties 兼容），
//     基于 magiconair/properties 实现，禁用变量展开
//
// Table 本身不做并发控制，由上层（xstore.Store）的读写锁统一保护。
// 不要在多个 goroutine 间不加锁地共享同一个 Table。
//
// # 合并语义
//
// Merge(base, overlays...) 返回全新的 Table，不修改任何输入：
//
//	result := xtable.Merge(defaults, loaded, imports...)
//
// 参数顺序即优先级顺序：越靠后的表在键冲突时胜出。
// 不做深度合并，不做类型转换——这一层的值永远是字符串。
//
// # 编解码
//
// Load/Store 与 java.util.Properties 的 load/store 行为对齐：
//   - Load 为增量合并（不清空已有条目）
//   - Store 支持可选的前导注释行
//   - 值中的 ${...} 不做展开（变量展开不属于本层职责）
package xtable
