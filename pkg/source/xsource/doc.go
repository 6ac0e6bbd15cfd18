// Package xsource 提供属性源的定位、加载与合并策略。
//
// # 设计理念
//
// 一个属性源由一条 spec 字符串定位（文件路径、URL、env 前缀等），
// 由对应 scheme 的 Provider 加载为 xtable.Table。Resolver 持有
// scheme→Provider 注册表，按 LoadPolicy 把一组 spec 解析为单个表。
// Resolver 本身无状态、可被多个配置实例共享，所有 I/O 都经由
// context.Context 控制。
//
// # 源规格
//
// spec 字符串按 URL 解析，无 scheme 时视为本地文件路径：
//
//	config/app.properties            本地文件（相对路径）
//	file:///etc/app/app.properties   本地文件（绝对路径）
//	https://cfg.example.com/app      HTTP(S) 拉取
//	env:APP_                         进程环境变量（前缀筛选）
//	redis:app:config                 Redis hash（HGETALL）
//	etcd:///configs/app/             etcd 前缀扫描
//	k8s://default/app-config         Kubernetes ConfigMap
//
// 字节型源（file/http）的文本格式按路径扩展名推断
// （.properties/.yaml/.yml/.json），也可用 URL fragment 强制指定，
// 如 https://cfg.example.com/app#yaml。YAML/JSON 文档会被展平为
// 点号分隔的键，值统一转为字符串，列表以逗号连接。
//
// # 加载策略
//
// PolicyFirst（默认）：按列表顺序尝试，第一个可加载的源胜出。
// PolicyMerge：并发拉取全部源，按列表顺序合并，靠后的源覆盖靠前的。
// 两种策略都跳过缺席的源（ErrSourceNotFound）；全部缺席得到空表，
// 不视为错误。真正的 I/O 或解析失败（ErrSourceLoad）立即让本次
// 解析失败。
//
// # 变更探测
//
// 实现了可选接口 Stamper 的 Provider 能廉价地给出内容印章
// （文件 mtime+size、HTTP ETag、etcd ModRevision 等）。印章只用于
// 判断"是否可能变化"，不保证语义等价。未实现 Stamper 的源不参与
// 过期判断。
package xsource
