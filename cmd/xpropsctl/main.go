// xpropsctl 是属性配置的命令行工具：解析多源配置、查询键值、
// 探测源是否过期、持续监视重载。
//
// 用法:
//
//	xpropsctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-s, --source   源 spec，可重复，顺序即优先级（如 config/app.properties、
//	               env:APP、https://cfg.example.com/app.json）
//	    --policy   多源取舍策略: first | merge (默认: first)
//	    --import   只读导入项 key=value，可重复，优先级最高
//	-d, --default  默认值 key=value，可重复，优先级最低
//	-t, --timeout  命令超时时间 (默认: 30s)
//
// 命令:
//
//	dump           解析合并后输出 properties 文本
//	get <key>      输出指定键的值，键不存在时退出码 1
//	keys           按字母序输出全部键名
//	check          对照印章记录探测源是否过期
//	watch          启动异步重载并打印每次变更摘要，直到收到信号
//	help           显示帮助信息
//
// check 命令说明:
//
//	不带 --stamps 时只验证所有源当前可解析。带 --stamps <file> 时把
//	各源的当前印章与记录文件比对，并把新印章写回记录文件：
//	记录缺失或印章有变 → 过期（退出码 3），完全一致 → 新鲜（退出码 0）。
//	典型用法是在定时任务里驱动"有变化才执行"的脚本。
//
// 退出码:
//
//	0: 命令执行成功（check 命令: 源新鲜）
//	1: 命令执行失败（get 命令: 键不存在）
//	2: 参数错误（无效策略、缺少必需参数、未知命令等）
//	3: check 命令检出源过期
//
// 示例:
//
//	xpropsctl -s config/app.properties dump --comment
//	xpropsctl -s base.properties -s env:APP --policy merge get server.port
//	xpropsctl -s app.properties -d server.port=8080 keys
//	xpropsctl -s https://cfg.example.com/app.json check --stamps /tmp/app.stamps
//	xpropsctl -s config/app.properties watch --period 30s
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

// defaultTimeout 默认命令超时时间。
const defaultTimeout = 30 * time.Second

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xpropsctl",
		Usage:   "属性配置的解析、查询与监视工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "源 spec，可重复，顺序即优先级",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "多源取舍策略: first | merge",
				Value: "first",
			},
			&cli.StringSliceFlag{
				Name:  "import",
				Usage: "只读导入项 key=value，可重复，优先级最高",
			},
			&cli.StringSliceFlag{
				Name:    "default",
				Aliases: []string{"d"},
				Usage:   "默认值 key=value，可重复，优先级最低",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "命令超时时间",
				Value:   defaultTimeout,
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
		Authors: []any{
			"xprops Team",
		},
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射，确保与文档退出码契约一致。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// ExitCoder 错误（如未知命令）的消息需在此输出，
			// 替代 HandleExitCoder 的默认 os.Exit 行为。
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
		Description: `xpropsctl 把一组有序源（文件/环境变量/HTTP/redis/etcd/configmap）
解析合并成一张属性表，供脚本与运维查询。

优先级从低到高: --default < 源（按 --policy 取舍） < --import。

主要命令:
  dump                输出合并后的 properties 文本
    --comment         首行附带生成时间注释
  get <key>           输出指定键的值
  keys                按字母序输出全部键名
  check               探测源是否过期
    --stamps <file>   印章记录文件，比对并写回
  watch               持续监视并打印每次重载的变更摘要
    --period <d>      检查周期 (默认: 10s)`,
	}
}

func run() int {
	app := createApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandler(cancel)

	if err := app.Run(ctx, os.Args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		// CLI 框架产生的参数错误（如未知 flag、未知命令）也返回退出码 2，
		// 与文档契约"参数错误 → 退出码 2"保持一致。
		if isCLIUsageError(err) {
			// ExitErrHandler 或 flag 解析器已向 stderr 输出错误详情，此处仅设置退出码
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	return 0
}
