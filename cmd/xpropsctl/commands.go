package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xprops/pkg/props/xstore"
	"github.com/omeyang/xprops/pkg/reload/xreload"
	"github.com/omeyang/xprops/pkg/source/xsource"
)

// defaultWatchPeriod watch 命令的默认检查周期。
const defaultWatchPeriod = 10 * time.Second

// stampsFileMode 印章记录文件的权限。
const stampsFileMode = 0o600

// ===== 错误类型 =====

// exitError 携带指定退出码的错误，消息已输出过的场景用空消息。
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

// usageError 参数使用错误，统一映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

// isCLIUsageError 判断是否为 CLI 框架产生的参数解析错误。
// urfave/cli 对未知 flag 返回 flag 包的裸错误，对未知命令返回 ExitCoder，
// 两类都属于"用法错误"，映射为退出码 2。
func isCLIUsageError(err error) bool {
	if errors.Is(err, flag.ErrHelp) {
		return true
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "flag provided but not defined") ||
		strings.HasPrefix(msg, "flag needs an argument") ||
		strings.Contains(msg, "invalid value")
}

// ===== 命令定义 =====

// createCommands 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createDumpCommand(),
		createGetCommand(),
		createKeysCommand(),
		createCheckCommand(),
		createWatchCommand(),
	}
}

func createDumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "解析合并后输出 properties 文本",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "comment",
				Usage: "首行附带生成时间注释",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := globalsFrom(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, opts.timeout)
			defer cancel()
			return cmdDump(ctx, opts, cmd.Bool("comment"), os.Stdout)
		},
	}
}

func createGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "输出指定键的值，键不存在时退出码 1",
		ArgsUsage: "<key>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := globalsFrom(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, opts.timeout)
			defer cancel()
			return cmdGet(ctx, opts, cmd.Args().First(), os.Stdout)
		},
	}
}

func createKeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "按字母序输出全部键名",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := globalsFrom(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, opts.timeout)
			defer cancel()
			return cmdKeys(ctx, opts, os.Stdout)
		},
	}
}

func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "对照印章记录探测源是否过期（0 新鲜 / 3 过期）",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stamps",
				Usage: "印章记录文件，比对后写回当前印章",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := globalsFrom(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(ctx, opts.timeout)
			defer cancel()
			return cmdCheck(ctx, opts, cmd.String("stamps"), os.Stdout)
		},
	}
}

func createWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "启动异步重载并打印每次变更摘要，直到收到信号",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "period",
				Usage: "检查周期",
				Value: defaultWatchPeriod,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := globalsFrom(cmd)
			if err != nil {
				return err
			}
			// watch 长期运行，不套 timeout，由信号取消 ctx 退出
			return cmdWatch(ctx, opts, cmd.Duration("period"), os.Stdout)
		},
	}
}

// ===== 全局选项 =====

// globalOptions 全局 flag 的解析结果。
type globalOptions struct {
	sources  []string
	policy   xsource.LoadPolicy
	imports  map[string]string
	defaults map[string]string
	timeout  time.Duration
}

// globalsFrom 从命令上下文提取并校验全局选项。
func globalsFrom(cmd *cli.Command) (*globalOptions, error) {
	policy, err := xsource.ParsePolicy(cmd.String("policy"))
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	imports, err := parseKVPairs(cmd.StringSlice("import"))
	if err != nil {
		return nil, err
	}
	defaults, err := parseKVPairs(cmd.StringSlice("default"))
	if err != nil {
		return nil, err
	}
	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &globalOptions{
		sources:  cmd.StringSlice("source"),
		policy:   policy,
		imports:  imports,
		defaults: defaults,
		timeout:  timeout,
	}, nil
}

// parseKVPairs 解析 key=value 形式的重复 flag。
func parseKVPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &usageError{msg: fmt.Sprintf("无效的键值对 %q，期望 key=value", pair)}
		}
		out[key] = value
	}
	return out, nil
}

// definition 按全局选项组装配置定义。
func (o *globalOptions) definition(hot *xstore.HotReload) *xstore.Definition {
	def := &xstore.Definition{
		Name:      "xpropsctl",
		Sources:   o.sources,
		Policy:    o.policy,
		HotReload: hot,
	}
	if len(o.defaults) > 0 {
		def.Defaults = xstore.MapDefaults(o.defaults)
	}
	return def
}

// newStore 组装并加载配置。
func (o *globalOptions) newStore(ctx context.Context, hot *xstore.HotReload) (*xstore.Store, *xstore.Definition, error) {
	def := o.definition(hot)
	var opts []xstore.Option
	if len(o.imports) > 0 {
		opts = append(opts, xstore.WithImports(o.imports))
	}
	st, err := xstore.New(def, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Load(ctx); err != nil {
		return nil, nil, err
	}
	return st, def, nil
}

// ===== 命令实现 =====

// cmdDump 解析合并后输出 properties 文本。
func cmdDump(ctx context.Context, opts *globalOptions, comment bool, w io.Writer) error {
	if len(opts.sources) == 0 && len(opts.defaults) == 0 && len(opts.imports) == 0 {
		return &usageError{msg: "dump 需要至少一个 --source / --default / --import"}
	}
	st, _, err := opts.newStore(ctx, nil)
	if err != nil {
		return err
	}
	header := ""
	if comment {
		header = fmt.Sprintf("generated by xpropsctl at %s", time.Now().Format(time.RFC3339))
	}
	return st.Store(w, header)
}

// cmdGet 输出指定键的值，键不存在时退出码 1。
func cmdGet(ctx context.Context, opts *globalOptions, key string, w io.Writer) error {
	if key == "" {
		return &usageError{msg: "get 需要指定键名"}
	}
	st, _, err := opts.newStore(ctx, nil)
	if err != nil {
		return err
	}
	value, ok := st.GetProperty(key)
	if !ok {
		return &exitError{code: 1, msg: fmt.Sprintf("键 %q 不存在", key)}
	}
	fmt.Fprintln(w, value)
	return nil
}

// cmdKeys 按字母序输出全部键名。
func cmdKeys(ctx context.Context, opts *globalOptions, w io.Writer) error {
	st, _, err := opts.newStore(ctx, nil)
	if err != nil {
		return err
	}
	// 表内是源序，脚本消费更需要稳定的字母序
	names := st.PropertyNames()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

// cmdCheck 探测源是否过期。
//
// 不带 --stamps 只验证所有源可解析；带 --stamps 把当前印章
// 与记录文件比对后写回：记录缺失或有变 → 过期（退出码 3）。
func cmdCheck(ctx context.Context, opts *globalOptions, stampsPath string, w io.Writer) error {
	if len(opts.sources) == 0 {
		return &usageError{msg: "check 需要至少一个 --source"}
	}
	resolver := xsource.NewResolver()

	if stampsPath == "" {
		if _, err := resolver.Resolve(ctx, opts.sources, opts.policy); err != nil {
			return err
		}
		fmt.Fprintln(w, "fresh")
		return nil
	}

	current, err := resolver.Stamps(ctx, opts.sources)
	if err != nil {
		return err
	}
	recorded, err := readStamps(stampsPath)
	if err != nil {
		return err
	}
	if err := writeStamps(stampsPath, current); err != nil {
		return err
	}
	if recorded == nil || !current.Equal(recorded) {
		fmt.Fprintln(w, "stale")
		return &exitError{code: 3}
	}
	fmt.Fprintln(w, "fresh")
	return nil
}

// cmdWatch 启动异步重载并打印每次变更摘要，直到 ctx 取消。
func cmdWatch(ctx context.Context, opts *globalOptions, period time.Duration, w io.Writer) error {
	if len(opts.sources) == 0 {
		return &usageError{msg: "watch 需要至少一个 --source"}
	}
	if period <= 0 {
		return &usageError{msg: fmt.Sprintf("无效的检查周期 %v", period)}
	}

	st, def, err := opts.newStore(ctx, &xstore.HotReload{
		Mode:   xstore.ReloadAsync,
		Period: period,
	})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	prev := st.Properties()
	st.AddReloadListener(xstore.ListenerFunc(func(ev xstore.ReloadEvent) {
		mu.Lock()
		defer mu.Unlock()
		current := st.Properties()
		added, changed, removed := diffProperties(prev, current)
		prev = current
		fmt.Fprintf(w, "[%s] reloaded: %d keys (+%d ~%d -%d)\n",
			ev.At.Format("15:04:05"), len(current), added, changed, removed)
	}))

	trigger, err := xreload.New(def, nil, st)
	if err != nil {
		return err
	}
	if err := trigger.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = trigger.Stop() }() //nolint:errcheck // 退出路径，Stop 幂等

	fmt.Fprintf(w, "watching %d source(s) every %s, press Ctrl+C to stop\n",
		len(opts.sources), period)
	<-ctx.Done()
	return nil
}

// ===== 工具函数 =====

// diffProperties 统计两份属性快照之间的新增、变更、删除键数。
func diffProperties(old, current map[string]string) (added, changed, removed int) {
	for key, value := range current {
		prev, ok := old[key]
		switch {
		case !ok:
			added++
		case prev != value:
			changed++
		}
	}
	for key := range old {
		if _, ok := current[key]; !ok {
			removed++
		}
	}
	return added, changed, removed
}

// readStamps 读取印章记录文件。文件不存在返回 nil 而非错误。
func readStamps(path string) (xsource.Stamps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取印章记录 %s: %w", path, err)
	}
	var stamps xsource.Stamps
	if err := json.Unmarshal(data, &stamps); err != nil {
		return nil, fmt.Errorf("解析印章记录 %s: %w", path, err)
	}
	return stamps, nil
}

// writeStamps 把当前印章写回记录文件。
func writeStamps(path string, stamps xsource.Stamps) error {
	data, err := json.MarshalIndent(stamps, "", "  ")
	if err != nil {
		return fmt.Errorf("编码印章记录: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), stampsFileMode); err != nil {
		return fmt.Errorf("写入印章记录 %s: %w", path, err)
	}
	return nil
}

// setupSignalHandler 设置信号处理：首个 SIGINT/SIGTERM 取消 ctx
// 优雅退出，再次收到信号立即退出。
func setupSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		<-sigCh
		os.Exit(130)
	}()
}
