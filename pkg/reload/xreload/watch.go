package xreload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce 文件事件的默认防抖时间。
const defaultDebounce = 100 * time.Millisecond

// fileWatcher 监视一组文件，变化经防抖后触发 onChange。
type fileWatcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	onChange func()
	onError  func(error)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	running bool
	timer   *time.Timer
}

// newFileWatcher 创建监视器。paths 是待监视的文件路径列表，
// 实际监视的是各文件所在目录：编辑器保存时可能先删后建，
// 直接监视文件会丢失事件。
func newFileWatcher(paths []string, debounce time.Duration, onChange func(), onError func(error)) (*fileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xreload: create watcher: %w", err)
	}

	files := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		p = filepath.Clean(p)
		files[p] = struct{}{}
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			closeErr := fsw.Close()
			return nil, errors.Join(
				fmt.Errorf("xreload: watch directory %s: %w", dir, err),
				closeErr,
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &fileWatcher{
		fsw:      fsw,
		files:    files,
		debounce: debounce,
		onChange: onChange,
		onError:  onError,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// start 在后台 goroutine 中启动事件循环，重复调用无效果。
func (w *fileWatcher) start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
}

// stop 停止监视并等待事件循环退出，幂等。
func (w *fileWatcher) stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.cancel()
	err := w.fsw.Close()
	w.mu.Unlock()

	<-w.done
	return err
}

func (w *fileWatcher) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *fileWatcher) handleEvent(event fsnotify.Event) {
	// 只关心被监视的那几个文件
	if _, ok := w.files[filepath.Clean(event.Name)]; !ok {
		return
	}

	// Write 直接修改；Create 新建（部分编辑器保存即新建）；
	// Rename 原子写入（写临时文件后 rename 覆盖）
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	// 防抖：重置计时器
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		w.onChange()
	})
}
