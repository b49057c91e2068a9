package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// 同一次保存常触发多个事件，合并后只编译一次
const rebuildDelay = 100 * time.Millisecond

// watch 监听源文件所在目录，文件变化时重新编译，直到 ctx 结束
func (b *builder) watch(ctx context.Context, files []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// 监听目录而不是文件：编辑器保存时常以重命名替换原文件
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}
	fmt.Fprintf(b.errOut, Msg().WatchStarted+"\n", len(files))
	digests := fingerprint(files)

	var rebuild <-chan time.Time
	var changed string
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			b.logger.Debug("file event", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			changed = ev.Name
			rebuild = time.After(rebuildDelay)

		case <-rebuild:
			rebuild = nil
			// 只改了时间戳或保存了相同内容时不重新编译
			current := fingerprint(files)
			if current == digests {
				b.logger.Debug("content unchanged", zap.String("file", changed))
				continue
			}
			digests = current
			fmt.Fprintf(b.errOut, Msg().WatchRebuilding+"\n", changed)
			b.build(ctx, files)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// fingerprint 返回所有文件内容的摘要，读取失败的文件按空内容计算
func fingerprint(files []string) [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil)
	for _, f := range files {
		data, _ := os.ReadFile(f)
		sum := blake2b.Sum256(data)
		h.Write(sum[:])
	}
	var out [blake2b.Size256]byte
	copy(out[:], h.Sum(nil))
	return out
}
