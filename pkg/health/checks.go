package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// CheckFunc は1項目のヘルスチェック。ok と人が読む短いメッセージを返す
type CheckFunc func() (bool, string)

// Pinger is the part of the tool-server registry a health check needs.
type Pinger interface {
	Ping(ctx context.Context, server string) error
}

// ToolServerCheck は ping が timeout 以内に成功するかを確認
func ToolServerCheck(p Pinger, server string, timeout time.Duration) CheckFunc {
	return func() (bool, string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := p.Ping(ctx, server); err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		return true, fmt.Sprintf("ok (%dms)", time.Since(start).Milliseconds())
	}
}

// Result は1項目の結果
type Result struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Report は全項目の結果。1つでも失敗すれば Status は "degraded"
type Report struct {
	Status string   `json:"status"`
	Checks []Result `json:"checks"`
}

// Healthy は全項目が成功したかを判定
func (r Report) Healthy() bool {
	return r.Status == "ok"
}

// Checker は名前付きのチェックを保持し、まとめて実行する
type Checker struct {
	checks map[string]CheckFunc
	mu     sync.RWMutex
}

// NewChecker は空のCheckerを作成
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register はチェックを登録。同名のチェックは置き換える
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// Run は全チェックを並行に実行し、名前順の結果を返す
func (c *Checker) Run() Report {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	fns := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		names = append(names, name)
		fns[name] = fn
	}
	c.mu.RUnlock()
	sort.Strings(names)

	results := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			ok, msg := fns[name]()
			results[i] = Result{Name: name, OK: ok, Message: msg}
		}(i, name)
	}
	wg.Wait()

	report := Report{Status: "ok", Checks: results}
	for _, r := range results {
		if !r.OK {
			report.Status = "degraded"
			break
		}
	}
	return report
}
