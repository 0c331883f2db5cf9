package clock

import (
	"sync"
	"time"
)

// Clock 可注入的时钟
// 考勤判定与清扫任务都依赖“当前时间”，测试中使用 Fake 推进虚拟时间
type Clock interface {
	Now() time.Time
	// Tick 返回周期触发的通道与停止函数
	Tick(d time.Duration) (<-chan time.Time, func())
}

type realClock struct{}

// New 返回系统时钟
func New() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Fake 手动推进的虚拟时钟
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	period  time.Duration
	next    time.Time
	ch      chan time.Time
	stopped bool
}

// NewFake 创建起始于 t 的虚拟时钟
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Tick(d time.Duration) (<-chan time.Time, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{period: d, next: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t.ch, func() {
		f.mu.Lock()
		t.stopped = true
		f.mu.Unlock()
	}
}

// Set 将虚拟时间设置为 t（不触发 ticker）
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance 推进虚拟时间，跨过的每个周期点都会尝试触发对应 ticker
// 与 time.Ticker 一致，接收方来不及消费时多余的触发被丢弃
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	for _, t := range f.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(f.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
}
