package todo

import (
	"sync"
	"time"
)

// IDGenerator は作成時刻 (Unixミリ秒) からタスクIDを生成します。
// 同じミリ秒に複数回呼ばれても、時計が戻っても、IDは単調増加します。
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDGenerator は新しいIDGeneratorを作成します。nowがnilならtime.Nowを使います。
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next は新しいIDを返します。
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe は既存のIDを登録し、以降のIDがそれより大きくなるようにします。
func (g *IDGenerator) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id > g.last {
		g.last = id
	}
}
