package render

import (
	"sync"

	"github.com/google/uuid"
)

// Hub は開いているページ (SSE接続) へ再描画のバージョン番号を配信します。
// 送信はブロックせず、受信が遅い購読者は途中のバージョンを取りこぼします。
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan uint64
}

// NewHub は新しいHubを作成します。
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]chan uint64)}
}

// Subscribe は購読を開始し、購読IDと受信チャネルを返します。
func (h *Hub) Subscribe() (string, <-chan uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan uint64, 1)
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe は購読を終了し、チャネルを閉じます。
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Broadcast はすべての購読者へversionを送ります。
func (h *Hub) Broadcast(version uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- version:
		default:
			// 未読の古いバージョンを捨てて最新に置き換える
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- version:
			default:
			}
		}
	}
}

// Len は購読者数を返します。
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
