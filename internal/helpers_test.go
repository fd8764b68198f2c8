package internal_test

import (
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/koopa0/system-design/14-minigame-rooms/internal"
)

// sentMessage 記錄一次發送，direct 表示單播給請求者
type sentMessage struct {
	target  string // 連線 ID（單播）或群組（廣播）
	event   string
	payload any
	direct  bool
}

// recordingSender 測試用 Sender：記錄所有發送與群組加入
type recordingSender struct {
	messages []sentMessage
	joins    map[string][]string // group -> conn ids
}

var _ internal.Sender = (*recordingSender)(nil)

func newRecordingSender() *recordingSender {
	return &recordingSender{joins: make(map[string][]string)}
}

func (s *recordingSender) To(connID, event string, payload any) {
	s.messages = append(s.messages, sentMessage{target: connID, event: event, payload: payload, direct: true})
}

func (s *recordingSender) Broadcast(group, event string, payload any) {
	s.messages = append(s.messages, sentMessage{target: group, event: event, payload: payload})
}

func (s *recordingSender) Join(group, connID string) {
	s.joins[group] = append(s.joins[group], connID)
}

// byEvent 某事件的所有發送，依發送順序
func (s *recordingSender) byEvent(event string) []sentMessage {
	var out []sentMessage
	for _, m := range s.messages {
		if m.event == event {
			out = append(out, m)
		}
	}
	return out
}

// last 某事件最後一次發送
func (s *recordingSender) last(event string) (sentMessage, bool) {
	msgs := s.byEvent(event)
	if len(msgs) == 0 {
		return sentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

// clear 丟棄已記錄的發送，方便只斷言後續動作
func (s *recordingSender) clear() {
	s.messages = nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testRNG 固定種子的隨機源，讓機器人落子與排列可重現
func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}
