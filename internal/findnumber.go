package internal

import (
	"log/slog"
	"math/rand/v2"
)

// 搶數字：房間內是一排 1..N 的亂序數字，永遠只有「下一個」能被搶。
//
// 設計重點：
//   ✅ 嚴格順序：搶的數字必須等於當下的 next，否則 no-op
//   ✅ 先到先得：同一個數字只會從未認領轉為已認領一次，
//     事件序列化保證先被處理的請求贏
//   ✅ 全部搶完才結算：認領數嚴格較多者勝，平手為 Draw

// DefaultBoardSize 預設的數字總量
const DefaultBoardSize = 20

// 席位顏色：第一位綠色，之後藍色
const (
	colorFirst  = "#22c55e"
	colorSecond = "#3b82f6"
)

// DrawWinner 平手時的 winner 值
const DrawWinner = "Draw"

// FindPlayer 搶數字席位
type FindPlayer struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// FindRoom 搶數字房間狀態
type FindRoom struct {
	Players []FindPlayer
	Numbers []int          // 1..N 的隨機排列，建房時產生
	Claimed map[int]string // 數字 -> 搶到的連線
	Next    int            // 下一個可搶的數字
	Score   map[string]int // 連線 -> 正確認領數
	Winner  string         // 連線 ID、"Draw"，或空字串（未結算）
}

func (r *FindRoom) player(connID string) (FindPlayer, bool) {
	for _, p := range r.Players {
		if p.ID == connID {
			return p, true
		}
	}
	return FindPlayer{}, false
}

// FindJoined find:joined 回覆內容
type FindJoined struct {
	RoomID  string         `json:"roomId"`
	Color   string         `json:"color"`
	Numbers []int          `json:"numbers"`
	Claimed map[int]string `json:"claimed"`
	Next    int            `json:"next"`
	Score   map[string]int `json:"score"`
	Winner  *string        `json:"winner"`
}

// FindUpdate find:update 廣播內容
type FindUpdate struct {
	Players []FindPlayer   `json:"players"`
	Next    int            `json:"next"`
	Score   map[string]int `json:"score"`
	Claimed map[int]string `json:"claimed"`
}

// FindReveal find:reveal 廣播：全部數字搶完後結算
type FindReveal struct {
	Players []FindPlayer   `json:"players"`
	Score   map[string]int `json:"score"`
	Claimed map[int]string `json:"claimed"`
	Winner  string         `json:"winner"`
}

// FindNumber 搶數字協調器
type FindNumber struct {
	store     *Store[*FindRoom]
	sender    Sender
	rng       *rand.Rand
	boardSize int
	logger    *slog.Logger
}

// NewFindNumber 建立搶數字協調器，boardSize 是每個房間的數字總量
func NewFindNumber(sender Sender, rng *rand.Rand, boardSize int, logger *slog.Logger) *FindNumber {
	f := &FindNumber{
		sender:    sender,
		rng:       rng,
		boardSize: boardSize,
		logger:    logger,
	}
	f.store = NewStore(f.newRoom)
	return f
}

func (f *FindNumber) newRoom() *FindRoom {
	return &FindRoom{
		Numbers: f.shuffledNumbers(),
		Claimed: make(map[int]string),
		Next:    1,
		Score:   make(map[string]int),
	}
}

// shuffledNumbers 產生 1..N 的隨機排列
func (f *FindNumber) shuffledNumbers() []int {
	nums := f.rng.Perm(f.boardSize)
	for i := range nums {
		nums[i]++
	}
	return nums
}

func (f *FindNumber) group(roomID string) string {
	return "find/" + roomID
}

// Join 加入房間（不存在則建立，排列在建房時產生一次）
func (f *FindNumber) Join(connID, roomID string) {
	room := f.store.GetOrCreate(roomID)

	color := colorFirst
	if len(room.Players) > 0 {
		color = colorSecond
	}
	room.Players = append(room.Players, FindPlayer{ID: connID, Color: color})
	f.sender.Join(f.group(roomID), connID)

	f.sender.To(connID, EvtFindJoined, FindJoined{
		RoomID:  roomID,
		Color:   color,
		Numbers: append([]int(nil), room.Numbers...),
		Claimed: copyClaims(room.Claimed),
		Next:    room.Next,
		Score:   copyScores(room.Score),
		Winner:  nullable(room.Winner),
	})
	f.broadcastUpdate(roomID, room)

	f.logger.Info("玩家加入搶數字房間",
		"room_id", roomID,
		"conn_id", connID,
		"color", color)
}

// Click 嘗試認領數字
//
// 只有 num 恰好等於當下 next 且尚未被認領時才成功；其餘一律 no-op。
// 最後一個數字被認領時結算勝負並廣播 find:reveal。
func (f *FindNumber) Click(connID, roomID string, num int) {
	room, ok := f.store.Get(roomID)
	if !ok || room.Winner != "" {
		return
	}
	if _, ok := room.player(connID); !ok {
		return
	}
	if num != room.Next {
		return
	}
	if _, taken := room.Claimed[num]; taken {
		return
	}

	room.Claimed[num] = connID
	room.Score[connID]++
	room.Next++

	if room.Next > len(room.Numbers) {
		room.Winner = decideFindWinner(room)
		f.sender.Broadcast(f.group(roomID), EvtFindReveal, FindReveal{
			Players: append([]FindPlayer(nil), room.Players...),
			Score:   copyScores(room.Score),
			Claimed: copyClaims(room.Claimed),
			Winner:  room.Winner,
		})
		return
	}

	f.broadcastUpdate(roomID, room)
}

// Reset 產生新的排列並清空認領、計分與結果
func (f *FindNumber) Reset(roomID string) {
	room, ok := f.store.Get(roomID)
	if !ok {
		return
	}

	room.Numbers = f.shuffledNumbers()
	room.Claimed = make(map[int]string)
	room.Next = 1
	room.Score = make(map[string]int)
	room.Winner = ""
	f.broadcastUpdate(roomID, room)
}

// Disconnect 斷線清理：移除玩家並廣播，房間空了就刪除
func (f *FindNumber) Disconnect(connID string) {
	f.store.Range(func(roomID string, room *FindRoom) bool {
		idx := -1
		for i, p := range room.Players {
			if p.ID == connID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return true
		}

		room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
		f.broadcastUpdate(roomID, room)

		if len(room.Players) == 0 {
			f.store.Delete(roomID)
			f.logger.Info("搶數字房間已移除", "room_id", roomID)
		}
		return true
	})
}

// RoomCount 目前房間數（統計用）
func (f *FindNumber) RoomCount() int {
	return f.store.Len()
}

// decideFindWinner 認領數嚴格較多者勝，並列最高為 Draw
//
// 以計分表為準而不是在座玩家：搶完前斷線的玩家分數仍然有效，
// 不會因為人不在而把勝利判給留下的低分者。
func decideFindWinner(room *FindRoom) string {
	best, bestScore, tie := "", -1, false
	for id, score := range room.Score {
		switch {
		case score > bestScore:
			best, bestScore, tie = id, score, false
		case score == bestScore:
			tie = true
		}
	}
	if tie || best == "" {
		return DrawWinner
	}
	return best
}

func (f *FindNumber) broadcastUpdate(roomID string, room *FindRoom) {
	f.sender.Broadcast(f.group(roomID), EvtFindUpdate, FindUpdate{
		Players: append([]FindPlayer(nil), room.Players...),
		Next:    room.Next,
		Score:   copyScores(room.Score),
		Claimed: copyClaims(room.Claimed),
	})
}

func copyClaims(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyScores(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
