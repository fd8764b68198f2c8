package internal

import "log/slog"

// 系統設計問題：
//   如何在多條連線共享一個棋局時，保證回合制規則不被違反？
//
// 核心挑戰：
//   1. 狀態機：lobby →（兩個棋子配完）active → won/drawn →（重置）active
//   2. 權威性：伺服器是最後一道檢查，非法落子一律靜默丟棄
//   3. 廣播順序：真人落子與機器人回手各自廣播一次，且依序送達
//
// 設計方案：
//   ✅ 全盤重算勝負：每次落子後掃 8 條連線，不做增量追蹤
//   ✅ 無效操作 no-op：不回錯誤，狀態不變（客戶端 UI 已先擋掉大半）
//   ✅ 機器人在同一個事件處理內回手，廣播不合併

// Mark 棋子
type Mark string

const (
	MarkX     Mark = "X"
	MarkO     Mark = "O"
	MarkEmpty Mark = ""
)

// opponent 對手的棋子
func opponent(m Mark) Mark {
	if m == MarkX {
		return MarkO
	}
	return MarkX
}

const boardCells = 9

// winLines 8 條固定連線：3 橫、3 直、2 斜
var winLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// CalculateWinner 從整個棋盤重新計算贏家，未分出勝負回傳 MarkEmpty
func CalculateWinner(board []Mark) Mark {
	for _, line := range winLines {
		a, b, c := line[0], line[1], line[2]
		if board[a] != MarkEmpty && board[a] == board[b] && board[a] == board[c] {
			return board[a]
		}
	}
	return MarkEmpty
}

// TTTPlayer 井字棋席位，加入順序決定棋子（第一位拿 X）
type TTTPlayer struct {
	ID   string `json:"id"`
	Mark Mark   `json:"mark"`
}

// TTTRoom 井字棋房間狀態
type TTTRoom struct {
	Players []TTTPlayer
	Board   []Mark
	Turn    Mark
	Winner  Mark
	IsBot   bool
}

func newTTTRoom() *TTTRoom {
	return &TTTRoom{
		Board: make([]Mark, boardCells),
		Turn:  MarkX,
	}
}

// player 依連線 ID 找席位
func (r *TTTRoom) player(connID string) (TTTPlayer, bool) {
	for _, p := range r.Players {
		if p.ID == connID {
			return p, true
		}
	}
	return TTTPlayer{}, false
}

// RoomJoined room:joined 回覆內容
type RoomJoined struct {
	RoomID string `json:"roomId"`
	Mark   Mark   `json:"mark"`
}

// TTTUpdate game:update 廣播內容
type TTTUpdate struct {
	Board   []Mark      `json:"board"`
	Turn    Mark        `json:"turn"`
	Winner  *Mark       `json:"winner"`
	Players []TTTPlayer `json:"players"`
	IsBot   bool        `json:"isBot"`
}

// TicTacToe 井字棋協調器
type TicTacToe struct {
	store  *Store[*TTTRoom]
	sender Sender
	bot    *Bot
	logger *slog.Logger
}

// NewTicTacToe 建立井字棋協調器
func NewTicTacToe(sender Sender, bot *Bot, logger *slog.Logger) *TicTacToe {
	return &TicTacToe{
		store:  NewStore(newTTTRoom),
		sender: sender,
		bot:    bot,
		logger: logger,
	}
}

// group 廣播群組鍵，加上遊戲前綴讓不同遊戲的同名房間不共用群組
func (g *TicTacToe) group(roomID string) string {
	return "ttt/" + roomID
}

// Join 加入房間（不存在則建立）
//
// 滿房規則：已有兩位真人且非機器人房 → 只回 room:full 給請求者，不廣播。
// 機器人房不受兩人上限約束（沿用既有行為）。
func (g *TicTacToe) Join(connID, roomID string) {
	room := g.store.GetOrCreate(roomID)

	if len(room.Players) >= 2 && !room.IsBot {
		g.sender.To(connID, EvtRoomFull, struct{}{})
		return
	}

	mark := MarkX
	if len(room.Players) > 0 {
		mark = MarkO
	}
	room.Players = append(room.Players, TTTPlayer{ID: connID, Mark: mark})
	g.sender.Join(g.group(roomID), connID)

	g.sender.To(connID, EvtRoomJoined, RoomJoined{RoomID: roomID, Mark: mark})
	g.broadcast(roomID, room)

	g.logger.Info("玩家加入井字棋房間",
		"room_id", roomID,
		"conn_id", connID,
		"mark", mark)
}

// StartBot 啟用機器人模式（不佔用席位，不加入廣播群組）
func (g *TicTacToe) StartBot(connID, roomID string) {
	room := g.store.GetOrCreate(roomID)
	room.IsBot = true
	g.broadcast(roomID, room)

	g.logger.Info("機器人模式啟用", "room_id", roomID, "conn_id", connID)
}

// Move 落子
//
// 以下情況一律 no-op：房間不存在、已分出勝負、請求者不是房內玩家、
// 不是請求者的回合、目標格已被佔用、索引越界。
func (g *TicTacToe) Move(connID, roomID string, index int) {
	room, ok := g.store.Get(roomID)
	if !ok || room.Winner != MarkEmpty {
		return
	}
	if index < 0 || index >= boardCells {
		return
	}

	player, ok := room.player(connID)
	if !ok || room.Turn != player.Mark || room.Board[index] != MarkEmpty {
		return
	}

	room.Board[index] = player.Mark
	room.Turn = opponent(player.Mark)
	room.Winner = CalculateWinner(room.Board)
	g.broadcast(roomID, room)

	// 機器人回手：同一個事件處理內完成，第二次廣播依序送出，不與前一次合併
	if room.Winner == MarkEmpty && room.IsBot {
		botMark := room.Turn
		g.bot.Move(room.Board, botMark)
		room.Turn = opponent(botMark)
		room.Winner = CalculateWinner(room.Board)
		g.broadcast(roomID, room)
	}
}

// Reset 重置棋局，保留席位與機器人旗標
func (g *TicTacToe) Reset(roomID string) {
	room, ok := g.store.Get(roomID)
	if !ok {
		return
	}

	room.Board = make([]Mark, boardCells)
	room.Turn = MarkX
	room.Winner = MarkEmpty
	g.broadcast(roomID, room)
}

// Disconnect 斷線清理：移除玩家、廣播剩餘狀態，
// 真人數歸零且非機器人房才刪除（機器人房刻意保留，可重複使用）
func (g *TicTacToe) Disconnect(connID string) {
	g.store.Range(func(roomID string, room *TTTRoom) bool {
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
		g.broadcast(roomID, room)

		if len(room.Players) == 0 && !room.IsBot {
			g.store.Delete(roomID)
			g.logger.Info("井字棋房間已移除", "room_id", roomID)
		}
		return true
	})
}

// RoomCount 目前房間數（統計用）
func (g *TicTacToe) RoomCount() int {
	return g.store.Len()
}

// broadcast 廣播完整狀態；內容取快照，之後的狀態變更不影響已送出的負載
func (g *TicTacToe) broadcast(roomID string, room *TTTRoom) {
	board := make([]Mark, len(room.Board))
	copy(board, room.Board)

	g.sender.Broadcast(g.group(roomID), EvtGameUpdate, TTTUpdate{
		Board:   board,
		Turn:    room.Turn,
		Winner:  nullable(room.Winner),
		Players: append([]TTTPlayer(nil), room.Players...),
		IsBot:   room.IsBot,
	})
}
