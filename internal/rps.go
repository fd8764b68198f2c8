package internal

import "log/slog"

// 系統設計問題：
//   同時出拳的遊戲，如何保證任何一方在雙方都提交前看不到對手的選擇？
//
// 設計方案：
//   ✅ 出拳只存在伺服器端，rps:update 只廣播已出拳「數量」
//   ✅ 雙方到齊的那一刻計算一次結果，rps:reveal 才帶出完整選擇
//   ✅ 勝負以席位（A/B）表示，不綁連線 ID

// Role 席位，加入順序決定（第一位是 A）
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// Choice 出拳
type Choice string

const (
	ChoiceRock     Choice = "Rock"
	ChoicePaper    Choice = "Paper"
	ChoiceScissors Choice = "Scissors"
)

// validChoice 邊界驗證：只接受三種合法出拳
func validChoice(c Choice) bool {
	return c == ChoiceRock || c == ChoicePaper || c == ChoiceScissors
}

// Outcome 回合結果
type Outcome string

const (
	OutcomeA    Outcome = "A"
	OutcomeB    Outcome = "B"
	OutcomeDraw Outcome = "Draw"
)

// beats 石頭砸剪刀、剪刀剪布、布包石頭
var beats = map[Choice]Choice{
	ChoiceRock:     ChoiceScissors,
	ChoiceScissors: ChoicePaper,
	ChoicePaper:    ChoiceRock,
}

// Decide 判定勝負，a 是席位 A 的出拳、b 是席位 B 的出拳
func Decide(a, b Choice) Outcome {
	if a == b {
		return OutcomeDraw
	}
	if beats[a] == b {
		return OutcomeA
	}
	return OutcomeB
}

// RPSPlayer 猜拳席位
type RPSPlayer struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// RPSRoom 猜拳房間狀態
type RPSRoom struct {
	Players []RPSPlayer
	Choices map[string]Choice // connID -> 出拳，雙方到齊前絕不外洩
	Result  Outcome
}

func newRPSRoom() *RPSRoom {
	return &RPSRoom{Choices: make(map[string]Choice)}
}

func (r *RPSRoom) player(connID string) (RPSPlayer, bool) {
	for _, p := range r.Players {
		if p.ID == connID {
			return p, true
		}
	}
	return RPSPlayer{}, false
}

// RPSJoined rps:joined 回覆內容
type RPSJoined struct {
	RoomID  string      `json:"roomId"`
	Role    Role        `json:"role"`
	Players []RPSPlayer `json:"players"`
	Choices int         `json:"choices"`
	Result  *Outcome    `json:"result"`
}

// RPSUpdate rps:update 廣播：只帶已出拳數量，不帶內容
type RPSUpdate struct {
	Players []RPSPlayer `json:"players"`
	Choices int         `json:"choices"`
	Result  *Outcome    `json:"result"`
}

// RPSReveal rps:reveal 廣播：雙方都出拳後一次性公開
type RPSReveal struct {
	Players []RPSPlayer       `json:"players"`
	Choices map[string]Choice `json:"choices"`
	Result  Outcome           `json:"result"`
}

// RPS 猜拳協調器
type RPS struct {
	store  *Store[*RPSRoom]
	sender Sender
	logger *slog.Logger
}

// NewRPS 建立猜拳協調器
func NewRPS(sender Sender, logger *slog.Logger) *RPS {
	return &RPS{
		store:  NewStore(newRPSRoom),
		sender: sender,
		logger: logger,
	}
}

func (g *RPS) group(roomID string) string {
	return "rps/" + roomID
}

// Join 加入房間（不存在則建立），兩個席位都有人時回 rps:full 給請求者
func (g *RPS) Join(connID, roomID string) {
	room := g.store.GetOrCreate(roomID)

	if len(room.Players) >= 2 {
		g.sender.To(connID, EvtRPSFull, struct{}{})
		return
	}

	// 補上空出的席位：A 離開後再進來的玩家拿 A，
	// 否則房間會有兩個 B，rps:reveal 永遠湊不齊兩個席位
	role := RoleA
	if room.seat(RoleA) != "" {
		role = RoleB
	}
	room.Players = append(room.Players, RPSPlayer{ID: connID, Role: role})
	g.sender.Join(g.group(roomID), connID)

	g.sender.To(connID, EvtRPSJoined, RPSJoined{
		RoomID:  roomID,
		Role:    role,
		Players: append([]RPSPlayer(nil), room.Players...),
		Choices: len(room.Choices),
		Result:  nullable(room.Result),
	})
	g.broadcastUpdate(roomID, room)

	g.logger.Info("玩家加入猜拳房間",
		"room_id", roomID,
		"conn_id", connID,
		"role", role)
}

// Choose 記錄出拳
//
// no-op 條件：房間不存在、非法出拳值、請求者不是房內玩家、本回合已揭曉。
// 第二位出拳進來的那一刻計算結果並廣播 rps:reveal，否則只廣播數量。
func (g *RPS) Choose(connID, roomID string, choice Choice) {
	if !validChoice(choice) {
		return
	}
	room, ok := g.store.Get(roomID)
	if !ok || room.Result != "" {
		return
	}
	if _, ok := room.player(connID); !ok {
		return
	}

	room.Choices[connID] = choice

	if len(room.Players) == 2 {
		a, okA := room.Choices[room.seat(RoleA)]
		b, okB := room.Choices[room.seat(RoleB)]
		if okA && okB {
			room.Result = Decide(a, b)

			revealed := make(map[string]Choice, len(room.Choices))
			for id, c := range room.Choices {
				revealed[id] = c
			}
			g.sender.Broadcast(g.group(roomID), EvtRPSReveal, RPSReveal{
				Players: append([]RPSPlayer(nil), room.Players...),
				Choices: revealed,
				Result:  room.Result,
			})
			return
		}
	}

	g.broadcastUpdate(roomID, room)
}

// Reset 清空出拳與結果，開始新回合
func (g *RPS) Reset(roomID string) {
	room, ok := g.store.Get(roomID)
	if !ok {
		return
	}

	room.Choices = make(map[string]Choice)
	room.Result = ""
	g.broadcastUpdate(roomID, room)
}

// Disconnect 斷線清理：移除玩家與其出拳，房間空了就刪除
func (g *RPS) Disconnect(connID string) {
	g.store.Range(func(roomID string, room *RPSRoom) bool {
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
		delete(room.Choices, connID)
		g.broadcastUpdate(roomID, room)

		if len(room.Players) == 0 {
			g.store.Delete(roomID)
			g.logger.Info("猜拳房間已移除", "room_id", roomID)
		}
		return true
	})
}

// RoomCount 目前房間數（統計用）
func (g *RPS) RoomCount() int {
	return g.store.Len()
}

// seat 席位對應的連線 ID，席位無人時回空字串
func (r *RPSRoom) seat(role Role) string {
	for _, p := range r.Players {
		if p.Role == role {
			return p.ID
		}
	}
	return ""
}

func (g *RPS) broadcastUpdate(roomID string, room *RPSRoom) {
	g.sender.Broadcast(g.group(roomID), EvtRPSUpdate, RPSUpdate{
		Players: append([]RPSPlayer(nil), room.Players...),
		Choices: len(room.Choices),
		Result:  nullable(room.Result),
	})
}
