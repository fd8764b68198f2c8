package internal

import "encoding/json"

// 線上協議：雙向皆為 JSON 信封 {"event": "...", "data": {...}}。
//
// 設計重點：
//   - 每個事件一個明確的請求型別，必填欄位在邊界驗證
//   - 解析失敗視為無效操作，靜默丟棄（參見 router.go）
//   - 回覆分兩種目標：單播給請求者、廣播給整個房間群組

// Envelope 入站事件信封
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// 入站事件名稱
const (
	EvtRoomJoin     = "room:join"
	EvtRoomStartBot = "room:startBot"
	EvtGameMove     = "game:move"
	EvtGameReset    = "game:reset"
	EvtRPSJoin      = "rps:join"
	EvtRPSChoose    = "rps:choose"
	EvtRPSReset     = "rps:reset"
	EvtFindJoin     = "find:join"
	EvtFindClick    = "find:click"
	EvtFindReset    = "find:reset"
)

// 出站事件名稱
const (
	EvtRoomJoined = "room:joined"
	EvtRoomFull   = "room:full"
	EvtGameUpdate = "game:update"
	EvtRPSJoined  = "rps:joined"
	EvtRPSUpdate  = "rps:update"
	EvtRPSReveal  = "rps:reveal"
	EvtRPSFull    = "rps:full"
	EvtFindJoined = "find:joined"
	EvtFindUpdate = "find:update"
	EvtFindReveal = "find:reveal"
)

// 請求結構
type roomRequest struct {
	RoomID string `json:"roomId"`
}

// moveRequest 的 index 用指標承接：缺漏欄位解出 nil，
// 不會被零值誤當成落在 0 號格的合法落子
type moveRequest struct {
	RoomID string `json:"roomId"`
	Index  *int   `json:"index"`
}

type chooseRequest struct {
	RoomID string `json:"roomId"`
	Choice Choice `json:"choice"`
}

type clickRequest struct {
	RoomID string `json:"roomId"`
	Num    int    `json:"num"`
}

// Sender 傳輸能力介面
//
// 核心只依賴這三個操作：
//   - To：單播給特定連線（回覆請求者）
//   - Broadcast：廣播給群組內所有連線
//   - Join：把連線加入廣播群組
//
// 連線中斷時由傳輸層負責把連線移出所有群組，核心不需要 Leave。
type Sender interface {
	To(connID, event string, payload any)
	Broadcast(group, event string, payload any)
	Join(group, connID string)
}

// nullable 把零值字串轉為 nil，JSON 中以 null 表示「尚未決定」
func nullable[T ~string](v T) *T {
	if v == "" {
		return nil
	}
	return &v
}
