package internal

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// 系統設計問題：
//   多條連線共享同一房間狀態，如何讓「非法操作靜默丟棄」的檢查不產生競態？
//
// 設計方案：
//   單執行緒協作模型：Router 用一把鎖序列化所有入站事件與斷線通知，
//   每個事件（包含機器人回手與其全部廣播）處理完才輪到下一個。
//   協調器與 Store 因此完全不需要自己的鎖，兩個動作搶同一格時，
//   先被處理的那個贏，後者自然落入 no-op 分支。

// Router 事件路由器：信封解析、請求驗證、派發到各遊戲協調器
type Router struct {
	mu     sync.Mutex
	ttt    *TicTacToe
	rps    *RPS
	find   *FindNumber
	logger *slog.Logger
}

// NewRouter 建立路由器
func NewRouter(ttt *TicTacToe, rps *RPS, find *FindNumber, logger *slog.Logger) *Router {
	return &Router{
		ttt:    ttt,
		rps:    rps,
		find:   find,
		logger: logger,
	}
}

// Dispatch 處理一個入站事件
//
// 任何解析失敗、欄位缺漏或未知事件都視為無效操作直接丟棄；
// 事件處理絕不讓 panic 外洩到傳輸層。
func (r *Router) Dispatch(connID string, message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		r.logger.Debug("無法解析事件信封", "conn_id", connID, "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("處理事件時發生 panic",
				"event", env.Event,
				"conn_id", connID,
				"error", rec)
		}
	}()

	switch env.Event {
	case EvtRoomJoin:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.ttt.Join(connID, req.RoomID)
		}
	case EvtRoomStartBot:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.ttt.StartBot(connID, req.RoomID)
		}
	case EvtGameMove:
		var req moveRequest
		if r.decode(env, &req) && req.RoomID != "" && req.Index != nil {
			r.ttt.Move(connID, req.RoomID, *req.Index)
		}
	case EvtGameReset:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.ttt.Reset(req.RoomID)
		}
	case EvtRPSJoin:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.rps.Join(connID, req.RoomID)
		}
	case EvtRPSChoose:
		var req chooseRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.rps.Choose(connID, req.RoomID, req.Choice)
		}
	case EvtRPSReset:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.rps.Reset(req.RoomID)
		}
	case EvtFindJoin:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.find.Join(connID, req.RoomID)
		}
	case EvtFindClick:
		var req clickRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.find.Click(connID, req.RoomID, req.Num)
		}
	case EvtFindReset:
		var req roomRequest
		if r.decode(env, &req) && req.RoomID != "" {
			r.find.Reset(req.RoomID)
		}
	default:
		r.logger.Debug("收到未知事件", "event", env.Event, "conn_id", connID)
	}
}

// Disconnect 連線中斷：在同一把鎖內掃過三個遊戲的所有房間做清理
func (r *Router) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ttt.Disconnect(connID)
	r.rps.Disconnect(connID)
	r.find.Disconnect(connID)
}

// Stats 各遊戲目前的房間數
//
// 機器人房不會因為清空而刪除，這裡讓這條無上限成長路徑至少可被觀察。
func (r *Router) Stats() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]any{
		"tictactoe_rooms":  r.ttt.RoomCount(),
		"rps_rooms":        r.rps.RoomCount(),
		"findnumber_rooms": r.find.RoomCount(),
	}
}

// decode 解析事件負載，失敗記 Debug 後丟棄
func (r *Router) decode(env Envelope, dst any) bool {
	if err := json.Unmarshal(env.Data, dst); err != nil {
		r.logger.Debug("無法解析事件負載",
			"event", env.Event,
			"error", err)
		return false
	}
	return true
}
