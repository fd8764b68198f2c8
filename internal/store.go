package internal

// Store 房間儲存
//
// 系統設計考量：
//
//  1. 獨立 keyspace：每種遊戲持有自己的 Store 實例，
//     同一個 roomID 在井字棋與猜拳的儲存中互不衝突。
//
//  2. 延遲建立：房間在第一次被引用時以預設狀態建立（GetOrCreate 冪等），
//     其他元件只持有 roomID，每次操作時重新查詢，
//     避免跨事件的過期引用造成狀態競態。
//
//  3. 不加鎖：所有變更都在 Router 的同一把鎖內序列化執行（參見 router.go），
//     Store 本身只是同步的記憶體 map 操作。
type Store[T any] struct {
	rooms   map[string]T
	factory func() T
}

// NewStore 建立房間儲存，factory 產生房間的預設狀態
func NewStore[T any](factory func() T) *Store[T] {
	return &Store[T]{
		rooms:   make(map[string]T),
		factory: factory,
	}
}

// GetOrCreate 取得房間，不存在則建立
func (s *Store[T]) GetOrCreate(roomID string) T {
	if room, ok := s.rooms[roomID]; ok {
		return room
	}
	room := s.factory()
	s.rooms[roomID] = room
	return room
}

// Get 取得房間，不觸發建立
func (s *Store[T]) Get(roomID string) (T, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

// Delete 移除房間
func (s *Store[T]) Delete(roomID string) {
	delete(s.rooms, roomID)
}

// Len 目前房間數
func (s *Store[T]) Len() int {
	return len(s.rooms)
}

// Range 遍歷所有房間，fn 回傳 false 時中止；遍歷中允許刪除當前房間
func (s *Store[T]) Range(fn func(roomID string, room T) bool) {
	for roomID, room := range s.rooms {
		if !fn(roomID, room) {
			return
		}
	}
}
