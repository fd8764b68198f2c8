// Package minigamerooms 是一個即時多人小遊戲房間服務器。
//
// 客戶端透過持久的 WebSocket 事件通道連線，以字串鍵加入具名房間，
// 交換回合制的小型遊戲狀態。內建三種遊戲：
//
// 井字棋（Tic-Tac-Toe）
//
// 兩位玩家依加入順序拿 X / O，伺服器驗證回合與落格，
// 每次落子後從整個棋盤重新計算勝負（8 條固定連線）。
// 可選的機器人模式：真人落子後，機器人在同一個事件處理內
// 於空格中均勻隨機回手，兩次廣播依序送達、不合併。
//
// 猜拳（Rock Paper Scissors）
//
// 兩個席位（A / B）同時出拳。雙方都提交前，任何廣播只帶
// 已出拳「數量」；雙方到齊的那一刻計算一次結果並廣播揭曉事件，
// 保證不存在部分揭示。
//
// 搶數字（Find Number）
//
// 每個房間一組 1..N 的亂序數字，只有「下一個」數字可被認領，
// 搶錯一律靜默丟棄。全部搶完後認領數嚴格較多者勝，平手為 Draw。
//
// 架構設計
//
// 系統採用分層架構：
//   - Hub 層：WebSocket 連線與廣播群組管理（傳輸層指派連線 ID）
//   - Router 層：事件信封解析、請求驗證、序列化派發
//   - 協調器層：每種遊戲一個協調器，持有自己的房間儲存
//   - Store 層：每種遊戲獨立 keyspace 的記憶體房間儲存
//
// 並發模型
//
// 單執行緒協作式事件處理：Router 用一把鎖序列化所有入站事件
// 與斷線通知，協調器與 Store 不需要自己的鎖。
// 非法操作（搶格、搶拍、搶數字落敗的一方）自然落入 no-op 分支。
//
// 生命週期
//
// 房間在第一次被引用時建立，真人數歸零時刪除；
// 例外是啟用機器人的井字棋房間會保留（可重複使用），
// 這是一條已知的無上限成長路徑，/stats 端點讓它可被觀察。
// 所有狀態只存活於進程生命週期，不做持久化。
//
// 配置選項
//
// 支援的運行時配置：
//   - -port：服務監聽端口（預設 3001）
//   - -log-level：日誌級別（debug/info/warn/error）
//   - -log-format：日誌格式（text/json）
//   - -find-board-size：搶數字的數字總量（預設 20）
package minigamerooms
