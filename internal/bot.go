package internal

import "math/rand/v2"

// Bot 井字棋的合成對手
//
// 隨機源由外部注入（可設定種子），測試因此可以完全重現落子序列。
type Bot struct {
	rng *rand.Rand
}

// NewBot 建立機器人
func NewBot(rng *rand.Rand) *Bot {
	return &Bot{rng: rng}
}

// Move 在空格中均勻隨機挑一格落子
//
// 棋盤已滿時不改動棋盤並回傳 false。正常流程不會走到這裡，
// 因為勝負與和局判定在呼叫前已經執行過。
func (b *Bot) Move(board []Mark, mark Mark) bool {
	var empty []int
	for i, cell := range board {
		if cell == MarkEmpty {
			empty = append(empty, i)
		}
	}
	if len(empty) == 0 {
		return false
	}

	board[empty[b.rng.IntN(len(empty))]] = mark
	return true
}
