package internal_test

import (
	"testing"

	"github.com/koopa0/system-design/14-minigame-rooms/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouterStack() (*recordingSender, *internal.Router) {
	sender := newRecordingSender()
	logger := testLogger()
	ttt := internal.NewTicTacToe(sender, internal.NewBot(testRNG(1)), logger)
	rps := internal.NewRPS(sender, logger)
	find := internal.NewFindNumber(sender, testRNG(7), 4, logger)
	return sender, internal.NewRouter(ttt, rps, find, logger)
}

// TestRouter_Dispatch 測試事件派發
func TestRouter_Dispatch(t *testing.T) {
	t.Run("routes join to the right game", func(t *testing.T) {
		sender, router := newRouterStack()

		router.Dispatch("c1", []byte(`{"event":"room:join","data":{"roomId":"r1"}}`))
		_, ok := sender.last(internal.EvtRoomJoined)
		assert.True(t, ok)

		router.Dispatch("c1", []byte(`{"event":"rps:join","data":{"roomId":"r1"}}`))
		_, ok = sender.last(internal.EvtRPSJoined)
		assert.True(t, ok)

		router.Dispatch("c1", []byte(`{"event":"find:join","data":{"roomId":"r1"}}`))
		_, ok = sender.last(internal.EvtFindJoined)
		assert.True(t, ok)

		// 同名房間各自獨立
		stats := router.Stats()
		assert.Equal(t, 1, stats["tictactoe_rooms"])
		assert.Equal(t, 1, stats["rps_rooms"])
		assert.Equal(t, 1, stats["findnumber_rooms"])
	})

	t.Run("full game flow over raw events", func(t *testing.T) {
		sender, router := newRouterStack()
		router.Dispatch("c1", []byte(`{"event":"room:join","data":{"roomId":"r1"}}`))
		router.Dispatch("c2", []byte(`{"event":"room:join","data":{"roomId":"r1"}}`))
		sender.clear()

		router.Dispatch("c1", []byte(`{"event":"game:move","data":{"roomId":"r1","index":4}}`))
		update, ok := sender.last(internal.EvtGameUpdate)
		require.True(t, ok)
		state := update.payload.(internal.TTTUpdate)
		assert.Equal(t, internal.MarkX, state.Board[4])

		router.Dispatch("c1", []byte(`{"event":"game:reset","data":{"roomId":"r1"}}`))
		update, _ = sender.last(internal.EvtGameUpdate)
		assert.Equal(t, make([]internal.Mark, 9), update.payload.(internal.TTTUpdate).Board)
	})

	t.Run("move without index is dropped", func(t *testing.T) {
		sender, router := newRouterStack()
		router.Dispatch("c1", []byte(`{"event":"room:join","data":{"roomId":"r1"}}`))
		router.Dispatch("c2", []byte(`{"event":"room:join","data":{"roomId":"r1"}}`))
		sender.clear()

		// 缺 index 欄位不能被當成落在 0 號格
		router.Dispatch("c1", []byte(`{"event":"game:move","data":{"roomId":"r1"}}`))
		assert.Empty(t, sender.messages)

		// 0 號格仍然是空的，正常落子成功
		router.Dispatch("c1", []byte(`{"event":"game:move","data":{"roomId":"r1","index":0}}`))
		update, ok := sender.last(internal.EvtGameUpdate)
		require.True(t, ok)
		assert.Equal(t, internal.MarkX, update.payload.(internal.TTTUpdate).Board[0])
	})

	t.Run("malformed input never mutates or panics", func(t *testing.T) {
		tests := []struct {
			name    string
			message string
		}{
			{"truncated json", `{"event":"room:join","data":`},
			{"not an object", `"room:join"`},
			{"unknown event", `{"event":"room:launch","data":{"roomId":"r1"}}`},
			{"missing payload", `{"event":"room:join"}`},
			{"missing room id", `{"event":"room:join","data":{}}`},
			{"wrong field type", `{"event":"game:move","data":{"roomId":"r1","index":"four"}}`},
			{"wrong choice type", `{"event":"rps:choose","data":{"roomId":"r1","choice":7}}`},
			{"empty message", ``},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				sender, router := newRouterStack()
				require.NotPanics(t, func() {
					router.Dispatch("c1", []byte(tt.message))
				})
				assert.Empty(t, sender.messages)
			})
		}
	})
}

// TestRouter_Disconnect 測試跨遊戲的斷線清理
func TestRouter_Disconnect(t *testing.T) {
	sender, router := newRouterStack()

	// 同一條連線加入三種遊戲的房間
	router.Dispatch("c1", []byte(`{"event":"room:join","data":{"roomId":"r1"}}`))
	router.Dispatch("c1", []byte(`{"event":"rps:join","data":{"roomId":"r1"}}`))
	router.Dispatch("c1", []byte(`{"event":"find:join","data":{"roomId":"r1"}}`))
	sender.clear()

	router.Disconnect("c1")

	stats := router.Stats()
	assert.Equal(t, 0, stats["tictactoe_rooms"])
	assert.Equal(t, 0, stats["rps_rooms"])
	assert.Equal(t, 0, stats["findnumber_rooms"])
}
