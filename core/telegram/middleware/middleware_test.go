package middleware

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	return bot.NewContext(tele.Update{
		ID: 1,
		Message: &tele.Message{
			ID:     10,
			Text:   "hi",
			Sender: &tele.User{ID: 5},
			Chat:   &tele.Chat{ID: 5, Type: tele.ChatPrivate},
		},
	})
}

func TestRecoverSwallowsPanic(t *testing.T) {
	h := Recover(func(tele.Context) error { panic("boom") })
	if err := h(newContext(t)); err != nil {
		t.Fatalf("expected nil error after panic, got %v", err)
	}
}

func TestRecoverPassesErrors(t *testing.T) {
	want := errors.New("plain")
	h := Recover(func(tele.Context) error { return want })
	if err := h(newContext(t)); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoggerCallsNext(t *testing.T) {
	called := false
	h := Logger(func(tele.Context) error { called = true; return nil })
	if err := h(newContext(t)); err != nil || !called {
		t.Fatalf("called=%v err=%v", called, err)
	}
}

func TestLimitBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	h := Limit(2)(func(tele.Context) error {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return nil
	})
	c := newContext(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h(c)
		}()
	}
	wg.Wait()
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak.Load())
	}
}
