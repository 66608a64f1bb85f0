package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/boxingcrm/crm/domain"
	"github.com/m3rciful/boxingcrm/crm/storage/memory"

	tele "gopkg.in/telebot.v4"
)

type fakeSender struct {
	mu   sync.Mutex
	fail map[int64]bool
	got  []int64
}

func (f *fakeSender) Send(_ context.Context, chatID int64, _ string, opts *tele.SendOptions) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, chatID)
	return !f.fail[chatID]
}

type sleepLog struct{ delays []time.Duration }

func (s *sleepLog) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func seedParents(t *testing.T, s *memory.Store, tgIDs ...string) {
	t.Helper()
	err := s.InTx(context.Background(), func(tx domain.Tx) error {
		for _, id := range tgIDs {
			if err := tx.CreateParent(context.Background(), &domain.Parent{TgID: id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestBroadcastPagesAndCounts(t *testing.T) {
	store := memory.New(nil)
	seedParents(t, store, "11", "12", "abc", "13", "14")
	sender := &fakeSender{fail: map[int64]bool{13: true}}
	sl := &sleepLog{}
	c := New(store, sender, Options{PageSize: 2, Sleep: sl.sleep})

	res, err := c.Broadcast(context.Background(), domain.AudienceParents, "hello")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if res.Sent != 3 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	want := []int64{11, 12, 13, 14}
	if len(sender.got) != len(want) {
		t.Fatalf("sent to %v", sender.got)
	}
	for i := range want {
		if sender.got[i] != want[i] {
			t.Fatalf("sent to %v, want %v", sender.got, want)
		}
	}
	wantDelays := []time.Duration{DefaultSuccessDelay, DefaultSuccessDelay, DefaultFailureDelay, DefaultSuccessDelay}
	for i, d := range wantDelays {
		if sl.delays[i] != d {
			t.Fatalf("delays = %v", sl.delays)
		}
	}
}

func TestBroadcastEmptyTextAndUnknownAudience(t *testing.T) {
	store := memory.New(nil)
	seedParents(t, store, "11")
	sender := &fakeSender{}
	c := New(store, sender, Options{Sleep: (&sleepLog{}).sleep})

	res, err := c.Broadcast(context.Background(), domain.AudienceParents, "   ")
	if err != nil || res != (Result{}) || len(sender.got) != 0 {
		t.Fatalf("empty text: res=%+v err=%v sent=%v", res, err, sender.got)
	}
	if _, err := c.Broadcast(context.Background(), domain.Audience("coaches"), "hi"); !errors.Is(err, domain.ErrUnknownAudience) {
		t.Fatalf("unknown audience err = %v", err)
	}
}

func TestBroadcastChildrenAudience(t *testing.T) {
	store := memory.New(nil)
	seedParents(t, store, "11")
	parentID := store.Parents()[0].ID
	err := store.InTx(context.Background(), func(tx domain.Tx) error {
		ctx := context.Background()
		for i, tok := range []string{"tok1", "tok2"} {
			c := &domain.Child{ParentID: parentID, Name: "kid", Age: 10, Token: tok}
			if err := tx.CreateChild(ctx, c); err != nil {
				return err
			}
			if i == 0 {
				if err := tx.BindChild(ctx, c.ID, "55"); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed children: %v", err)
	}
	sender := &fakeSender{}
	res, err := New(store, sender, Options{Sleep: (&sleepLog{}).sleep}).Broadcast(context.Background(), domain.AudienceChildren, "hi")
	if err != nil || res.Sent != 1 || len(sender.got) != 1 || sender.got[0] != 55 {
		t.Fatalf("children: res=%+v err=%v sent=%v", res, err, sender.got)
	}
}

func TestBroadcastStopsOnCancel(t *testing.T) {
	store := memory.New(nil)
	seedParents(t, store, "11", "12", "13")
	sender := &fakeSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	sleep := func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
			return ctx.Err()
		}
		return nil
	}
	res, err := New(store, sender, Options{Sleep: sleep}).Broadcast(ctx, domain.AudienceParents, "hi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if res.Sent != 2 || len(sender.got) != 2 {
		t.Fatalf("partial result = %+v sent=%v", res, sender.got)
	}
}
