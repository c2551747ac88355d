package notify

import "testing"

func TestQueue_Drain(t *testing.T) {
	q := NewQueue(10)
	q.Notify(LevelWarning, "image 2 could not be loaded")
	q.Notify(LevelSuccess, "PDF generated successfully!")

	if q.Len() != 2 {
		t.Fatalf("expected 2 notices, got %d", q.Len())
	}

	got := q.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 drained notices, got %d", len(got))
	}
	if got[0].Level != LevelWarning || got[1].Level != LevelSuccess {
		t.Errorf("unexpected order: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Error("expected timestamp to be set")
	}

	if again := q.Drain(); len(again) != 0 {
		t.Errorf("expected empty queue after drain, got %d", len(again))
	}
}

func TestQueue_DropsOldest(t *testing.T) {
	q := NewQueue(2)
	q.Notify(LevelInfo, "one")
	q.Notify(LevelInfo, "two")
	q.Notify(LevelInfo, "three")

	got := q.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(got))
	}
	if got[0].Message != "two" || got[1].Message != "three" {
		t.Errorf("expected [two three], got [%s %s]", got[0].Message, got[1].Message)
	}
}

func TestFunc(t *testing.T) {
	var level Level
	var msg string
	var n Notifier = Func(func(l Level, m string) {
		level, msg = l, m
	})

	n.Notify(LevelError, "boom")
	if level != LevelError || msg != "boom" {
		t.Errorf("expected error/boom, got %s/%s", level, msg)
	}

	Discard.Notify(LevelError, "ignored")
}
