package publisher

import (
	"testing"
	"time"
)

func TestBreaker(t *testing.T) {
	t.Run("closed allows", func(t *testing.T) {
		b := NewBreaker(3, time.Minute)
		if !b.Allow() {
			t.Fatal("fresh breaker must allow")
		}
	})

	t.Run("opens after threshold failures", func(t *testing.T) {
		b := NewBreaker(3, time.Minute)
		for i := 0; i < 3; i++ {
			b.OnFailure()
		}
		if b.Allow() {
			t.Fatal("expected open breaker to refuse")
		}
	})

	t.Run("success resets the failure run", func(t *testing.T) {
		b := NewBreaker(3, time.Minute)
		b.OnFailure()
		b.OnFailure()
		b.OnSuccess()
		b.OnFailure()
		b.OnFailure()
		if !b.Allow() {
			t.Fatal("run of failures was broken, breaker must stay closed")
		}
	})

	t.Run("single probe after open window", func(t *testing.T) {
		b := NewBreaker(1, 10*time.Millisecond)
		b.OnFailure()
		if b.Allow() {
			t.Fatal("expected refusal right after tripping")
		}

		time.Sleep(20 * time.Millisecond)
		if !b.Allow() {
			t.Fatal("expected one probe after the open window")
		}
		if b.Allow() {
			t.Fatal("expected second concurrent probe to be refused")
		}
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		b := NewBreaker(1, 10*time.Millisecond)
		b.OnFailure()
		time.Sleep(20 * time.Millisecond)
		if !b.Allow() {
			t.Fatal("expected a probe")
		}
		b.OnFailure()
		if b.Allow() {
			t.Fatal("expected reopen after failed probe")
		}
	})

	t.Run("successful probe closes", func(t *testing.T) {
		b := NewBreaker(1, 10*time.Millisecond)
		b.OnFailure()
		time.Sleep(20 * time.Millisecond)
		if !b.Allow() {
			t.Fatal("expected a probe")
		}
		b.OnSuccess()
		if !b.Allow() {
			t.Fatal("expected closed breaker after successful probe")
		}
	})
}
