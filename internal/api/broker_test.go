package api

import (
	"testing"
	"time"

	"fleetplan/internal/model"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	pid := "p1"
	ch := b.Subscribe(pid)

	evt := model.PlanEvent{Type: "plan.completed", Data: map[string]any{"planId": pid}}
	b.Publish(pid, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["planId"] != pid {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(pid, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerIsolatesPlans(t *testing.T) {
	b := NewBroker()
	chA := b.Subscribe("a")
	chB := b.Subscribe("b")
	defer b.Unsubscribe("a", chA)
	defer b.Unsubscribe("b", chB)

	b.Publish("a", model.PlanEvent{Type: "plan.completed"})

	select {
	case <-chA:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("subscriber for plan a got nothing")
	}
	select {
	case evt := <-chB:
		t.Fatalf("plan b subscriber received %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("p")
	defer b.Unsubscribe("p", ch)
	// buffer is 8; the extras must not block Publish
	for i := 0; i < 20; i++ {
		b.Publish("p", model.PlanEvent{Type: "plan.completed"})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer holds %d, want %d", len(ch), cap(ch))
	}
}
