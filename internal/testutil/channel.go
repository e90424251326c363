// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/speedwagon-io/relicwatch/internal/model"
	"github.com/speedwagon-io/relicwatch/internal/transport"
)

// FakeChannel records every message and answers Send with the error
// returned by SendResult (nil acks).
type FakeChannel struct {
	mu         sync.Mutex
	sent       []*model.Message
	posted     []*model.Message
	handler    transport.Handler
	SendResult func(msg *model.Message) error
	PostErr    error
	notify     chan struct{}
}

func NewFakeChannel() *FakeChannel {
	return &FakeChannel{notify: make(chan struct{}, 1024)}
}

func (f *FakeChannel) Send(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	result := f.SendResult
	f.mu.Unlock()
	f.signal()

	if result == nil {
		return nil
	}
	return result(msg)
}

func (f *FakeChannel) Post(_ context.Context, msg *model.Message) error {
	f.mu.Lock()
	defer f.signal()
	defer f.mu.Unlock()
	if f.PostErr != nil {
		return f.PostErr
	}
	f.posted = append(f.posted, msg)
	return nil
}

func (f *FakeChannel) signal() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *FakeChannel) Subscribe(h transport.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	return nil
}

func (f *FakeChannel) Connected() bool { return true }

func (f *FakeChannel) Close() error { return nil }

// Deliver simulates a message arriving from the watch.
func (f *FakeChannel) Deliver(msg *model.Message) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(msg)
	}
}

func (f *FakeChannel) Sent() []*model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Message(nil), f.sent...)
}

func (f *FakeChannel) Posted() []*model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Message(nil), f.posted...)
}

// Activity fires after every Send or Post.
func (f *FakeChannel) Activity() <-chan struct{} {
	return f.notify
}
