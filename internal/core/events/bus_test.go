package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventBus", func() {
	var bus *EventBus

	BeforeEach(func() {
		bus = NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("delivers published events to every subscribed handler", func() {
		var calls atomic.Int32
		bus.SubscribeAll([]string{ExpenseCreated, CategoryAdded}, func(ctx context.Context, e Event) error {
			calls.Add(1)
			return nil
		})

		Expect(bus.Publish(context.Background(), NewEvent(ExpenseCreated, nil))).To(Succeed())
		Expect(bus.Publish(context.Background(), NewEvent(CategoryAdded, nil))).To(Succeed())

		Eventually(calls.Load).Should(BeEquivalentTo(2))
	})

	It("runs async handlers after the publishing context is cancelled", func() {
		done := make(chan error, 1)
		bus.Subscribe(UserCreated, func(ctx context.Context, e Event) error {
			done <- ctx.Err()
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, NewEvent(UserCreated, nil))).To(Succeed())
		cancel()

		Eventually(done).Should(Receive(BeNil()))
	})

	It("returns the first handler error from PublishSync", func() {
		bus.Subscribe(CategoryDeleted, func(ctx context.Context, e Event) error {
			return errors.New("boom")
		})

		err := bus.PublishSync(context.Background(), NewEvent(CategoryDeleted, nil))
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("ignores events nobody subscribed to", func() {
		Expect(bus.PublishSync(context.Background(), NewEvent("unknown", nil))).To(Succeed())
	})
})

var _ = Describe("RedisBridge envelopes", func() {
	var (
		local  *RedisBridge
		remote *RedisBridge
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		local = NewRedisBridge(nil, "payable:changes", lg)
		remote = NewRedisBridge(nil, "payable:changes", lg)
	})

	It("hands events from other instances to the caller", func() {
		payload, err := remote.encode(NewEvent(ExpenseStatusChanged, map[string]interface{}{"id": "exp-1"}))
		Expect(err).NotTo(HaveOccurred())

		ev, ok := local.decode(payload)
		Expect(ok).To(BeTrue())
		Expect(ev.Type).To(Equal(ExpenseStatusChanged))
		Expect(ev.Data).To(HaveKeyWithValue("id", "exp-1"))
	})

	It("drops its own echoes", func() {
		payload, err := local.encode(NewEvent(ExpenseCreated, nil))
		Expect(err).NotTo(HaveOccurred())

		_, ok := local.decode(payload)
		Expect(ok).To(BeFalse())
	})

	It("drops malformed payloads", func() {
		_, ok := local.decode("{not json")
		Expect(ok).To(BeFalse())
	})
})
