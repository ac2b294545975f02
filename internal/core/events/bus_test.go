package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/store-auth/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventBus", func() {
	var (
		bus *events.EventBus
		ctx context.Context
		at  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		at = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("fans out asynchronously and Wait drains handlers", func() {
		var calls atomic.Int32
		for i := 0; i < 3; i++ {
			bus.Subscribe(events.EventTypeUserLoggedIn, func(context.Context, events.Event) error {
				calls.Add(1)
				return nil
			})
		}

		Expect(bus.Publish(ctx, events.NewUserLoggedInEvent("u1", "admin", at))).To(Succeed())
		Expect(bus.Wait(ctx)).To(Succeed())
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("swallows asynchronous handler errors", func() {
		bus.Subscribe(events.EventTypeUserLoggedOut, func(context.Context, events.Event) error {
			return errors.New("boom")
		})
		Expect(bus.Publish(ctx, events.NewUserLoggedOutEvent("u1", at))).To(Succeed())
		Expect(bus.Wait(ctx)).To(Succeed())
	})

	It("ignores events nobody subscribed to", func() {
		Expect(bus.Publish(ctx, events.NewUserLoggedOutEvent("u1", at))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewUserLoggedOutEvent("u1", at))).To(Succeed())
	})

	It("stops PublishSync at the first failing handler", func() {
		var second bool
		bus.Subscribe(events.EventTypeEmailVerified, func(context.Context, events.Event) error {
			return errors.New("smtp down")
		})
		bus.Subscribe(events.EventTypeEmailVerified, func(context.Context, events.Event) error {
			second = true
			return nil
		})

		err := bus.PublishSync(ctx, events.NewEmailVerifiedEvent("u1", "a@example.com", at))
		Expect(err).To(MatchError(ContainSubstring("smtp down")))
		Expect(second).To(BeFalse())
	})

	It("gives up waiting when the context ends", func() {
		release := make(chan struct{})
		DeferCleanup(func() { close(release) })
		bus.Subscribe(events.EventTypeUserLoggedIn, func(context.Context, events.Event) error {
			<-release
			return nil
		})
		Expect(bus.Publish(ctx, events.NewUserLoggedInEvent("u1", "admin", at))).To(Succeed())

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		Expect(bus.Wait(waitCtx)).To(MatchError(context.DeadlineExceeded))
	})

	It("refuses publishes once draining has started", func() {
		var calls atomic.Int32
		bus.Subscribe(events.EventTypeUserLoggedIn, func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		})

		Expect(bus.Wait(ctx)).To(Succeed())
		Expect(bus.Publish(ctx, events.NewUserLoggedInEvent("u1", "admin", at))).To(MatchError(events.ErrBusClosed))
		Expect(bus.Wait(ctx)).To(Succeed())
		Expect(calls.Load()).To(BeZero())
	})

	It("drains every accepted publish when shutdown races with publishers", func() {
		var calls atomic.Int32
		bus.Subscribe(events.EventTypeUserLoggedIn, func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		})

		var (
			wg       sync.WaitGroup
			accepted atomic.Int32
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if bus.Publish(ctx, events.NewUserLoggedInEvent("u1", "admin", at)) == nil {
					accepted.Add(1)
				}
			}()
		}
		Expect(bus.Wait(ctx)).To(Succeed())
		drained := calls.Load()
		wg.Wait()

		Expect(drained).To(Equal(calls.Load()))
		Expect(calls.Load()).To(Equal(accepted.Load()))
	})

	It("builds events with ids, timestamps and payloads", func() {
		e := events.NewStoreOwnerCreatedEvent("u1", "o@example.com", "Store Owner", "owner", "pw", "https://x/verify", at)
		Expect(e.EventType()).To(Equal(events.EventTypeStoreOwnerCreated))
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.OccurredAt()).To(Equal(at))
		Expect(e.Payload()).To(HaveKeyWithValue("email", "o@example.com"))
		Expect(e.Payload()).NotTo(HaveKey("temporary_password"))

		other := events.NewStoreOwnerCreatedEvent("u1", "o@example.com", "", "", "", "", at)
		Expect(other.EventID()).NotTo(Equal(e.EventID()))
	})
})
