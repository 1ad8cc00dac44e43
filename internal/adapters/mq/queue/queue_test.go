package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func noop(context.Context) (any, error) { return nil, nil }

func TestInMemoryQueue(t *testing.T) {
	convey.Convey("Given a queue with capacity 2", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		convey.So(q.Len(ctx), convey.ShouldEqual, 0)
		convey.So(q.Capacity(), convey.ShouldEqual, 2)

		convey.Convey("Jobs come out in order with an enqueue time", func() {
			a, b := NewJob(ctx, "a", noop), NewJob(ctx, "b", noop)
			convey.So(q.Enqueue(ctx, a), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, b), convey.ShouldBeNil)
			convey.So(q.Len(ctx), convey.ShouldEqual, 2)

			got := <-q.Dequeue(ctx)
			convey.So(got.Kind, convey.ShouldEqual, "a")
			convey.So(got.EnqueuedAt.IsZero(), convey.ShouldBeFalse)
			convey.So(q.Len(ctx), convey.ShouldEqual, 1)
		})

		convey.Convey("A full queue refuses without blocking", func() {
			convey.So(q.Enqueue(ctx, NewJob(ctx, "a", noop)), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, NewJob(ctx, "b", noop)), convey.ShouldBeNil)
			err := q.Enqueue(ctx, NewJob(ctx, "c", noop))
			convey.So(errors.Is(err, ErrFull), convey.ShouldBeTrue)
		})

		convey.Convey("A cancelled caller is refused", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := q.Enqueue(cctx, NewJob(cctx, "a", noop))
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
		})

		convey.Convey("Closing keeps queued jobs and refuses new ones", func() {
			convey.So(q.Enqueue(ctx, NewJob(ctx, "a", noop)), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)

			err := q.Enqueue(ctx, NewJob(ctx, "b", noop))
			convey.So(errors.Is(err, ErrClosed), convey.ShouldBeTrue)

			var kinds []string
			for j := range q.Dequeue(ctx) {
				kinds = append(kinds, j.Kind)
			}
			convey.So(kinds, convey.ShouldResemble, []string{"a"})
		})
	})
}

func TestJobCompletesOnce(t *testing.T) {
	convey.Convey("Given a job", t, func() {
		j := NewJob(context.Background(), "k", noop)
		convey.So(j.ID, convey.ShouldNotBeEmpty)

		j.Complete(Result{Value: 1})
		j.Complete(Result{Value: 2})

		r := <-j.Done()
		convey.So(r.Value, convey.ShouldEqual, 1)
		select {
		case <-j.Done():
			t.Fatal("second result delivered")
		default:
		}
	})
}
