package consume

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ordercore/internal/platform/kafka/consumer"
)

type RetrySuite struct {
	suite.Suite
	msg *consumer.Message
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}

func (s *RetrySuite) SetupTest() {
	s.msg = &consumer.Message{Topic: "payments.events", Partition: 0, Offset: 42}
}

func (s *RetrySuite) policy() RetryPolicy {
	// Same bound as production, shorter delay to keep the suite fast.
	return RetryPolicy{Attempts: 3, Delay: time.Millisecond}
}

func (s *RetrySuite) TestTransientFailureThenSuccess() {
	calls := 0
	h := Retry(s.policy(), nil)(func(context.Context, *consumer.Message) error {
		calls++
		if calls < 3 {
			return context.DeadlineExceeded
		}
		return nil
	})

	s.Require().NoError(h(context.Background(), s.msg))
	s.Equal(3, calls, "two transient failures then success consumes three attempts")
}

func (s *RetrySuite) TestTransientExhaustion() {
	calls := 0
	h := Retry(s.policy(), nil)(func(context.Context, *consumer.Message) error {
		calls++
		return context.DeadlineExceeded
	})

	err := h(context.Background(), s.msg)
	s.Require().ErrorIs(err, context.DeadlineExceeded, "last transient error is rethrown")
	s.Equal(3, calls)
}

func (s *RetrySuite) TestNonTransientPropagatesImmediately() {
	permanent := errors.New("schema mismatch")
	calls := 0
	h := Retry(s.policy(), nil)(func(context.Context, *consumer.Message) error {
		calls++
		return permanent
	})

	err := h(context.Background(), s.msg)
	s.Require().ErrorIs(err, permanent)
	s.Equal(1, calls, "non-transient failures never retry")
}

func (s *RetrySuite) TestCancellationCountsAsTransient() {
	calls := 0
	h := Retry(s.policy(), nil)(func(context.Context, *consumer.Message) error {
		calls++
		return context.Canceled
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h(ctx, s.msg)
	s.Require().ErrorIs(err, context.Canceled)
	s.Equal(3, calls, "cancellation burns through the full bound, failing fast")
}

func (s *RetrySuite) TestWrappedTransientError() {
	calls := 0
	h := Retry(s.policy(), nil)(func(context.Context, *consumer.Message) error {
		calls++
		if calls == 1 {
			return errors.Join(errors.New("publish result"), context.DeadlineExceeded)
		}
		return nil
	})

	s.Require().NoError(h(context.Background(), s.msg))
	s.Equal(2, calls)
}
