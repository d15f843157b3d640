package consumer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ordercore/internal/orders/models"
	ordersvc "ordercore/internal/orders/service"
	"ordercore/internal/orders/service/mocks"
	platformconsumer "ordercore/internal/platform/kafka/consumer"
	"ordercore/pkg/platform/consume"
	"ordercore/pkg/platform/executor"
	"ordercore/pkg/platform/faults"
	"ordercore/pkg/platform/interceptor"
	"ordercore/pkg/requestcontext"
)

type PaymentsSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	exec    *mocks.MockExecutor
	store   *mocks.MockStore
	handler *Payments
}

func TestPaymentsSuite(t *testing.T) {
	suite.Run(t, new(PaymentsSuite))
}

func (s *PaymentsSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.exec = mocks.NewMockExecutor(s.ctrl)
	s.store = mocks.NewMockStore(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ordersvc.New(s.exec, s.store, logger)
	s.handler = NewPayments(svc, logger)
}

func (s *PaymentsSuite) message(evt PaymentSettled) *platformconsumer.Message {
	value, err := json.Marshal(evt)
	s.Require().NoError(err)
	return &platformconsumer.Message{
		Topic:   "payments.events",
		Value:   value,
		Headers: map[string]string{consume.CorrelationHeader: "corr-123"},
	}
}

func (s *PaymentsSuite) TestSettlementMarksOrderPaid() {
	order, err := models.NewOrder(uuid.New(), 2500, "EUR", time.Now().UTC())
	s.Require().NoError(err)
	order.DrainEvents()
	paymentID := uuid.New()

	s.store.EXPECT().FindByID(gomock.Any(), order.ID).Return(order, nil)
	s.exec.EXPECT().
		Execute(gomock.Any(), ordersvc.ActionMarkOrderPaid,
			executor.Options{EnsureIdempotence: true}, gomock.Any()).
		DoAndReturn(func(ctx context.Context, name string, opts executor.Options, action executor.Action) error {
			s.Equal(paymentID, requestcontext.RequestID(ctx),
				"payment id seeds the request id")
			s.Equal("corr-123", requestcontext.CorrelationID(ctx))
			return action(ctx, interceptor.NewChangeSet())
		})

	err = s.handler.Handle(context.Background(), s.message(PaymentSettled{
		PaymentID: paymentID,
		OrderID:   order.ID,
		SettledAt: time.Now().UTC(),
	}))
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPaid, order.Status)
}

func (s *PaymentsSuite) TestRedeliveryIsAcknowledged() {
	s.exec.EXPECT().
		Execute(gomock.Any(), ordersvc.ActionMarkOrderPaid, gomock.Any(), gomock.Any()).
		Return(faults.ErrIdempotenceConflict)

	err := s.handler.Handle(context.Background(), s.message(PaymentSettled{
		PaymentID: uuid.New(),
		OrderID:   uuid.New(),
	}))
	s.Require().NoError(err, "a duplicate delivery commits the offset")
}

func (s *PaymentsSuite) TestUnknownOrderIsAcknowledged() {
	s.exec.EXPECT().
		Execute(gomock.Any(), ordersvc.ActionMarkOrderPaid, gomock.Any(), gomock.Any()).
		Return(faults.ErrNotFound)

	err := s.handler.Handle(context.Background(), s.message(PaymentSettled{
		PaymentID: uuid.New(),
		OrderID:   uuid.New(),
	}))
	s.Require().NoError(err)
}

func (s *PaymentsSuite) TestMalformedPayloadIsDropped() {
	msg := &platformconsumer.Message{Topic: "payments.events", Value: []byte("{not json")}

	s.Require().NoError(s.handler.Handle(context.Background(), msg))
}

func (s *PaymentsSuite) TestMissingIDsAreDropped() {
	err := s.handler.Handle(context.Background(), s.message(PaymentSettled{}))
	s.Require().NoError(err)
}

func (s *PaymentsSuite) TestOtherFailuresPropagateForRetry() {
	s.exec.EXPECT().
		Execute(gomock.Any(), ordersvc.ActionMarkOrderPaid, gomock.Any(), gomock.Any()).
		Return(context.DeadlineExceeded)

	err := s.handler.Handle(context.Background(), s.message(PaymentSettled{
		PaymentID: uuid.New(),
		OrderID:   uuid.New(),
	}))
	s.Require().Error(err)
	s.True(faults.IsTransient(err))
}
