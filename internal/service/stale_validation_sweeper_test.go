package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"veriform/internal/domain"
	"veriform/internal/service"
	"veriform/mocks"
)

func TestStaleValidationSweeper_SweepOnce(t *testing.T) {
	valRepo := new(mocks.MockValidationRepo)
	subs := new(mocks.MockSubmissionService)
	w := service.NewStaleValidationSweeper(valRepo, subs, service.SweeperConfig{Interval: time.Minute, StaleAfter: 30 * time.Minute, BatchSize: 10})

	ok := domain.ValidationRecord{ID: uuid.New(), SubmissionID: uuid.New(), Status: domain.ValidationStatusPending}
	raced := domain.ValidationRecord{ID: uuid.New(), SubmissionID: uuid.New(), Status: domain.ValidationStatusPending}

	valRepo.On("ListStalePending", mock.Anything, mock.AnythingOfType("time.Time"), 10).
		Return([]domain.ValidationRecord{ok, raced}, nil)
	subs.On("CompleteValidation", mock.Anything, mock.MatchedBy(func(r *domain.ValidationResult) bool {
		return r.ValidationID != nil && *r.ValidationID == ok.ID &&
			r.Status == domain.ValidationStatusFailed &&
			r.ErrorType == domain.ValidationErrorTimeout
	})).Return(&domain.Submission{ID: ok.SubmissionID}, nil)
	subs.On("CompleteValidation", mock.Anything, mock.MatchedBy(func(r *domain.ValidationResult) bool {
		return *r.ValidationID == raced.ID
	})).Return(nil, domain.ErrInvalidValidationState)
	valRepo.On("AppendLog", mock.Anything, mock.MatchedBy(func(l *domain.ValidationLog) bool {
		return l.ValidationID == ok.ID && l.Event == domain.ValidationLogSwept
	})).Return(nil).Once()

	swept, err := w.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	valRepo.AssertExpectations(t)
}

func TestStaleValidationSweeper_ListError(t *testing.T) {
	valRepo := new(mocks.MockValidationRepo)
	subs := new(mocks.MockSubmissionService)
	w := service.NewStaleValidationSweeper(valRepo, subs, service.SweeperConfig{Interval: time.Minute, StaleAfter: time.Minute})
	valRepo.On("ListStalePending", mock.Anything, mock.Anything, 50).Return(nil, errors.New("db down"))

	swept, err := w.SweepOnce(context.Background())

	assert.Error(t, err)
	assert.Zero(t, swept)
}

func TestStaleValidationSweeper_StartStopsOnCancel(t *testing.T) {
	valRepo := new(mocks.MockValidationRepo)
	subs := new(mocks.MockSubmissionService)
	w := service.NewStaleValidationSweeper(valRepo, subs, service.SweeperConfig{Interval: 5 * time.Millisecond, StaleAfter: time.Minute})
	valRepo.On("ListStalePending", mock.Anything, mock.Anything, mock.Anything).Return([]domain.ValidationRecord{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	valRepo.AssertCalled(t, "ListStalePending", mock.Anything, mock.Anything, 50)
}

func TestStaleValidationSweeper_EndToEnd(t *testing.T) {
	env := newLifecycleEnv(t)
	sub, recID := submitAndDispatch(t, env)
	w := service.NewStaleValidationSweeper(memVals{env.store}, env.svc, service.SweeperConfig{Interval: time.Minute, StaleAfter: -time.Hour})

	swept, err := w.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, domain.SubmissionStatusAIValidationFailed, env.store.submission(sub.ID).Status)
	rec := env.store.recordsFor(sub.ID)[0]
	assert.Equal(t, domain.ValidationErrorTimeout, rec.ErrorType)
	assert.Contains(t, env.store.logEvents(recID), domain.ValidationLogSwept)
}

func TestStaleValidationSweeper_ScheduleRunsOnCron(t *testing.T) {
	valRepo := new(mocks.MockValidationRepo)
	subs := new(mocks.MockSubmissionService)
	w := service.NewStaleValidationSweeper(valRepo, subs, service.SweeperConfig{
		StaleAfter: time.Minute,
		Schedule:   "@every 1s",
	})

	swept := make(chan struct{}, 4)
	valRepo.On("ListStalePending", mock.Anything, mock.Anything, 50).
		Run(func(mock.Arguments) { swept <- struct{}{} }).
		Return([]domain.ValidationRecord{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Schedule(ctx))

	select {
	case <-swept:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled sweep did not run")
	}
}

func TestStaleValidationSweeper_ScheduleRejectsBadSpec(t *testing.T) {
	w := service.NewStaleValidationSweeper(new(mocks.MockValidationRepo), new(mocks.MockSubmissionService),
		service.SweeperConfig{Schedule: "every now and then"})

	assert.Error(t, w.Schedule(context.Background()))
}
