package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vault/domain/model"
	"vault/usecase"
)

// Mock implementations
type MockVideoGateway struct {
	mock.Mock

	mu    sync.Mutex
	calls []string
}

func (m *MockVideoGateway) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *MockVideoGateway) Requests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockVideoGateway) ListVideos(ctx context.Context) ([]model.Video, error) {
	m.record("GET")
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Video), args.Error(1)
}

func (m *MockVideoGateway) TrackVideo(ctx context.Context, videoID string) error {
	m.record("POST " + videoID)
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func startController(t *testing.T, gw *MockVideoGateway) *usecase.ViewController {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := usecase.NewViewController(gw)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ctrl
}

func dispatch(t *testing.T, ctrl *usecase.ViewController, e usecase.Event) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ctrl.DispatchAndWait(ctx, e))
}

func TestViewController_MountShowsReversedList(t *testing.T) {
	gw := new(MockVideoGateway)
	gw.On("ListVideos", mock.Anything).Return(videos("a", "b", "c"), nil).Once()
	ctrl := startController(t, gw)

	dispatch(t, ctrl, usecase.Mounted{})

	st := ctrl.State()
	assert.True(t, st.Mounted)
	assert.Equal(t, []string{"c", "b", "a"}, ids(st.Videos))
	gw.AssertExpectations(t)
}

func TestViewController_EndToEndSubmit(t *testing.T) {
	gw := new(MockVideoGateway)
	gw.On("ListVideos", mock.Anything).Return([]model.Video{}, nil).Once()
	gw.On("TrackVideo", mock.Anything, "xyz").Return(nil).Once()
	gw.On("ListVideos", mock.Anything).Return(videos("first", "xyz"), nil).Once()

	var mu sync.Mutex
	var phases []usecase.Phase
	ctrl := startController(t, gw)
	ctrl.OnChange(func(s usecase.ViewState) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})

	dispatch(t, ctrl, usecase.Mounted{})
	assert.Empty(t, ctrl.State().Videos)

	dispatch(t, ctrl, usecase.InputChanged{Value: "xyz"})
	dispatch(t, ctrl, usecase.SubmitRequested{})

	st := ctrl.State()
	assert.Equal(t, []string{"GET", "POST xyz", "GET"}, gw.Requests())
	assert.False(t, st.Loading())
	assert.Empty(t, st.PendingVideoID)
	assert.Equal(t, []string{"xyz", "first"}, ids(st.Videos))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []usecase.Phase{
		usecase.PhaseIdle,       // mounted
		usecase.PhaseIdle,       // list loaded
		usecase.PhaseIdle,       // input changed
		usecase.PhaseSubmitting, // submit
		usecase.PhaseRefreshing, // track succeeded
		usecase.PhaseIdle,       // list loaded
	}, phases)
	gw.AssertExpectations(t)
}

func TestViewController_BlankSubmitMakesNoCalls(t *testing.T) {
	gw := new(MockVideoGateway)
	ctrl := startController(t, gw)

	dispatch(t, ctrl, usecase.InputChanged{Value: "  "})
	before := ctrl.State()
	dispatch(t, ctrl, usecase.SubmitRequested{})

	assert.Equal(t, before, ctrl.State())
	assert.Empty(t, gw.Requests())
	gw.AssertNotCalled(t, "TrackVideo", mock.Anything, mock.Anything)
}

func TestViewController_TrackFailureSkipsRefresh(t *testing.T) {
	gw := new(MockVideoGateway)
	gw.On("TrackVideo", mock.Anything, "abc").Return(errors.New("connection refused")).Once()
	ctrl := startController(t, gw)

	dispatch(t, ctrl, usecase.InputChanged{Value: "abc"})
	dispatch(t, ctrl, usecase.SubmitRequested{})

	st := ctrl.State()
	assert.Equal(t, []string{"POST abc"}, gw.Requests())
	assert.Equal(t, usecase.PhaseIdle, st.Phase)
	assert.Contains(t, st.LastError, "connection refused")
	gw.AssertExpectations(t)
}

func TestViewController_SecondSubmitWhileBusyIsDropped(t *testing.T) {
	gw := new(MockVideoGateway)
	release := make(chan struct{})
	gw.On("TrackVideo", mock.Anything, "one").Run(func(mock.Arguments) { <-release }).Return(nil).Once()
	gw.On("ListVideos", mock.Anything).Return(videos("one"), nil).Once()
	ctrl := startController(t, gw)

	ctx := context.Background()
	_, err := ctrl.Dispatch(ctx, usecase.InputChanged{Value: "one"})
	require.NoError(t, err)
	first, err := ctrl.Dispatch(ctx, usecase.SubmitRequested{})
	require.NoError(t, err)
	_, err = ctrl.Dispatch(ctx, usecase.InputChanged{Value: "two"})
	require.NoError(t, err)
	second, err := ctrl.Dispatch(ctx, usecase.SubmitRequested{})
	require.NoError(t, err)

	close(release)
	<-first
	<-second

	assert.Equal(t, []string{"POST one", "GET"}, gw.Requests())
	assert.Equal(t, "two", ctrl.State().PendingVideoID)
	gw.AssertExpectations(t)
}

func TestViewController_DispatchAfterStop(t *testing.T) {
	gw := new(MockVideoGateway)
	ctrl := usecase.NewViewController(gw)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ctrl.Run(ctx), context.Canceled)

	_, err := ctrl.Dispatch(context.Background(), usecase.Mounted{})
	require.ErrorIs(t, err, usecase.ErrControllerStopped)
}

func TestViewController_ApplyReturnsBeforeBackendCalls(t *testing.T) {
	gw := new(MockVideoGateway)
	release := make(chan struct{})
	gw.On("TrackVideo", mock.Anything, "slow").Run(func(mock.Arguments) { <-release }).Return(nil).Once()
	gw.On("ListVideos", mock.Anything).Return(videos("slow"), nil).Once()
	ctrl := startController(t, gw)

	dispatch(t, ctrl, usecase.InputChanged{Value: "slow"})
	done, err := ctrl.Apply(context.Background(), usecase.SubmitRequested{})
	require.NoError(t, err)

	st := ctrl.State()
	assert.Equal(t, usecase.PhaseSubmitting, st.Phase)
	assert.True(t, st.SubmitDisabled())
	assert.Equal(t, "Summarizing...", st.SubmitLabel())

	close(release)
	<-done
	assert.False(t, ctrl.State().Loading())
	gw.AssertExpectations(t)
}

func TestViewController_DispatchAndWaitReturnsWhenStopped(t *testing.T) {
	gw := new(MockVideoGateway)
	release := make(chan struct{})
	defer close(release)
	gw.On("ListVideos", mock.Anything).Run(func(mock.Arguments) { <-release }).Return([]model.Video{}, nil).Maybe()
	ctrl := usecase.NewViewController(gw)

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelWait()
	errCh := make(chan error, 1)
	go func() { errCh <- ctrl.DispatchAndWait(waitCtx, usecase.Mounted{}) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ctrl.Run(ctx), context.Canceled)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, usecase.ErrControllerStopped)
	case <-time.After(time.Second):
		t.Fatal("DispatchAndWait did not return after the controller stopped")
	}
}
