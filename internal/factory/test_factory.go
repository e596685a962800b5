package factory

import (
	"time"

	"github.com/hubsync/hubsync/internal/dependencies/mocks"
	"github.com/hubsync/hubsync/internal/engine"
	"github.com/hubsync/hubsync/internal/host/fakehost"
	"github.com/hubsync/hubsync/internal/remote"
	"github.com/hubsync/hubsync/internal/storage/memory"
	"github.com/hubsync/hubsync/internal/testutil"
)

// TestBundleID is the server bundle served by the fake remote service
const TestBundleID = "bundle-1"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	FakeHost  *fakehost.Host
	FakeAPI   *testutil.FakeAPI
}

// NewTestApp creates an App wired against a fake remote service and a fake
// game server. Callers must Close it.
func NewTestApp() *TestApp {
	api := testutil.NewFakeAPI(TestBundleID)
	h := fakehost.New()
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	client := remote.NewClient(api.URL(), "test-token", "server-1")

	app := newWithDependencies(client, h, store, mockClock, "[Server] ", engine.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		FakeHost:  h,
		FakeAPI:   api,
	}
}

// Close stops the fake remote service
func (t *TestApp) Close() {
	t.FakeAPI.Close()
}
