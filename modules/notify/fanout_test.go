package notify

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/events"
	"github.com/Deekshith9238/testingfhm/modules/store"
)

// fakePusher records push attempts and signals when one lands.
type fakePusher struct {
	mu       sync.Mutex
	sent     map[string][]any // userID -> payloads
	notified chan struct{}
}

func newFakePusher() *fakePusher {
	return &fakePusher{
		sent:     make(map[string][]any),
		notified: make(chan struct{}, 64),
	}
}

func (f *fakePusher) SendToUser(userID string, payload any) {
	f.mu.Lock()
	f.sent[userID] = append(f.sent[userID], payload)
	f.mu.Unlock()
	f.notified <- struct{}{}
}

func (f *fakePusher) SendToUsers(userIDs []string, payload any) {
	f.mu.Lock()
	for _, id := range userIDs {
		f.sent[id] = append(f.sent[id], payload)
	}
	f.mu.Unlock()
	f.notified <- struct{}{}
}

// wait blocks until a push has been attempted or the timeout fires.
func (f *fakePusher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.notified:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push attempt")
	}
}

func (f *fakePusher) payloadsFor(userID string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[userID]
}

type fanoutFixture struct {
	fanout        *Fanout
	module        *Module
	notifications *store.NotificationRepository
	directory     *store.DirectoryRepository
	pusher        *fakePusher
}

func newFanoutFixture(t *testing.T) *fanoutFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&market.User{},
		&market.ServiceProvider{},
		&market.Notification{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	notifications := store.NewNotificationRepository(db)
	directory := store.NewDirectoryRepository(db)
	pusher := newFakePusher()
	fanout := NewFanout(notifications, directory, pusher)
	module := &Module{
		fanout: fanout,
		logger: slog.Default().With("module", "notify"),
	}

	return &fanoutFixture{
		fanout:        fanout,
		module:        module,
		notifications: notifications,
		directory:     directory,
		pusher:        pusher,
	}
}

func (f *fanoutFixture) seedProvider(t *testing.T, categoryID string) *market.ServiceProvider {
	t.Helper()
	p := &market.ServiceProvider{
		ID:         uuid.New().String(),
		UserID:     uuid.New().String(),
		CategoryID: categoryID,
		CreatedAt:  time.Now(),
	}
	if err := f.directory.CreateProvider(context.Background(), p); err != nil {
		t.Fatalf("failed to seed provider: %v", err)
	}
	return p
}

func (f *fanoutFixture) notificationsFor(t *testing.T, userID string) []*market.Notification {
	t.Helper()
	got, err := f.notifications.ListByRecipient(context.Background(), userID, false)
	if err != nil {
		t.Fatalf("ListByRecipient() error = %v", err)
	}
	return got
}

func TestFanout_Notify_PersistsPerRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)

	alice := uuid.New().String()
	bob := uuid.New().String()

	persisted := f.fanout.Notify(ctx, []string{alice, bob}, market.NotificationNewTask,
		"New task available", "A new task was posted.", PayloadData{TaskID: "t1"})
	if len(persisted) != 2 {
		t.Fatalf("persisted %d notifications, want 2", len(persisted))
	}

	// Each recipient gets an independent row with its own read state.
	for _, userID := range []string{alice, bob} {
		rows := f.notificationsFor(t, userID)
		if len(rows) != 1 {
			t.Fatalf("recipient %s has %d rows, want 1", userID, len(rows))
		}
		if rows[0].Read {
			t.Error("new notification should be unread")
		}
	}

	f.pusher.wait(t)
	if got := f.pusher.payloadsFor(alice); len(got) != 1 {
		t.Errorf("alice received %d pushes, want 1", len(got))
	}
	payload, ok := f.pusher.payloadsFor(bob)[0].(PushPayload)
	if !ok {
		t.Fatal("push payload has wrong type")
	}
	if payload.Type != market.NotificationNewTask || payload.Data.TaskID != "t1" {
		t.Errorf("payload = %+v, want new_task for t1", payload)
	}
}

// A recipient with no live connections still gets a durable row; the
// push outcome never affects persistence.
func TestFanout_Notify_PushBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)
	f.fanout.pusher = nil // nobody to push to at all

	alice := uuid.New().String()
	persisted := f.fanout.Notify(ctx, []string{alice}, market.NotificationNewTask,
		"New task available", "A new task was posted.", PayloadData{TaskID: "t1"})
	if len(persisted) != 1 {
		t.Fatalf("persisted %d notifications, want 1", len(persisted))
	}
	if rows := f.notificationsFor(t, alice); len(rows) != 1 {
		t.Fatalf("recipient has %d rows, want 1", len(rows))
	}
}

func TestFanout_Notify_NoRecipients(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)

	persisted := f.fanout.Notify(ctx, nil, market.NotificationNewTask,
		"New task available", "A new task was posted.", PayloadData{TaskID: "t1"})
	if len(persisted) != 0 {
		t.Errorf("persisted %d notifications, want 0", len(persisted))
	}
}

// Providers in the task's category each get exactly one new_task row;
// providers outside it get none.
func TestModule_HandleTaskCreated_FanoutCompleteness(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)

	p1 := f.seedProvider(t, "lawn-care")
	p2 := f.seedProvider(t, "lawn-care")
	p3 := f.seedProvider(t, "handyman")

	err := f.module.handleTaskCreated(ctx, events.TaskCreatedEvent{
		TaskID:     "t1",
		ClientID:   uuid.New().String(),
		CategoryID: "lawn-care",
		Title:      "Mow the lawn",
		Timestamp:  time.Now(),
	}, nil)
	if err != nil {
		t.Fatalf("handleTaskCreated() error = %v", err)
	}

	for _, p := range []*market.ServiceProvider{p1, p2} {
		rows := f.notificationsFor(t, p.UserID)
		if len(rows) != 1 {
			t.Fatalf("provider %s has %d rows, want 1", p.ID, len(rows))
		}
		if rows[0].Type != market.NotificationNewTask {
			t.Errorf("type = %q, want %q", rows[0].Type, market.NotificationNewTask)
		}
	}
	if rows := f.notificationsFor(t, p3.UserID); len(rows) != 0 {
		t.Errorf("out-of-category provider has %d rows, want 0", len(rows))
	}
}

// After an accept: the client gets one task_accepted row, every other
// eligible provider gets one unavailability row, and the winner gets
// neither.
func TestModule_HandleTaskAccepted_Fanout(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)

	winner := f.seedProvider(t, "lawn-care")
	loser := f.seedProvider(t, "lawn-care")
	outsider := f.seedProvider(t, "handyman")
	clientID := uuid.New().String()

	err := f.module.handleTaskAccepted(ctx, events.TaskAcceptedEvent{
		TaskID:         "t1",
		ClientID:       clientID,
		CategoryID:     "lawn-care",
		ProviderID:     winner.ID,
		ProviderUserID: winner.UserID,
		Title:          "Mow the lawn",
		Timestamp:      time.Now(),
	}, nil)
	if err != nil {
		t.Fatalf("handleTaskAccepted() error = %v", err)
	}

	clientRows := f.notificationsFor(t, clientID)
	if len(clientRows) != 1 {
		t.Fatalf("client has %d rows, want 1", len(clientRows))
	}
	if clientRows[0].Type != market.NotificationTaskAccepted {
		t.Errorf("client row type = %q, want %q", clientRows[0].Type, market.NotificationTaskAccepted)
	}

	loserRows := f.notificationsFor(t, loser.UserID)
	if len(loserRows) != 1 {
		t.Fatalf("losing provider has %d rows, want 1", len(loserRows))
	}
	if loserRows[0].Title != "Task no longer available" {
		t.Errorf("losing provider title = %q, want unavailability notice", loserRows[0].Title)
	}

	if rows := f.notificationsFor(t, winner.UserID); len(rows) != 0 {
		t.Errorf("winner has %d rows, want 0", len(rows))
	}
	if rows := f.notificationsFor(t, outsider.UserID); len(rows) != 0 {
		t.Errorf("out-of-category provider has %d rows, want 0", len(rows))
	}
}

func TestModule_HandleTaskCompleted_NotifiesCounterparty(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)

	provider := f.seedProvider(t, "lawn-care")
	clientID := uuid.New().String()

	err := f.module.handleTaskCompleted(ctx, events.TaskCompletedEvent{
		TaskID:         "t1",
		ClientID:       clientID,
		ProviderID:     provider.ID,
		ProviderUserID: provider.UserID,
		ActorUserID:    clientID, // client marked completion
		Title:          "Mow the lawn",
		Timestamp:      time.Now(),
	}, nil)
	if err != nil {
		t.Fatalf("handleTaskCompleted() error = %v", err)
	}

	if rows := f.notificationsFor(t, provider.UserID); len(rows) != 1 {
		t.Errorf("provider has %d rows, want 1", len(rows))
	}
	if rows := f.notificationsFor(t, clientID); len(rows) != 0 {
		t.Errorf("acting client has %d rows, want 0", len(rows))
	}
}

func TestModule_HandleTaskCancelled_OpenTask(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)
	clientID := uuid.New().String()

	// No provider had accepted; nobody to inform besides the actor.
	err := f.module.handleTaskCancelled(ctx, events.TaskCancelledEvent{
		TaskID:      "t1",
		ClientID:    clientID,
		ActorUserID: clientID,
		Title:       "Mow the lawn",
		Timestamp:   time.Now(),
	}, nil)
	if err != nil {
		t.Fatalf("handleTaskCancelled() error = %v", err)
	}

	if rows := f.notificationsFor(t, clientID); len(rows) != 0 {
		t.Errorf("acting client has %d rows, want 0", len(rows))
	}
}

func TestFanout_EligibleProviders(t *testing.T) {
	ctx := context.Background()
	f := newFanoutFixture(t)

	f.seedProvider(t, "lawn-care")
	f.seedProvider(t, "lawn-care")
	f.seedProvider(t, "handyman")

	providers, err := f.fanout.EligibleProviders(ctx, "lawn-care")
	if err != nil {
		t.Fatalf("EligibleProviders() error = %v", err)
	}
	if len(providers) != 2 {
		t.Errorf("len(providers) = %d, want 2", len(providers))
	}
}
