package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/availability"
	"github.com/hackgods/clinic-booking/internal/clinic"
	"github.com/hackgods/clinic-booking/internal/lock"
	"github.com/hackgods/clinic-booking/internal/notify"
	"github.com/hackgods/clinic-booking/internal/verification"
)

const testDate = clinic.Date("2026-10-20")

type recordingNotifier struct {
	mu            sync.Mutex
	confirmations []notify.AppointmentNotice
	cancellations []notify.AppointmentNotice
	err           error
}

func (r *recordingNotifier) SendConfirmation(ctx context.Context, n notify.AppointmentNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmations = append(r.confirmations, n)
	return r.err
}

func (r *recordingNotifier) SendCancellation(ctx context.Context, n notify.AppointmentNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancellations = append(r.cancellations, n)
	return r.err
}

type busyLocker struct{}

func (busyLocker) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return lock.ErrLockNotAcquired
}

type fixture struct {
	ledger   *Ledger
	repo     *MemoryRepository
	store    *clinic.Store
	patients *verification.MemoryRepository
	notifier *recordingNotifier
	calc     *availability.Calculator
}

func newFixture(t *testing.T, locker Locker) *fixture {
	t.Helper()
	ctx := context.Background()

	store := clinic.NewStore(clinic.NewMemoryRepository(), zerolog.Nop())
	_, err := store.SetDailyLimit(ctx, 2)
	require.NoError(t, err)
	_, err = store.SetTimeSlots(ctx, []clinic.TimeSlot{{Key: "09:00"}, {Key: "10:00"}})
	require.NoError(t, err)

	patients := verification.NewMemoryRepository()
	verifier := verification.NewService(patients, nil, verification.Options{}, zerolog.Nop())

	if locker == nil {
		locker = lock.NewLocal(time.Second)
	}
	repo := NewMemoryRepository()
	notifier := &recordingNotifier{}
	ledger := NewLedger(repo, verifier, store, locker, notifier, Options{}, zerolog.Nop())

	return &fixture{
		ledger:   ledger,
		repo:     repo,
		store:    store,
		patients: patients,
		notifier: notifier,
		calc:     availability.NewCalculator(store, ledger),
	}
}

func (f *fixture) addPatient(phone string, verified bool) {
	f.patients.Put(verification.Patient{
		Phone:    phone,
		Email:    "patient@example.com",
		Verified: verified,
	})
}

func phoneN(i int) string {
	return fmt.Sprintf("+2010000000%02d", i)
}

func request(phone, slot string) ReserveRequest {
	return ReserveRequest{
		Phone:   phone,
		Date:    testDate,
		SlotKey: slot,
		Name:    "Test Patient",
		Service: "Checkup",
	}
}

func TestTwoSlotScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addPatient(phoneN(1), true)
	f.addPatient(phoneN(2), true)

	a, err := f.ledger.Reserve(ctx, request(phoneN(1), "09:00"))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, "9:00 AM", a.SlotLabel)
	assert.Equal(t, "patient@example.com", a.Email)

	res, err := f.calc.ListAvailability(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, res.SlotKeys())
	assert.Equal(t, availability.StateOpen, res.State)
	assert.Equal(t, 1, res.Booked)

	_, err = f.ledger.Reserve(ctx, request(phoneN(2), "10:00"))
	require.NoError(t, err)

	res, err = f.calc.ListAvailability(ctx, testDate)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
	assert.Equal(t, availability.StateFull, res.State)

	for _, slot := range []string{"09:00", "10:00"} {
		_, err = f.ledger.Reserve(ctx, request(phoneN(1), slot))
		assert.ErrorIs(t, err, apperr.ErrSlotUnavailable, slot)
	}

	assert.Len(t, f.notifier.confirmations, 2)
}

func TestReserveRequiresVerifiedPatient(t *testing.T) {
	f := newFixture(t, nil)
	f.addPatient(phoneN(1), false)

	_, err := f.ledger.Reserve(context.Background(), request(phoneN(1), "09:00"))
	assert.ErrorIs(t, err, apperr.ErrNotVerified)

	_, err = f.ledger.Reserve(context.Background(), request(phoneN(9), "09:00"))
	assert.ErrorIs(t, err, apperr.ErrNotVerified)
}

func TestReserveBlockedDate(t *testing.T) {
	f := newFixture(t, nil)
	f.addPatient(phoneN(1), true)
	_, err := f.store.BlockDate(context.Background(), testDate)
	require.NoError(t, err)

	_, err = f.ledger.Reserve(context.Background(), request(phoneN(1), "09:00"))
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrDateBlocked)
}

func TestReserveValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.addPatient(phoneN(1), true)
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, request(phoneN(1), "13:00"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req := request(phoneN(1), "09:00")
	req.Date = "20/10/2026"
	_, err = f.ledger.Reserve(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	req = request(phoneN(1), "09:00")
	req.Name = "  "
	_, err = f.ledger.Reserve(ctx, req)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConcurrentReserveSameSlot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	const racers = 12
	for i := 0; i < racers; i++ {
		f.addPatient(phoneN(i), true)
	}

	var wg sync.WaitGroup
	results := make(chan error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := f.ledger.Reserve(ctx, request(phoneN(i), "09:00"))
			results <- err
		}(i)
	}
	close(start)
	wg.Wait()
	close(results)

	var ok, unavailable int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrSlotUnavailable):
			unavailable++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, racers-1, unavailable)

	keys, err := f.repo.ConfirmedSlotKeys(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, keys)
}

func TestReserveLockBusy(t *testing.T) {
	f := newFixture(t, busyLocker{})
	f.addPatient(phoneN(1), true)

	_, err := f.ledger.Reserve(context.Background(), request(phoneN(1), "09:00"))
	assert.ErrorIs(t, err, apperr.ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrSlotBusy)
}

func TestNotificationFailureKeepsReservation(t *testing.T) {
	f := newFixture(t, nil)
	f.addPatient(phoneN(1), true)
	f.notifier.err = errors.New("queue full")

	a, err := f.ledger.Reserve(context.Background(), request(phoneN(1), "09:00"))
	require.NoError(t, err)

	stored, err := f.ledger.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, stored.Status)
}

func TestCancelFreesCapacity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addPatient(phoneN(1), true)
	f.addPatient(phoneN(2), true)

	a, err := f.ledger.Reserve(ctx, request(phoneN(1), "09:00"))
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, request(phoneN(2), "10:00"))
	require.NoError(t, err)

	cancelled, err := f.ledger.Cancel(ctx, a.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "admin@example.com", cancelled.CancelledBy)
	require.NotNil(t, cancelled.CancelledAt)

	res, err := f.calc.ListAvailability(ctx, testDate)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, res.SlotKeys())
	assert.Equal(t, 1, res.Booked)

	_, err = f.ledger.Reserve(ctx, request(phoneN(1), "09:00"))
	assert.NoError(t, err)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addPatient(phoneN(1), true)

	a, err := f.ledger.Reserve(ctx, request(phoneN(1), "09:00"))
	require.NoError(t, err)

	_, err = f.ledger.Cancel(ctx, a.ID, "admin")
	require.NoError(t, err)
	again, err := f.ledger.Cancel(ctx, a.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, again.Status)

	assert.Len(t, f.notifier.cancellations, 1)

	var types []string
	for _, ev := range f.repo.Events() {
		types = append(types, ev.EventType)
	}
	assert.Equal(t, []string{EventAppointmentConfirmed, EventAppointmentCancelled}, types)
}

func TestCancelUnknown(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.ledger.Cancel(context.Background(), uuid.New(), "admin")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.addPatient(phoneN(1), true)

	a, err := f.ledger.Reserve(ctx, request(phoneN(1), "09:00"))
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, request(phoneN(1), "10:00"))
	require.NoError(t, err)
	_, err = f.ledger.Cancel(ctx, a.ID, "admin")
	require.NoError(t, err)

	all, err := f.ledger.List(ctx, ListFilter{Date: testDate})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := f.ledger.List(ctx, ListFilter{Status: StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "10:00", confirmed[0].SlotKey)

	_, err = f.ledger.List(ctx, ListFilter{Status: "pending"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
