package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-booking/internal/apperr"
)

const testPhone = "+201001234567"

type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func (s *sequenceCodes) NewCode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return "", errors.New("no codes left")
	}
	c := s.codes[0]
	s.codes = s.codes[1:]
	return c, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (r *recordingSender) SendVerificationCode(ctx context.Context, phone, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string][]string{}
	}
	r.sent[phone] = append(r.sent[phone], code)
	return r.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, ttl time.Duration, codes ...string) (*Service, *MemoryRepository, *recordingSender, *fakeClock) {
	t.Helper()
	repo := NewMemoryRepository()
	sender := &recordingSender{}
	clock := &fakeClock{now: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)}
	svc := NewService(repo, sender, Options{
		CodeTTL: ttl,
		Codes:   &sequenceCodes{codes: codes},
		Now:     clock.Now,
	}, zerolog.Nop())
	return svc, repo, sender, clock
}

func TestIssueAndRedeemIsOneTimeUse(t *testing.T) {
	svc, repo, sender, _ := newTestService(t, 0, "123456")
	ctx := context.Background()

	code, err := svc.IssueCode(ctx, "+20 100 123 4567", "Patient@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.Equal(t, []string{"123456"}, sender.sent[testPhone])

	stored, err := repo.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, stored.Verified)
	assert.Equal(t, "patient@example.com", stored.Email)

	patient, err := svc.RedeemCode(ctx, testPhone, "123456")
	require.NoError(t, err)
	assert.True(t, patient.Verified)
	assert.Nil(t, patient.PendingCode)

	_, err = svc.RedeemCode(ctx, testPhone, "123456")
	assert.ErrorIs(t, err, apperr.ErrCodeMismatch)
}

func TestNewCodeSupersedesPrevious(t *testing.T) {
	svc, _, _, _ := newTestService(t, 0, "111111", "222222")
	ctx := context.Background()

	_, err := svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)
	_, err = svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)

	_, err = svc.RedeemCode(ctx, testPhone, "111111")
	assert.ErrorIs(t, err, apperr.ErrCodeMismatch)

	_, err = svc.RedeemCode(ctx, testPhone, "222222")
	assert.NoError(t, err)
}

func TestReissueClearsVerifiedFlag(t *testing.T) {
	svc, _, _, _ := newTestService(t, 0, "111111", "222222")
	ctx := context.Background()

	_, err := svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)
	_, err = svc.RedeemCode(ctx, testPhone, "111111")
	require.NoError(t, err)

	_, err = svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)

	p, err := svc.Patient(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, p.Verified)
	require.NotNil(t, p.PendingCode)
	assert.Equal(t, "222222", *p.PendingCode)
}

func TestRedeemUnknownPhone(t *testing.T) {
	svc, _, _, _ := newTestService(t, 0)

	_, err := svc.RedeemCode(context.Background(), testPhone, "123456")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIssueValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t, 0, "123456")
	ctx := context.Background()

	_, err := svc.IssueCode(ctx, "01001234567", "a@example.com")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.IssueCode(ctx, testPhone, "not-an-email")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.RedeemCode(ctx, testPhone, "12ab56")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSenderFailureDoesNotFailIssue(t *testing.T) {
	svc, _, sender, _ := newTestService(t, 0, "123456")
	sender.err = errors.New("sms gateway down")

	code, err := svc.IssueCode(context.Background(), testPhone, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
}

func TestExpiredCodeDoesNotMatch(t *testing.T) {
	svc, repo, _, clock := newTestService(t, 10*time.Minute, "123456", "654321")
	ctx := context.Background()

	_, err := svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)

	_, err = svc.RedeemCode(ctx, testPhone, "123456")
	assert.ErrorIs(t, err, apperr.ErrCodeMismatch)

	cleared, err := svc.SweepStaleCodes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	p, err := repo.GetByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Nil(t, p.PendingCode)

	_, err = svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	_, err = svc.RedeemCode(ctx, testPhone, "654321")
	assert.NoError(t, err)
}

func TestConcurrentRedeemSucceedsOnce(t *testing.T) {
	svc, _, _, _ := newTestService(t, 0, "123456")
	ctx := context.Background()
	_, err := svc.IssueCode(ctx, testPhone, "a@example.com")
	require.NoError(t, err)

	var ok, mismatch int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RedeemCode(ctx, testPhone, "123456")
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, apperr.ErrCodeMismatch):
				atomic.AddInt32(&mismatch, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, 7, mismatch)
}

func TestRandomCodes(t *testing.T) {
	gen := NewRandomCodes(CodeDigits)
	for i := 0; i < 200; i++ {
		code, err := gen.NewCode()
		require.NoError(t, err)
		require.Len(t, code, CodeDigits)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', code)
		}
	}
}

func TestPhonePolicy(t *testing.T) {
	p, err := NewPhonePolicy("")
	require.NoError(t, err)

	got, err := p.Normalize(" +20 (100) 123-4567 ")
	require.NoError(t, err)
	assert.Equal(t, testPhone, got)

	assert.False(t, p.Valid("+2010012345"))
	assert.False(t, p.Valid("+441001234567"))

	_, err = NewPhonePolicy("([")
	assert.Error(t, err)
}
