package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/metrics"
)

var tracer = otel.Tracer("clinic.internal.verification")

// CodeSender delivers a verification code to a phone.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
}

type Options struct {
	// CodeTTL bounds how long an issued code can be redeemed. Zero disables expiry.
	CodeTTL time.Duration
	Phones  *PhonePolicy
	Codes   CodeGenerator
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Service issues and redeems one-time phone verification codes.
type Service struct {
	repo     Repository
	sender   CodeSender
	phones   *PhonePolicy
	codes    CodeGenerator
	validate *validator.Validate
	ttl      time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(repo Repository, sender CodeSender, opts Options, logger zerolog.Logger) *Service {
	if opts.Phones == nil {
		opts.Phones, _ = NewPhonePolicy(DefaultPhonePattern)
	}
	if opts.Codes == nil {
		opts.Codes = NewRandomCodes(CodeDigits)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:     repo,
		sender:   sender,
		phones:   opts.Phones,
		codes:    opts.Codes,
		validate: validator.New(),
		ttl:      opts.CodeTTL,
		metrics:  opts.Metrics,
		now:      opts.Now,
		logger:   logger.With().Str("component", "verification").Logger(),
	}
}

// IssueCode generates a fresh code for phone, superseding any earlier one,
// and hands it to the sender. The code is returned so the caller may decide
// whether to expose it (development only).
func (s *Service) IssueCode(ctx context.Context, phone, email string) (string, error) {
	ctx, span := tracer.Start(ctx, "verification.issue_code")
	defer span.End()

	phone, err := s.phones.Normalize(phone)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return "", apperr.Validation("invalid email address")
	}

	code, err := s.codes.NewCode()
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	patient, err := s.repo.UpsertChallenge(ctx, phone, email, code, s.now().UTC())
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	span.SetAttributes(attribute.String("clinic.patient_id", patient.ID.String()))
	s.metrics.ObserveCodeIssued()

	if s.sender != nil {
		if err := s.sender.SendVerificationCode(ctx, phone, code); err != nil {
			s.logger.Warn().Err(err).Str("patient_id", patient.ID.String()).Msg("verification code dispatch failed")
		}
	}

	s.logger.Info().Str("patient_id", patient.ID.String()).Msg("verification code issued")
	return code, nil
}

// RedeemCode verifies phone when code matches the outstanding challenge.
// A code can be redeemed once; a superseded or expired code never matches.
func (s *Service) RedeemCode(ctx context.Context, phone, code string) (*Patient, error) {
	ctx, span := tracer.Start(ctx, "verification.redeem_code")
	defer span.End()

	phone, err := s.phones.Normalize(phone)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if err := s.validate.Var(code, fmt.Sprintf("required,numeric,len=%d", CodeDigits)); err != nil {
		return nil, apperr.Validation("code must be %d digits", CodeDigits)
	}

	var notBefore time.Time
	if s.ttl > 0 {
		notBefore = s.now().UTC().Add(-s.ttl)
	}

	patient, err := s.repo.Redeem(ctx, phone, code, notBefore)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			s.metrics.ObserveRedemption("not_found")
		case errors.Is(err, apperr.ErrCodeMismatch):
			s.metrics.ObserveRedemption("mismatch")
		default:
			span.RecordError(err)
			s.metrics.ObserveRedemption("error")
		}
		return nil, err
	}

	s.metrics.ObserveRedemption("verified")
	s.logger.Info().Str("patient_id", patient.ID.String()).Msg("phone verified")
	return patient, nil
}

// Patient looks up the patient registered for phone.
func (s *Service) Patient(ctx context.Context, phone string) (*Patient, error) {
	phone, err := s.phones.Normalize(phone)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByPhone(ctx, phone)
}

// SweepStaleCodes clears codes that can no longer be redeemed because they
// outlived the TTL. It is a no-op when expiry is disabled.
func (s *Service) SweepStaleCodes(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	n, err := s.repo.ClearCodesIssuedBefore(ctx, s.now().UTC().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("cleared", n).Msg("stale verification codes cleared")
	}
	return n, nil
}
