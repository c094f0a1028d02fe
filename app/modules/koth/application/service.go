package kothservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kothdomain "github.com/Black-And-White-Club/koth-bot/app/modules/koth/domain"
	kothdb "github.com/Black-And-White-Club/koth-bot/app/modules/koth/infrastructure/repositories"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/attr"
	"github.com/Black-And-White-Club/koth-bot/app/shared/observability/kothmetrics"
	"github.com/Black-And-White-Club/koth-bot/app/shared/results"
	sharedtypes "github.com/Black-And-White-Club/koth-bot/app/shared/types"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "KothService"

// KothService implements the Service interface.
type KothService struct {
	repo      kothdb.Repository
	presenter Presenter
	announcer Announcer
	logger    *slog.Logger
	metrics   kothmetrics.KothMetrics
	tracer    trace.Tracer
	db        *bun.DB

	scoreboard  *kothdomain.Scoreboard
	tiebreakers *kothdomain.Tiebreakers
	battles     *battleRegistry
	panelLocks  *kothdomain.LockRegistry
	guildLocks  *kothdomain.LockRegistry
	newID       func() string
}

var _ Service = (*KothService)(nil)

// NewKothService creates a new KothService.
func NewKothService(
	repo kothdb.Repository,
	presenter Presenter,
	announcer Announcer,
	logger *slog.Logger,
	metrics kothmetrics.KothMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *KothService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = kothmetrics.NewNoop()
	}
	return &KothService{
		repo:        repo,
		presenter:   presenter,
		announcer:   announcer,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
		scoreboard:  kothdomain.NewScoreboard(),
		tiebreakers: kothdomain.NewTiebreakers(),
		battles:     newBattleRegistry(),
		panelLocks:  kothdomain.NewLockRegistry(),
		guildLocks:  kothdomain.NewLockRegistry(),
		newID:       newBattleID,
	}
}

// Scoreboard exposes the in-memory session standings.
func (s *KothService) Scoreboard() *kothdomain.Scoreboard { return s.scoreboard }

// liveDB is the connection for reads that must bypass the settings cache.
func (s *KothService) liveDB() bun.IDB {
	if s.db == nil {
		return nil
	}
	return s.db
}

// loadSettings returns the guild's settings; guilds that were never
// configured get empty closed settings.
func (s *KothService) loadSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*kothdb.GuildSettings, error) {
	settings, err := s.repo.GetSettings(ctx, db, guildID)
	if errors.Is(err, kothdb.ErrNotFound) {
		return &kothdb.GuildSettings{GuildID: guildID, SubmissionStatus: kothdomain.StatusClosed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return settings, nil
}

// transition moves the guild's contest status from the one in settings to
// next, writing update with it.
func (s *KothService) transition(ctx context.Context, db bun.IDB, settings *kothdb.GuildSettings, next kothdomain.Status, update kothdb.SettingsUpdate) error {
	return s.repo.TransitionStatus(ctx, db, settings.GuildID, settings.Status(), next, update)
}

// staleTransition reports a status move the table or the stored row refused.
func staleTransition(err error) bool {
	return errors.Is(err, kothdomain.ErrInvalidTransition) || errors.Is(err, kothdb.ErrNoRowsAffected)
}

func authorized(settings *kothdb.GuildSettings, actor kothdomain.Actor, level kothdomain.Level) bool {
	return kothdomain.Authorize(actor, settings.AdminRoles(), settings.ModRoles(), level)
}

// announce posts to a channel through the announcer. Failures are logged.
func (s *KothService) announce(ctx context.Context, a Announcement) {
	if a.ChannelID == "" || s.announcer == nil {
		return
	}
	if err := s.announcer.Announce(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish announcement",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID(a.GuildID),
			attr.String("channel_id", string(a.ChannelID)),
			attr.Error(err),
		)
	}
}

// notice runs a guild-scoped operation under telemetry and the guild lock and
// unwraps its result.
func (s *KothService) notice(
	ctx context.Context,
	operationName string,
	guildID sharedtypes.GuildID,
	op func(ctx context.Context) (results.OperationResult[Notice, Rejection], error),
) (Notice, error) {
	unlock := s.guildLocks.Lock(guildID)
	defer unlock()

	result, err := withTelemetry(s, ctx, operationName, string(guildID), op)
	if err != nil {
		return Notice{}, err
	}
	if result.IsFailure() {
		return Notice{}, *result.Failure
	}
	return *result.Success, nil
}

func success(message string) (results.OperationResult[Notice, Rejection], error) {
	return results.SuccessResult[Notice, Rejection](Notice{Message: message}), nil
}

func failure(r Rejection) (results.OperationResult[Notice, Rejection], error) {
	return results.FailureResult[Notice, Rejection](r), nil
}

func infraError(format string, err error) (results.OperationResult[Notice, Rejection], error) {
	return results.OperationResult[Notice, Rejection]{}, fmt.Errorf(format, err)
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *KothService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, "Operation triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.String("identifier", identifier),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction. Domain failures
// commit; they are returned before anything is written. Work registered with
// kothdb.AfterCommit runs once the transaction has committed.
func runInTx[S any, F any](
	s *KothService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	txCtx, hooks := kothdb.WithCommitHooks(ctx)
	var result results.OperationResult[S, F]
	err := s.db.RunInTx(txCtx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	if err != nil {
		return result, err
	}
	hooks.Run(ctx)
	return result, nil
}
