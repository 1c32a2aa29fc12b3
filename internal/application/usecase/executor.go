package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/costtrack-api/internal/domain"
)

// Options política de ejecución de las operaciones del repositorio.
type Options struct {
	OpTimeout    time.Duration // 0 = sin límite propio
	MaxRetries   int           // reintentos ante domain.ErrTransient
	RetryBackoff time.Duration // base; se duplica en cada intento
	Recorder     MutationRecorder
}

// executor aplica timeout por operación y reintentos con backoff exponencial.
type executor struct {
	tx   TxRunner
	opts Options
}

func newExecutor(tx TxRunner, opts Options) executor {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return executor{tx: tx, opts: opts}
}

// inTx corre fn en una transacción nueva por intento.
func (e executor) inTx(ctx context.Context, fn func(ctx context.Context, repos TxRepos) error) error {
	return e.do(ctx, func(ctx context.Context) error {
		return e.tx.Run(ctx, fn)
	})
}

// do corre fn con timeout y reintenta mientras el fallo sea transitorio y anterior al commit.
func (e executor) do(ctx context.Context, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := e.once(ctx, fn)
		if err == nil || !retryable(ctx, err) || attempt >= e.opts.MaxRetries {
			return err
		}
		wait := e.opts.RetryBackoff << attempt
		log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", wait).Msg("fallo transitorio, reintentando")
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
}

func (e executor) once(ctx context.Context, fn func(ctx context.Context) error) error {
	opCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.opts.OpTimeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, e.opts.OpTimeout)
	}
	defer cancel()

	err := fn(opCtx)
	if err == nil || errors.Is(err, domain.ErrTransient) || isOutcome(err) {
		return err
	}
	// Vencimiento del límite propio (no del llamador): es transitorio.
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	return err
}

func retryable(ctx context.Context, err error) bool {
	return ctx.Err() == nil &&
		errors.Is(err, domain.ErrTransient) &&
		!errors.Is(err, domain.ErrCommitUnknown)
}

// isOutcome indica errores de negocio que nunca se reclasifican.
func isOutcome(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrDuplicate) ||
		errors.Is(err, domain.ErrHasDependents) ||
		errors.Is(err, domain.ErrInvalidInput)
}

// outcome etiqueta para métricas.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrHasDependents):
		return "dependents"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	default:
		return "error"
	}
}

func (e executor) record(entity, op string, err error) {
	e.opts.Recorder.RecordMutation(entity, op, outcome(err))
}

// Read ejecuta una lectura con la misma política de timeout y reintentos que las mutaciones.
func Read(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	return newExecutor(nil, opts).do(ctx, fn)
}
