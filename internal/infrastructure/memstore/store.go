// Package memstore es un store transaccional en memoria con las mismas restricciones que el esquema
// PostgreSQL (códigos únicos, FK restrict). Permite inyectar fallos por operación.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/costtrack-api/internal/application/usecase"
	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
)

var _ usecase.TxRunner = (*Store)(nil)

// Nombres de operación para inyección de fallos: "<tabla>.<op>", más "begin" y "commit".
const (
	OpBegin  = "begin"
	OpCommit = "commit"
)

type state struct {
	seq       int64
	order     map[string]int64
	users     map[string]*entity.User
	products  map[string]*entity.Product
	customers map[string]*entity.Customer
	costs     map[string]*entity.ProductCost
}

func newState() *state {
	return &state{
		order:     map[string]int64{},
		users:     map[string]*entity.User{},
		products:  map[string]*entity.Product{},
		customers: map[string]*entity.Customer{},
		costs:     map[string]*entity.ProductCost{},
	}
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range s.customers {
		c.customers[k] = copyCustomer(v)
	}
	for k, v := range s.costs {
		c.costs[k] = copyCost(v)
	}
	return c
}

func (s *state) touch(id string) {
	if _, ok := s.order[id]; !ok {
		s.seq++
		s.order[id] = s.seq
	}
}

type fault struct {
	err   error
	after bool
}

// Store guarda el estado y serializa las transacciones.
type Store struct {
	mu   sync.RWMutex
	data *state

	fmu    sync.Mutex
	faults map[string][]fault
	delays map[string]time.Duration
}

// New crea un store vacío.
func New() *Store {
	return &Store{data: newState(), faults: map[string][]fault{}, delays: map[string]time.Duration{}}
}

// FailOnce hace que la próxima llamada a op devuelva err sin ejecutarse.
func (s *Store) FailOnce(op string, err error) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	s.faults[op] = append(s.faults[op], fault{err: err})
}

// FailAfterOnce hace que la próxima llamada a op se ejecute y luego devuelva err.
func (s *Store) FailAfterOnce(op string, err error) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	s.faults[op] = append(s.faults[op], fault{err: err, after: true})
}

// Delay hace que op espere d (respetando el contexto) antes de ejecutarse.
func (s *Store) Delay(op string, d time.Duration) {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	s.delays[op] = d
}

func (s *Store) takeFault(op string, after bool) error {
	s.fmu.Lock()
	defer s.fmu.Unlock()
	list := s.faults[op]
	for i, f := range list {
		if f.after == after {
			s.faults[op] = append(list[:i:i], list[i+1:]...)
			return f.err
		}
	}
	return nil
}

// enter aplica retardo, contexto y fallos previos de op.
func (s *Store) enter(ctx context.Context, op string) error {
	s.fmu.Lock()
	d := s.delays[op]
	s.fmu.Unlock()
	if d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.takeFault(op, false)
}

// Run ejecuta fn sobre una copia del estado; solo se publica si fn y el commit terminan bien.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos usecase.TxRepos) error) error {
	if err := s.enter(ctx, OpBegin); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	b := binding{s: s, st: work}
	repos := usecase.TxRepos{
		Products:  &ProductRepo{b: b},
		Customers: &CustomerRepo{b: b},
		Costs:     &ProductCostRepo{b: b},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	if err := s.takeFault(OpCommit, false); err != nil {
		return fmt.Errorf("commit transaction: %w: %v", domain.ErrCommitUnknown, err)
	}
	s.data = work
	return nil
}

// binding ata un repositorio al estado de una transacción (st != nil) o al store con locking.
type binding struct {
	s  *Store
	st *state
}

func (b binding) read(ctx context.Context, op string, fn func(st *state) error) error {
	if err := b.s.enter(ctx, op); err != nil {
		return err
	}
	if b.st != nil {
		return fn(b.st)
	}
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	return fn(b.s.data)
}

func (b binding) write(ctx context.Context, op string, fn func(st *state) error) error {
	if err := b.s.enter(ctx, op); err != nil {
		return err
	}
	if b.st != nil {
		if err := fn(b.st); err != nil {
			return err
		}
		return b.s.takeFault(op, true)
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	work := b.s.data.clone()
	if err := fn(work); err != nil {
		return err
	}
	if err := b.s.takeFault(op, true); err != nil {
		return err
	}
	b.s.data = work
	return nil
}

func (s *Store) plain() binding { return binding{s: s} }

// Products repositorio fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{b: s.plain()} }

// Customers repositorio fuera de transacción.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{b: s.plain()} }

// Costs repositorio fuera de transacción.
func (s *Store) Costs() *ProductCostRepo { return &ProductCostRepo{b: s.plain()} }

// Users repositorio de identidades.
func (s *Store) Users() *UserRepo { return &UserRepo{b: s.plain()} }

// Analytics consultas de lectura.
func (s *Store) Analytics() *AnalyticsRepo { return &AnalyticsRepo{b: s.plain()} }

// Counts devuelve el número de filas por tabla (productos, clientes, costos).
func (s *Store) Counts() (products, customers, costs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.products), len(s.data.customers), len(s.data.costs)
}

func copyProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func copyCustomer(v *entity.Customer) *entity.Customer {
	c := *v
	if v.PaymentTermsLimit != nil {
		n := *v.PaymentTermsLimit
		c.PaymentTermsLimit = &n
	}
	if v.BalanceRiskLimit != nil {
		d := *v.BalanceRiskLimit
		c.BalanceRiskLimit = &d
	}
	return &c
}

func copyCost(v *entity.ProductCost) *entity.ProductCost {
	c := *v
	return &c
}
