package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/costtrack-api/internal/domain"
	"github.com/jhoicas/costtrack-api/internal/domain/entity"
	"github.com/jhoicas/costtrack-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository     = (*ProductRepo)(nil)
	_ repository.CustomerRepository    = (*CustomerRepo)(nil)
	_ repository.ProductCostRepository = (*ProductCostRepo)(nil)
	_ repository.UserRepository        = (*UserRepo)(nil)
	_ repository.AnalyticsRepository   = (*AnalyticsRepo)(nil)
)

func ilike(haystack ...string) func(q string) bool {
	return func(q string) bool {
		q = strings.ToLower(q)
		for _, h := range haystack {
			if strings.Contains(strings.ToLower(h), q) {
				return true
			}
		}
		return false
	}
}

func userName(st *state, id string) string {
	if u, ok := st.users[id]; ok {
		return u.Name
	}
	return ""
}

// newestFirst ordena por created_at desc y luego por orden de inserción desc.
func newestFirst(st *state, aID, bID string, a, b time.Time) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return st.order[aID] > st.order[bID]
}

// ──────────────────────────────────────────────────────────────────────────────
// Products
// ──────────────────────────────────────────────────────────────────────────────

// ProductRepo implementa repository.ProductRepository en memoria.
type ProductRepo struct{ b binding }

func (r *ProductRepo) view(st *state, p *entity.Product) *entity.Product {
	c := copyProduct(p)
	c.CreatedByName = userName(st, p.CreatedBy)
	return c
}

func codeTaken(st *state, code, excludeID string) bool {
	for id, p := range st.products {
		if p.Code == code && id != excludeID {
			return true
		}
	}
	return false
}

func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	return r.b.write(ctx, "products.create", func(st *state) error {
		if codeTaken(st, product.Code, "") {
			return &domain.DuplicateError{Field: "product_code"}
		}
		c := copyProduct(product)
		c.CreatedByName = ""
		st.products[c.ID] = c
		st.touch(c.ID)
		return nil
	})
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (out *entity.Product, err error) {
	err = r.b.read(ctx, "products.get", func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = r.view(st, p)
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (out *entity.Product, err error) {
	err = r.b.read(ctx, "products.lock", func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) ExistsByCode(ctx context.Context, code, excludeID string) (found bool, err error) {
	err = r.b.read(ctx, "products.exists", func(st *state) error {
		found = codeTaken(st, code, excludeID)
		return nil
	})
	return found, err
}

func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	return r.b.write(ctx, "products.update", func(st *state) error {
		cur, ok := st.products[product.ID]
		if !ok {
			return domain.ErrProductNotFound
		}
		if codeTaken(st, product.Code, product.ID) {
			return &domain.DuplicateError{Field: "product_code"}
		}
		c := copyProduct(product)
		c.CreatedBy, c.CreatedAt, c.CreatedByName = cur.CreatedBy, cur.CreatedAt, ""
		st.products[c.ID] = c
		return nil
	})
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return r.b.write(ctx, "products.delete", func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.ErrProductNotFound
		}
		n := 0
		for _, c := range st.costs {
			if c.ProductID == id {
				n++
			}
		}
		if n > 0 {
			return &domain.DependentsError{Constraint: "product_costs_product_id_fkey", Count: n}
		}
		delete(st.products, id)
		return nil
	})
}

func matchProduct(p *entity.Product, f repository.ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Brand != "" && p.Brand != f.Brand {
		return false
	}
	if f.Search != "" && !ilike(p.Name, p.Code)(f.Search) {
		return false
	}
	return true
}

func (r *ProductRepo) List(ctx context.Context, f repository.ProductFilter) (out []*entity.Product, err error) {
	err = r.b.read(ctx, "products.list", func(st *state) error {
		for _, p := range st.products {
			if matchProduct(p, f) {
				out = append(out, r.view(st, p))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return newestFirst(st, out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

func (r *ProductRepo) ListByCriticalLevel(ctx context.Context, limit int) (out []*entity.Product, err error) {
	err = r.b.read(ctx, "products.list", func(st *state) error {
		for _, p := range st.products {
			out = append(out, r.view(st, p))
		}
		sort.Slice(out, func(i, j int) bool {
			if c := out[i].CriticalStockLevel.Cmp(out[j].CriticalStockLevel); c != 0 {
				return c > 0
			}
			return st.order[out[i].ID] < st.order[out[j].ID]
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Customers
// ──────────────────────────────────────────────────────────────────────────────

// CustomerRepo implementa repository.CustomerRepository en memoria.
type CustomerRepo struct{ b binding }

func (r *CustomerRepo) view(st *state, c *entity.Customer) *entity.Customer {
	out := copyCustomer(c)
	out.CreatedByName = userName(st, c.CreatedBy)
	return out
}

func customerCodeTaken(st *state, code, excludeID string) bool {
	for id, c := range st.customers {
		if c.Code == code && id != excludeID {
			return true
		}
	}
	return false
}

func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	return r.b.write(ctx, "customers.create", func(st *state) error {
		if customerCodeTaken(st, customer.Code, "") {
			return &domain.DuplicateError{Field: "customer_code"}
		}
		c := copyCustomer(customer)
		c.CreatedByName = ""
		st.customers[c.ID] = c
		st.touch(c.ID)
		return nil
	})
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (out *entity.Customer, err error) {
	err = r.b.read(ctx, "customers.get", func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = r.view(st, c)
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) GetForUpdate(ctx context.Context, id string) (out *entity.Customer, err error) {
	err = r.b.read(ctx, "customers.lock", func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = copyCustomer(c)
		}
		return nil
	})
	return out, err
}

func (r *CustomerRepo) ExistsByCode(ctx context.Context, code, excludeID string) (found bool, err error) {
	err = r.b.read(ctx, "customers.exists", func(st *state) error {
		found = customerCodeTaken(st, code, excludeID)
		return nil
	})
	return found, err
}

func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	return r.b.write(ctx, "customers.update", func(st *state) error {
		cur, ok := st.customers[customer.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if customerCodeTaken(st, customer.Code, customer.ID) {
			return &domain.DuplicateError{Field: "customer_code"}
		}
		c := copyCustomer(customer)
		c.CreatedBy, c.CreatedAt, c.CreatedByName = cur.CreatedBy, cur.CreatedAt, ""
		st.customers[c.ID] = c
		return nil
	})
}

func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	return r.b.write(ctx, "customers.delete", func(st *state) error {
		if _, ok := st.customers[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.customers, id)
		return nil
	})
}

func (r *CustomerRepo) List(ctx context.Context, f repository.CustomerFilter) (out []*entity.Customer, err error) {
	err = r.b.read(ctx, "customers.list", func(st *state) error {
		for _, c := range st.customers {
			switch {
			case f.SalesRep != "" && c.SalesRep != f.SalesRep:
				continue
			case f.Country != "" && c.Country != f.Country:
				continue
			case f.Region != "" && c.RegionOrState != f.Region:
				continue
			case f.Search != "" && !ilike(c.Name, c.Code)(f.Search):
				continue
			}
			out = append(out, r.view(st, c))
		}
		sort.Slice(out, func(i, j int) bool {
			return newestFirst(st, out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

func (r *CustomerRepo) ListWithRiskLimit(ctx context.Context) (out []*entity.Customer, err error) {
	err = r.b.read(ctx, "customers.list", func(st *state) error {
		for _, c := range st.customers {
			if c.HasRiskLimit() {
				out = append(out, r.view(st, c))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if c := out[i].BalanceRiskLimit.Cmp(*out[j].BalanceRiskLimit); c != 0 {
				return c < 0
			}
			return st.order[out[i].ID] < st.order[out[j].ID]
		})
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Product costs
// ──────────────────────────────────────────────────────────────────────────────

// ProductCostRepo implementa repository.ProductCostRepository en memoria.
type ProductCostRepo struct{ b binding }

func costView(st *state, c *entity.ProductCost) *entity.ProductCost {
	out := copyCost(c)
	out.ProductName, out.ProductCode = "", ""
	if p, ok := st.products[c.ProductID]; ok {
		out.ProductName, out.ProductCode = p.Name, p.Code
	}
	return out
}

func (r *ProductCostRepo) Create(ctx context.Context, cost *entity.ProductCost) error {
	return r.b.write(ctx, "costs.create", func(st *state) error {
		if _, ok := st.products[cost.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
		st.costs[cost.ID] = copyCost(cost)
		st.touch(cost.ID)
		return nil
	})
}

func (r *ProductCostRepo) GetByID(ctx context.Context, id string) (out *entity.ProductCost, err error) {
	err = r.b.read(ctx, "costs.get", func(st *state) error {
		if c, ok := st.costs[id]; ok {
			out = costView(st, c)
		}
		return nil
	})
	return out, err
}

func (r *ProductCostRepo) GetForUpdate(ctx context.Context, id string) (out *entity.ProductCost, err error) {
	err = r.b.read(ctx, "costs.lock", func(st *state) error {
		if c, ok := st.costs[id]; ok {
			out = copyCost(c)
		}
		return nil
	})
	return out, err
}

func (r *ProductCostRepo) Update(ctx context.Context, cost *entity.ProductCost) error {
	return r.b.write(ctx, "costs.update", func(st *state) error {
		cur, ok := st.costs[cost.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.products[cost.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
		c := copyCost(cost)
		c.CreatedBy, c.CreatedAt = cur.CreatedBy, cur.CreatedAt
		st.costs[c.ID] = c
		return nil
	})
}

func (r *ProductCostRepo) Delete(ctx context.Context, id string) error {
	return r.b.write(ctx, "costs.delete", func(st *state) error {
		if _, ok := st.costs[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.costs, id)
		return nil
	})
}

func matchCost(c *entity.ProductCost, f repository.ProductCostFilter) bool {
	if f.ProductID != "" && c.ProductID != f.ProductID {
		return false
	}
	if f.Month != nil && !c.Month.Equal(*f.Month) {
		return false
	}
	if f.From != nil && c.Month.Before(*f.From) {
		return false
	}
	if f.To != nil && c.Month.After(*f.To) {
		return false
	}
	return true
}

func (r *ProductCostRepo) List(ctx context.Context, f repository.ProductCostFilter) (out []*entity.ProductCost, err error) {
	err = r.b.read(ctx, "costs.list", func(st *state) error {
		for _, c := range st.costs {
			if matchCost(c, f) {
				out = append(out, costView(st, c))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if !a.Month.Equal(b.Month) {
				return a.Month.After(b.Month)
			}
			if a.ProductName != b.ProductName {
				return a.ProductName < b.ProductName
			}
			return st.order[a.ID] > st.order[b.ID]
		})
		return nil
	})
	return out, err
}

func (r *ProductCostRepo) CountByProduct(ctx context.Context, productID string) (n int, err error) {
	err = r.b.read(ctx, "costs.count", func(st *state) error {
		for _, c := range st.costs {
			if c.ProductID == productID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────────────────────────────────

// UserRepo implementa repository.UserRepository en memoria.
type UserRepo struct{ b binding }

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	return r.b.write(ctx, "users.create", func(st *state) error {
		for _, u := range st.users {
			if u.Email == user.Email {
				return &domain.DuplicateError{Field: "email"}
			}
		}
		u := *user
		st.users[u.ID] = &u
		st.touch(u.ID)
		return nil
	})
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (out *entity.User, err error) {
	err = r.b.read(ctx, "users.get", func(st *state) error {
		if u, ok := st.users[id]; ok {
			c := *u
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (out *entity.User, err error) {
	err = r.b.read(ctx, "users.get", func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				c := *u
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Analytics
// ──────────────────────────────────────────────────────────────────────────────

// AnalyticsRepo implementa repository.AnalyticsRepository en memoria.
type AnalyticsRepo struct{ b binding }

func (r *AnalyticsRepo) count(ctx context.Context, fn func(st *state) int) (n int, err error) {
	err = r.b.read(ctx, "analytics.count", func(st *state) error {
		n = fn(st)
		return nil
	})
	return n, err
}

func (r *AnalyticsRepo) CountProducts(ctx context.Context) (int, error) {
	return r.count(ctx, func(st *state) int { return len(st.products) })
}

func (r *AnalyticsRepo) CountCustomers(ctx context.Context) (int, error) {
	return r.count(ctx, func(st *state) int { return len(st.customers) })
}

func (r *AnalyticsRepo) CountCategories(ctx context.Context) (int, error) {
	return r.count(ctx, func(st *state) int {
		seen := map[string]struct{}{}
		for _, p := range st.products {
			seen[p.Category] = struct{}{}
		}
		return len(seen)
	})
}

func (r *AnalyticsRepo) CountCostEntries(ctx context.Context) (int, error) {
	return r.count(ctx, func(st *state) int { return len(st.costs) })
}

func (r *AnalyticsRepo) CountCustomersWithRiskLimit(ctx context.Context) (int, error) {
	return r.count(ctx, func(st *state) int {
		n := 0
		for _, c := range st.customers {
			if c.HasRiskLimit() {
				n++
			}
		}
		return n
	})
}

func (r *AnalyticsRepo) RecentCosts(ctx context.Context, since time.Time, limit int) (out []*entity.ProductCost, err error) {
	err = r.b.read(ctx, "analytics.recent", func(st *state) error {
		for _, c := range st.costs {
			if !c.CreatedAt.Before(since) {
				out = append(out, costView(st, c))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return newestFirst(st, out[i].ID, out[j].ID, out[i].CreatedAt, out[j].CreatedAt)
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r *AnalyticsRepo) ProductCostSummaries(ctx context.Context, f repository.ProductFilter) (out []repository.ProductCostSummary, err error) {
	err = r.b.read(ctx, "analytics.summaries", func(st *state) error {
		for _, p := range st.products {
			if !matchProduct(p, f) {
				continue
			}
			row := repository.ProductCostSummary{Product: copyProduct(p)}
			row.Product.CreatedByName = userName(st, p.CreatedBy)
			var latest *entity.ProductCost
			for _, c := range st.costs {
				if c.ProductID != p.ID {
					continue
				}
				row.CostEntries++
				if latest == nil || c.Month.After(latest.Month) ||
					(c.Month.Equal(latest.Month) && st.order[c.ID] > st.order[latest.ID]) {
					latest = c
				}
			}
			if latest != nil {
				m, d := latest.Month, latest.UnitCost
				row.LatestCostMonth, row.LatestCost = &m, &d
			}
			out = append(out, row)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Product.Name != out[j].Product.Name {
				return out[i].Product.Name < out[j].Product.Name
			}
			return st.order[out[i].Product.ID] < st.order[out[j].Product.ID]
		})
		return nil
	})
	return out, err
}
