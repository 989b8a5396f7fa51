package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// StatsService computes the dashboard and rollup aggregations.
type StatsService struct {
	customers    ports.CustomerRepository
	details      ports.DetailRepository
	affiliations ports.AffiliationRepository
	users        ports.UserRepository
	cache        ports.StatsCache
	loc          *time.Location
	now          Clock
	log          zerolog.Logger
}

func NewStatsService(
	customers ports.CustomerRepository,
	details ports.DetailRepository,
	affiliations ports.AffiliationRepository,
	users ports.UserRepository,
	cache ports.StatsCache,
	loc *time.Location,
	log zerolog.Logger,
) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{
		customers:    customers,
		details:      details,
		affiliations: affiliations,
		users:        users,
		cache:        cache,
		loc:          loc,
		now:          time.Now,
		log:          log,
	}
}

// WithClock replaces the time source.
func (s *StatsService) WithClock(now Clock) *StatsService {
	s.now = now
	return s
}

// GetDashboardStats reports amount, count, average order value and new
// customers for period, each compared against the preceding window.
func (s *StatsService) GetDashboardStats(ctx context.Context, id domain.Identity, period string) (*ports.DashboardStats, error) {
	period = normalizePeriod(period)
	now := s.now().In(s.loc)
	cur, prev, err := periodWindows(period, now)
	if err != nil {
		return nil, err
	}

	scope := ownerScope(id)
	key := dashboardKey(period, scope)
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		cached, g, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("key", key).Msg("stats cache read failed")
		case ok:
			return cached, nil
		default:
			gen, cacheable = g, true
		}
	}

	var c, p totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		c, err = s.windowTotals(gctx, scope, cur)
		return err
	})
	g.Go(func() (err error) {
		p, err = s.windowTotals(gctx, scope, prev)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &ports.DashboardStats{
		TransactionAmount: ports.Metric{Value: round2(c.amount), Change: change(c.amount, p.amount)},
		TransactionCount:  ports.Metric{Value: float64(c.count), Change: change(float64(c.count), float64(p.count))},
		AvgOrderValue:     ports.Metric{Value: round2(c.avg()), Change: change(c.avg(), p.avg())},
		CustomerCount:     ports.Metric{Value: float64(c.customers), Change: change(float64(c.customers), float64(p.customers))},
		PeriodInfo: ports.PeriodInfo{
			StartDate: cur.start,
			EndDate:   cur.end,
			Period:    period,
		},
	}

	if cacheable {
		if err := s.cache.Set(ctx, gen, key, stats); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
		}
	}
	return stats, nil
}

type totals struct {
	amount    float64
	count     int
	customers int64
}

func (t totals) avg() float64 {
	if t.count == 0 {
		return 0
	}
	return t.amount / float64(t.count)
}

func (s *StatsService) windowTotals(ctx context.Context, scope string, w window) (totals, error) {
	details, err := s.details.List(ctx, ports.DetailQuery{SubmitUser: scope, From: w.start, To: w.end})
	if err != nil {
		return totals{}, err
	}
	var t totals
	for _, d := range details {
		t.amount += d.TotalAmount
	}
	t.count = len(details)

	_, n, err := s.customers.List(ctx, ports.CustomerQuery{
		SubmitUser:    scope,
		SubmittedFrom: w.start,
		SubmittedTo:   w.end,
		Page:          1,
		Limit:         1,
	})
	if err != nil {
		return totals{}, err
	}
	t.customers = n
	return t, nil
}

// GetCustomerStatsByAffiliation rolls the caller's visible customers up per
// visible affiliation, plus a 无归属 row for unassigned customers.
func (s *StatsService) GetCustomerStatsByAffiliation(ctx context.Context, id domain.Identity) ([]ports.AffiliationStats, error) {
	affiliations, err := s.affiliations.List(ctx, affiliationScope(id))
	if err != nil {
		return nil, err
	}

	scope := ownerScope(id)
	customers, _, err := s.customers.List(ctx, ports.CustomerQuery{SubmitUser: scope})
	if err != nil {
		return nil, err
	}
	details, err := s.details.List(ctx, ports.DetailQuery{SubmitUser: scope})
	if err != nil {
		return nil, err
	}
	amounts := amountsByCustomer(details)

	grouped := make(map[string][]*domain.Customer)
	for _, c := range customers {
		name := c.AffiliationName()
		grouped[name] = append(grouped[name], c)
	}

	out := make([]ports.AffiliationStats, 0, len(affiliations)+1)
	for _, a := range affiliations {
		out = append(out, ports.AffiliationStats{
			Affiliation: a.Name,
			Avatar:      a.Avatar,
			Link:        a.Link,
			SubmitUser:  a.SubmitUser,
			Breakdown:   breakdown(grouped[a.Name], amounts),
		})
	}
	if unassigned := grouped[""]; len(unassigned) > 0 {
		out = append(out, ports.AffiliationStats{
			Affiliation: domain.NoAffiliation,
			Breakdown:   breakdown(unassigned, amounts),
		})
	}
	return out, nil
}

// GetUsersAnalysisData reports per-user performance. Admin and manager only.
func (s *StatsService) GetUsersAnalysisData(ctx context.Context, id domain.Identity) ([]ports.UserStats, error) {
	if !id.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	if !id.Privileged() {
		return nil, domain.ErrPrivilegedOnly
	}

	users, _, err := s.users.List(ctx, ports.UserQuery{})
	if err != nil {
		return nil, err
	}
	customers, _, err := s.customers.List(ctx, ports.CustomerQuery{})
	if err != nil {
		return nil, err
	}
	details, err := s.details.List(ctx, ports.DetailQuery{})
	if err != nil {
		return nil, err
	}
	amounts := amountsByCustomer(details)

	byOwner := make(map[string][]*domain.Customer)
	owner := make(map[int64]string, len(customers))
	for _, c := range customers {
		byOwner[c.SubmitUser] = append(byOwner[c.SubmitUser], c)
		owner[c.ID] = c.SubmitUser
	}

	now := s.now().In(s.loc)
	week, month := trailingDays(now, 7), trailingDays(now, 30)
	revenue7 := make(map[string]float64)
	revenue30 := make(map[string]float64)
	for _, d := range details {
		at := d.TransactionTime.In(s.loc)
		if week.contains(at) {
			revenue7[owner[d.CustomerID]] += d.TotalAmount
		}
		if month.contains(at) {
			revenue30[owner[d.CustomerID]] += d.TotalAmount
		}
	}

	out := make([]ports.UserStats, 0, len(users))
	for _, u := range users {
		own := byOwner[u.Username]
		b := breakdown(own, amounts)

		closed := 0
		var new7, new30 int
		for _, c := range own {
			if c.TransactionStatus == domain.DealClosed {
				closed++
			}
			at := c.SubmitTime.In(s.loc)
			if week.contains(at) {
				new7++
			}
			if month.contains(at) {
				new30++
			}
		}

		var avg float64
		if len(own) > 0 {
			avg = round2(b.TotalAmount / float64(len(own)))
		}

		out = append(out, ports.UserStats{
			UserID:           u.ID,
			Username:         u.Username,
			Email:            u.Email,
			Role:             u.Role,
			LastLogin:        u.LastLogin,
			AvgCustomerValue: avg,
			ConversionRate:   percentage(closed, len(own)),
			Last7Days:        ports.WindowStats{NewCustomers: new7, Revenue: round2(revenue7[u.Username])},
			Last30Days:       ports.WindowStats{NewCustomers: new30, Revenue: round2(revenue30[u.Username])},
			Breakdown:        b,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out, nil
}

func dashboardKey(period, scope string) string {
	if scope == "" {
		scope = "*"
	}
	return "dashboard:" + period + ":" + scope
}
