package cacheservice

import (
	"math"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/cacheservice/internal/sentinel"
)

// Expiration describes how long an entry lives (lifespan) and how long it may sit unaccessed
// (idle time). Zero means "never" for either component, whatever convention the engine uses
// internally. The zero value is the eternal policy.
type Expiration struct {
	lifeTime time.Duration
	idleTime time.Duration
}

// DefaultExpiration is used whenever no explicit policy is supplied: lifespan and idle time are eternal.
var DefaultExpiration = Expiration{}

// Eternal returns the policy under which entries never expire.
func Eternal() Expiration {
	return DefaultExpiration
}

// NewExpiration builds a policy from a lifespan and an idle time. Negative durations fail with
// sentinel.ErrInvalidArgument.
func NewExpiration(lifeTime, idleTime time.Duration) (Expiration, error) {
	exp := Expiration{lifeTime: lifeTime, idleTime: idleTime}

	err := exp.Validate()
	if err != nil {
		return Expiration{}, err
	}

	return exp, nil
}

// NewExpirationIn builds a policy from amounts expressed in explicit units, e.g.
// NewExpirationIn(30, time.Minute, 5, time.Minute).
func NewExpirationIn(lifeTime int64, lifeUnit time.Duration, idleTime int64, idleUnit time.Duration) (Expiration, error) {
	if lifeUnit <= 0 || idleUnit <= 0 {
		return Expiration{}, ewrap.Wrapf(sentinel.ErrInvalidTimeUnit, "life unit %s, idle unit %s", lifeUnit, idleUnit)
	}

	if lifeTime < 0 || idleTime < 0 {
		return Expiration{}, ewrap.Wrapf(sentinel.ErrInvalidExpiration, "life time %d, idle time %d", lifeTime, idleTime)
	}

	life, err := scale(lifeTime, lifeUnit)
	if err != nil {
		return Expiration{}, err
	}

	idle, err := scale(idleTime, idleUnit)
	if err != nil {
		return Expiration{}, err
	}

	return NewExpiration(life, idle)
}

// Validate reports whether the policy holds negative durations.
func (e Expiration) Validate() error {
	if e.lifeTime < 0 || e.idleTime < 0 {
		return ewrap.Wrapf(sentinel.ErrInvalidExpiration, "life time %s, idle time %s", e.lifeTime, e.idleTime)
	}

	return nil
}

// IsEternal reports whether both the lifespan and the idle time are zero.
func (e Expiration) IsEternal() bool {
	return e.lifeTime == 0 && e.idleTime == 0
}

// LifeTime returns the lifespan; zero means entries do not expire by age.
func (e Expiration) LifeTime() time.Duration { return e.lifeTime }

// IdleTime returns the idle time; zero means entries do not expire by idleness.
func (e Expiration) IdleTime() time.Duration { return e.idleTime }

// LifeTimeIn returns the lifespan as a whole number of unit, truncated.
func (e Expiration) LifeTimeIn(unit time.Duration) int64 {
	return convert(e.lifeTime, unit)
}

// IdleTimeIn returns the idle time as a whole number of unit, truncated.
func (e Expiration) IdleTimeIn(unit time.Duration) int64 {
	return convert(e.idleTime, unit)
}

// WithLifeTime returns a copy of the policy with a different lifespan.
func (e Expiration) WithLifeTime(lifeTime time.Duration) (Expiration, error) {
	return NewExpiration(lifeTime, e.idleTime)
}

// String implements fmt.Stringer.
func (e Expiration) String() string {
	if e.IsEternal() {
		return "eternal"
	}

	return "lifetime=" + e.lifeTime.String() + " idle=" + e.idleTime.String()
}

func convert(d, unit time.Duration) int64 {
	if unit <= 0 {
		return 0
	}

	return int64(d / unit)
}

// scale converts amount units to a duration. Negative amounts and products beyond the
// time.Duration range fail with sentinel.ErrInvalidExpiration.
func scale(amount int64, unit time.Duration) (time.Duration, error) {
	if amount < 0 {
		return 0, ewrap.Wrapf(sentinel.ErrInvalidExpiration, "%d x %s is negative", amount, unit)
	}

	if unit > 0 && amount > math.MaxInt64/int64(unit) {
		return 0, ewrap.Wrapf(sentinel.ErrInvalidExpiration, "%d x %s overflows", amount, unit)
	}

	return time.Duration(amount) * unit, nil
}
