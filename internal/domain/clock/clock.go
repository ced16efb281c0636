package clock

import "time"

// Clock supplies the current instant for due-date and expiry comparisons.
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns T. Tests advance it by assigning a new value.
type Fixed struct{ T time.Time }

func (f *Fixed) Now() time.Time { return f.T.UTC() }

func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// Func adapts a plain function to Clock.
type Func func() time.Time

func (fn Func) Now() time.Time { return fn().UTC() }
