package console

import "time"

//Clock abstracts time so the scheduler, dispatcher and message expiry can be
//driven deterministically in tests.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
	AfterFunc(d time.Duration, f func()) Timer
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

//Timer is a cancellable one shot. Stop reports whether the call prevented
//the function from running.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Ticker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) Chan() <-chan time.Time {
	return r.t.C
}

func (r *realTicker) Stop() {
	r.t.Stop()
}

//SystemClock is the clock the binaries run on.
func SystemClock() Clock {
	return realClock{}
}
