package console

import (
	"sync"
	"time"
)

//Poller owns the repeating refresh timer of one view. Start arms the ticker,
//Stop disarms it and is safe to call any number of times. The initial fetch
//on view open is the view's own responsibility, the poller only covers the
//interval re-fires.
//
//When a view's key parameters change the view stops its poller and starts a
//fresh cycle, so at most one ticker is ever live per view instance.
type Poller struct {
	clock Clock

	mu     sync.Mutex
	ticker Ticker
	done   chan struct{}
}

func NewPoller(clock Clock) *Poller {
	if clock == nil {
		clock = realClock{}
	}

	return &Poller{clock: clock}
}

func (p *Poller) Start(interval time.Duration, action func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	p.ticker = p.clock.Ticker(interval)
	p.done = make(chan struct{})

	go p.run(p.ticker, p.done, action)
}

func (p *Poller) run(ticker Ticker, done chan struct{}, action func()) {
	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			//A tick can already be queued when Stop lands, drop it
			select {
			case <-done:
				return
			default:
			}

			action()
		}
	}
}

func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.done == nil {
		return
	}

	close(p.done)
	p.ticker.Stop()

	p.done = nil
	p.ticker = nil
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.done != nil
}
