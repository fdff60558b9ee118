package server

import "sync/atomic"

//
// Non-blocking lock guarding the single conversation a server runs.
//
//  if l.TryLock() {
//     defer l.Unlock()
//     ...
//  }
//

type Lock struct {
	state int32
}

func (l *Lock) TryLock() bool {
	return atomic.CompareAndSwapInt32(&l.state, 0, 1)
}

func (l *Lock) Unlock() {
	atomic.StoreInt32(&l.state, 0)
}
