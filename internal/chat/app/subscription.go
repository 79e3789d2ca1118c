package app

import (
	"context"
	"errors"
	"sync"

	"legal_consult_service/internal/chat/repository"
	errprocess "legal_consult_service/pkg/err"
)

// Subscription 可取消的即時查詢結果串流
// 第一次推送為當下快照，之後每次變更事件都重新查詢並推送完整結果
// Updates 只保留最新一筆未讀取的快照，慢的 consumer 不會卡住 listener
type Subscription[T any] struct {
	ctx      context.Context
	cancel   context.CancelFunc
	listener repository.Listener

	updates chan T
	errs    chan error
	done    chan struct{}
	once    sync.Once
}

func newSubscription[T any](parent context.Context, listener repository.Listener) *Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	return &Subscription[T]{
		ctx:      ctx,
		cancel:   cancel,
		listener: listener,
		updates:  make(chan T, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
}

// Updates snapshot stream, closed when the subscription ends
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Errors 至多一個錯誤，之後訂閱即結束，不會自動重試
func (s *Subscription[T]) Errors() <-chan error {
	return s.errs
}

// Done closed after the listener goroutine exits
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe 停止推送並關閉 listener，可重複呼叫
// 回傳後 Updates 不會再有任何資料
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		_ = s.listener.Close()
	})
	<-s.done
}

func (s *Subscription[T]) run(load func(context.Context) (T, error), after func(context.Context, T)) {
	defer close(s.done)
	defer close(s.errs)
	defer close(s.updates)
	defer s.discardIfCancelled()
	defer s.listener.Close()

	refresh := func() bool {
		v, err := load(s.ctx)
		if s.ctx.Err() != nil {
			return false
		}
		if err != nil {
			s.errs <- errprocess.Remote(err, "refresh subscription")
			return false
		}
		s.deliver(v)
		if after != nil {
			after(s.ctx, v)
		}
		return true
	}

	if !refresh() {
		return
	}

	events := s.listener.Events()
	for {
		select {
		case <-s.ctx.Done():
			return
		case _, ok := <-events:
			if !ok || !coalesce(events) {
				if s.ctx.Err() == nil {
					s.errs <- errprocess.Remote(errors.New("change stream closed"), "subscription")
				}
				return
			}
			if !refresh() {
				return
			}
		}
	}
}

// coalesce 把已排隊的事件一次吃掉，只做一次重新查詢；stream 已關閉時回傳 false
func coalesce[E any](events <-chan E) bool {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// deliver latest-wins：buffer 滿時丟掉舊的快照
func (s *Subscription[T]) deliver(v T) {
	for {
		select {
		case s.updates <- v:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *Subscription[T]) discardIfCancelled() {
	if s.ctx.Err() == nil {
		return
	}
	select {
	case <-s.updates:
	default:
	}
}
