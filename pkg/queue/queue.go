package queue

import (
	"context"
	"errors"
	"time"

	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("queue is full")

type Message struct {
	ID         string
	CreatedAt  time.Time
	RetryCount int
	Event      dao.Event
}

func NewMessage(ev dao.Event) *Message {
	return &Message{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		Event:      ev,
	}
}

type Processor interface {
	Process(Message) error
}

// ErrorMessager is told about messages that could not be delivered
type ErrorMessager interface {
	NotifyError(ctx context.Context, errorMessage error) error
}

type Service struct {
	queue      chan Message
	quit       chan bool
	maxRetries int

	ctx context.Context
	wm  ErrorMessager
}

func NewService(maxRetries, bufferSize int, ctx context.Context, wm ErrorMessager) *Service {
	return &Service{
		queue:      make(chan Message, bufferSize),
		quit:       make(chan bool),
		maxRetries: maxRetries,
		ctx:        ctx,
		wm:         wm,
	}
}

// Enqueue adds a message without blocking, a full queue drops it
func (s *Service) Enqueue(message Message) error {
	select {
	case s.queue <- message:
		return nil
	default:
		s.wm.NotifyError(s.ctx, ErrQueueFull)
		return ErrQueueFull
	}
}

// Notify queues an event for delivery
func (s *Service) Notify(ev dao.Event) {
	s.Enqueue(*NewMessage(ev))
}

func (s *Service) Close() {
	s.quit <- true
}

func (s *Service) Start(p Processor) error {
	for {
		select {
		case message := <-s.queue:
			// process an item in the queue
			err := p.Process(message)
			if err != nil {
				// if there is an error, requeue the message
				if message.RetryCount < s.maxRetries {
					message.RetryCount++
					if len(s.queue) == 0 {
						// if the queue was empty, we need to wait a bit
						// to avoid a busy loop
						extraWait := time.Duration(message.RetryCount) * time.Second
						time.Sleep(extraWait)
					}
					if s.Enqueue(message) == nil {
						continue
					}
				}

				sentry.CaptureException(err)
				s.wm.NotifyError(s.ctx, err)
			}
		case <-s.quit:
			// quit the service
			return nil
		}
	}
}
