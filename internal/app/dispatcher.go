package app

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ilinovom/photo-stats-bot/pkg/logger"
	"github.com/ilinovom/photo-stats-bot/pkg/telegram"
	"github.com/spaolacci/murmur3"
)

const defaultQueueSize = 64

// MessageHandler handles a single message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, m *telegram.Message)
}

type job struct {
	id     string
	update telegram.Update
}

// Dispatcher fans updates out to a fixed set of workers. All updates of a
// chat go to the same worker, so they are handled one at a time and in order,
// while different chats proceed in parallel.
type Dispatcher struct {
	handler MessageHandler
	queues  []chan job
	logger  logger.Logger
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(workers int, handler MessageHandler, log logger.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{handler: handler, logger: log, queues: make([]chan job, workers)}
	for i := range d.queues {
		d.queues[i] = make(chan job, defaultQueueSize)
	}
	return d
}

// Start launches the workers. Handlers run with a context that is not
// cancelled with ctx so that queued updates are drained on Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	hctx := context.WithoutCancel(ctx)
	for i, q := range d.queues {
		d.wg.Add(1)
		go func(worker int, q <-chan job) {
			defer d.wg.Done()
			for j := range q {
				d.handle(hctx, worker, j)
			}
		}(i, q)
	}
}

// Dispatch queues the update for its chat's worker. It blocks while the queue
// is full and fails only when ctx is done.
func (d *Dispatcher) Dispatch(ctx context.Context, u telegram.Update) error {
	if u.Message == nil {
		return nil
	}
	q := d.queues[shardFor(u.Message.Chat.ID, len(d.queues))]
	select {
	case q <- job{id: uuid.NewString(), update: u}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queues and waits for the workers to finish queued updates.
// Dispatch must not be called after Stop.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		for _, q := range d.queues {
			close(q)
		}
	})
	d.wg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, worker int, j job) {
	m := j.update.Message
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error(ctx, "handler panic",
				logger.String("trace_id", j.id),
				logger.ChatID(m.Chat.ID),
				logger.Error(fmt.Errorf("%v", r)),
			)
		}
	}()
	d.logger.Debug(ctx, "handling update",
		logger.String("trace_id", j.id),
		logger.Int("update_id", j.update.UpdateID),
		logger.Int("worker", worker),
		logger.ChatID(m.Chat.ID),
	)
	d.handler.HandleMessage(ctx, m)
}

// shardFor maps a chat to a worker index.
func shardFor(chatID int64, n int) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(chatID))
	return int(murmur3.Sum32(b[:]) % uint32(n))
}
