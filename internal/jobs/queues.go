package jobs

import (
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/queue"
)

// Queues 每个实体领域一个队列，共用同一个 broker
type Queues struct {
	User         *queue.Queue
	Post         *queue.Queue
	Comment      *queue.Queue
	Reaction     *queue.Queue
	Follower     *queue.Queue
	BlockedUser  *queue.Queue
	Chat         *queue.Queue
	Image        *queue.Queue
	Notification *queue.Queue
	Email        *queue.Queue
}

func NewQueues(b queue.Broker, log *zap.Logger) *Queues {
	named := func(name string) *queue.Queue {
		var l *zap.Logger
		if log != nil {
			l = log.Named("queue." + name)
		}
		return queue.New(name, b, l)
	}
	return &Queues{
		User:         named(queue.QueueUser),
		Post:         named(queue.QueuePost),
		Comment:      named(queue.QueueComment),
		Reaction:     named(queue.QueueReaction),
		Follower:     named(queue.QueueFollower),
		BlockedUser:  named(queue.QueueBlockedUser),
		Chat:         named(queue.QueueChat),
		Image:        named(queue.QueueImage),
		Notification: named(queue.QueueNotification),
		Email:        named(queue.QueueEmail),
	}
}
