// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"context"
	"errors"

	"github.com/luxfi/cache/lru"
	"github.com/luxfi/log"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/session"
	"github.com/luxfi/worldsync/transport"
)

var errIllegalMessage = errors.New("message illegal in current sync phase")

// Router classifies every outbound application message against the rule
// table and the peer's stage state, then forwards, defers, or drops it.
type Router struct {
	log     log.Logger
	sess    *session.Session
	client  *session.Client
	stages  *stageTracker
	queue   *messageQueue
	metrics *syncMetrics

	// warned dedupes the unknown-discriminant warning.
	warned *lru.Cache[string, struct{}]
}

func newRouter(
	logger log.Logger,
	sess *session.Session,
	client *session.Client,
	stages *stageTracker,
	queue *messageQueue,
	metrics *syncMetrics,
) *Router {
	return &Router{
		log:     logger,
		sess:    sess,
		client:  client,
		stages:  stages,
		queue:   queue,
		metrics: metrics,
		warned:  lru.NewCache[string, struct{}](128),
	}
}

// Route classifies a message. While the rule's stage is complete the After
// handling applies; while it is in progress the During handling applies;
// otherwise the Before handling.
func (r *Router) Route(msg protocol.Message) Handling {
	discriminant := msg.Type()
	rule, known := RuleFor(discriminant)
	if !known {
		if _, seen := r.warned.Get(discriminant); !seen {
			r.warned.Put(discriminant, struct{}{})
			r.log.Warn("no sync rule for message; deferring until sync completes",
				log.Stringer("clientID", r.client.ID()),
				log.String("messageType", discriminant),
			)
		}
	}

	// A stage that never completes on its own (StageNever rules) is
	// released when the sync as a whole does.
	switch {
	case r.stages.Completed(rule.Stage) || r.stages.Completed(StageAlways):
		return rule.After
	case r.stages.InProgress(rule.Stage):
		return rule.During
	default:
		return rule.Before
	}
}

// Send routes a message and acts on the verdict. A non-nil reply is the
// caller's continuation; it is always eventually resolved or rejected.
func (r *Router) Send(msg protocol.Message, reply *transport.Reply) {
	handling := r.Route(msg)
	r.metrics.observeRouted(handling)

	switch handling {
	case Allow:
		r.dispatch(msg, reply)

	case Queue:
		r.queue.Push(msg, reply)
		r.metrics.observeQueueLen(r.queue.Len())

	case Ignore:
		r.log.Debug("ignoring message during sync",
			log.Stringer("clientID", r.client.ID()),
			log.String("messageType", msg.Type()),
		)
		if reply != nil {
			r.log.Warn("resolving ignored message's reply as empty",
				log.Stringer("clientID", r.client.ID()),
				log.String("messageType", msg.Type()),
			)
			reply.Resolve(nil)
		}

	case Error:
		inProgress, complete := r.stages.snapshot()
		r.log.Error("message illegal in current sync phase",
			log.Stringer("clientID", r.client.ID()),
			log.String("messageType", msg.Type()),
			log.Reflect("inProgress", inProgress),
			log.Reflect("complete", complete),
		)
		if reply != nil {
			reply.Reject(errIllegalMessage)
		}
	}
}

// dispatch forwards an allowed message. While this client is authoritative
// mid-sync it is the only joined peer, so the application itself is awaiting
// any reply; the reply is echoed onto the session's app-facing connection.
func (r *Router) dispatch(msg protocol.Message, reply *transport.Reply) {
	conn := r.client.Conn()

	if reply == nil {
		if err := conn.Send(msg); err != nil {
			r.log.Error("failed to forward message",
				log.Stringer("clientID", r.client.ID()),
				log.String("messageType", msg.Type()),
				log.Err(err),
			)
		}
		return
	}

	echo := r.client.Authoritative() && !r.stages.Completed(StageAlways)
	inner := conn.Request(msg)
	go func() {
		res, err := inner.Await(context.Background())
		if err != nil {
			reply.Reject(err)
			return
		}
		if echo && res != nil {
			if appConn := r.sess.Conn(); appConn != nil {
				if err := appConn.Send(res); err != nil {
					r.log.Warn("failed to echo reply to application",
						log.Stringer("clientID", r.client.ID()),
						log.String("messageType", res.Type()),
						log.Err(err),
					)
				}
			}
		}
		reply.Resolve(res)
	}()
}
