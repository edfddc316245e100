// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peersync

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/worldsync/protocol"
	"github.com/luxfi/worldsync/session"
	"github.com/luxfi/worldsync/transport"
	"github.com/luxfi/worldsync/utils/timer/mockable"
)

// Protocol drives one joining peer through the staged catch-up sequence.
// It owns the peer's stage state, outbound queue, and router for the
// duration of the sync; afterwards traffic flows through the generic
// transport and this instance is discarded.
type Protocol struct {
	log     log.Logger
	sess    *session.Session
	client  *session.Client
	stages  *stageTracker
	queue   *messageQueue
	router  *Router
	metrics *syncMetrics
	clock   mockable.Clock
}

func New(
	logger log.Logger,
	sess *session.Session,
	client *session.Client,
	registry metric.Registry,
) (*Protocol, error) {
	metrics, err := newMetrics(registry)
	if err != nil {
		return nil, err
	}

	stages := newStageTracker()
	queue := newMessageQueue()
	return &Protocol{
		log:     logger,
		sess:    sess,
		client:  client,
		stages:  stages,
		queue:   queue,
		router:  newRouter(logger, sess, client, stages, queue, metrics),
		metrics: metrics,
	}, nil
}

// Router returns the router the application must send through while this
// peer is syncing.
func (p *Protocol) Router() *Router {
	return p.router
}

// Run calibrates the link and replays cached session state until the peer
// is observationally identical to the peers already present. On any error
// the peer's sync as a whole fails: queued messages are rejected and the
// peer is treated as never having joined.
func (p *Protocol) Run(ctx context.Context) error {
	if err := p.calibrate(ctx); err != nil {
		return p.fail(err)
	}

	p.metrics.syncsStarted.Inc()
	start := p.clock.Time()

	if err := p.sync(ctx); err != nil {
		return p.fail(err)
	}

	p.metrics.syncsCompleted.Inc()
	p.metrics.syncDuration.Observe(p.clock.Time().Sub(start).Seconds())
	p.log.Info("peer sync complete",
		log.Stringer("clientID", p.client.ID()),
	)
	return nil
}

func (p *Protocol) fail(err error) error {
	p.metrics.syncsFailed.Inc()
	p.queue.RejectAll(err)
	p.log.Error("peer sync failed",
		log.Stringer("clientID", p.client.ID()),
		log.Err(err),
	)
	return err
}

func (p *Protocol) sync(ctx context.Context) error {
	p.stages.Begin(StageAlways)

	if p.sess.PeerAuthoritative() {
		for _, stage := range Sequence {
			p.stages.Begin(stage)
			if err := p.execute(ctx, stage); err != nil {
				return fmt.Errorf("stage %s: %w", stage, err)
			}
			p.stages.Complete(stage)
			if err := p.drainQueue(ctx); err != nil {
				return err
			}
		}
	}

	p.stages.Complete(StageAlways)
	p.router.Send(&protocol.SyncComplete{}, nil)
	return p.drainQueue(ctx)
}

func (p *Protocol) execute(ctx context.Context, stage Stage) error {
	switch stage {
	case StageLoadAssets:
		return p.loadAssets(ctx)
	case StageCreateActors:
		return p.createActors(ctx)
	case StageSetBehaviors:
		return p.setBehaviors()
	case StageCreateAnimations:
		return p.createAnimations(ctx)
	case StageSyncAnimations:
		if p.client.Authoritative() {
			return nil
		}
		return p.syncAnimations(ctx)
	default:
		return nil
	}
}

// loadAssets replays every cached load-asset message, awaiting the replies
// together, then fires the cached asset patches.
func (p *Protocol) loadAssets(ctx context.Context) error {
	assets := p.sess.Cache().Assets()
	replies := make([]*transport.Reply, len(assets))
	for i, asset := range assets {
		replies[i] = transport.NewReply()
		p.router.Send(asset, replies[i])
	}
	if err := awaitAll(ctx, replies); err != nil {
		return err
	}

	for _, update := range p.sess.Cache().AssetUpdates() {
		p.router.Send(update, nil)
	}
	return nil
}

// createActors replays the cached actor tree depth first. A child is never
// sent before its parent's reply is observed, because child payloads
// reference the parent's id; sibling subtrees fan out in parallel.
func (p *Protocol) createActors(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, root := range p.sess.Cache().RootActors() {
		g.Go(func() error {
			return p.createActorTree(gctx, root)
		})
	}
	return g.Wait()
}

func (p *Protocol) createActorTree(ctx context.Context, actor session.CachedActor) error {
	reply := transport.NewReply()
	p.router.Send(actor.Created, reply)
	if _, err := reply.Await(ctx); err != nil {
		return fmt.Errorf("creating actor %s: %w", actor.ActorID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, child := range p.sess.Cache().ChildrenOf(actor.ActorID) {
		g.Go(func() error {
			return p.createActorTree(gctx, child)
		})
	}
	return g.Wait()
}

// setBehaviors attaches the cached behavior of every actor that has one.
// No replies are awaited.
func (p *Protocol) setBehaviors() error {
	for _, actor := range p.sess.Cache().Actors() {
		if actor.Behavior == "" {
			continue
		}
		p.router.Send(&protocol.SetBehavior{
			ActorID:      actor.ActorID,
			BehaviorType: actor.Behavior,
		}, nil)
	}
	return nil
}

// createAnimations forwards every cached interpolation with playback
// disabled (it resumes in the following stage) and replays every created
// animation, awaiting the replies together.
func (p *Protocol) createAnimations(ctx context.Context) error {
	var replies []*transport.Reply
	for _, actor := range p.sess.Cache().Actors() {
		for _, interpolation := range actor.ActiveInterpolations {
			paused := *interpolation
			paused.Enabled = false
			p.router.Send(&paused, nil)
		}
		for _, created := range actor.CreatedAnimations {
			reply := transport.NewReply()
			p.router.Send(created, reply)
			replies = append(replies, reply)
		}
	}
	return awaitAll(ctx, replies)
}

// drainQueue repeatedly releases every queued message whose classification
// has become allow, awaiting the released replies between rounds. The loop
// terminates because each round strictly shrinks the queue; once a round
// releases nothing, only the next stage transition can make progress.
func (p *Protocol) drainQueue(ctx context.Context) error {
	for {
		taken := p.queue.Filter(func(msg protocol.Message) bool {
			return p.router.Route(msg) == Allow
		})
		p.metrics.observeQueueLen(p.queue.Len())
		if len(taken) == 0 {
			return nil
		}

		var replies []*transport.Reply
		for _, entry := range taken {
			p.router.Send(entry.msg, entry.reply)
			if entry.reply != nil {
				replies = append(replies, entry.reply)
			}
		}
		if err := awaitAll(ctx, replies); err != nil {
			return err
		}
	}
}

func awaitAll(ctx context.Context, replies []*transport.Reply) error {
	for _, reply := range replies {
		if _, err := reply.Await(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Latency reports the client link's smoothed round trip.
func (p *Protocol) Latency() time.Duration {
	return p.client.Conn().Latency()
}
