// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
)

var _ Handler = NoopHandler{}

// Handler receives inbound payloads that are not replies to an outstanding
// request.
type Handler interface {
	HandleSyncRequest(clientID ids.ID, msg *SyncRequest) error
	HandleActorUpdate(clientID ids.ID, msg *ActorUpdate) error
	HandleTrace(clientID ids.ID, msg *Trace) error
}

type NoopHandler struct {
	Log log.Logger
}

func (h NoopHandler) HandleSyncRequest(clientID ids.ID, _ *SyncRequest) error {
	h.Log.Debug("dropping unexpected SyncRequest message",
		log.Stringer("clientID", clientID),
	)
	return nil
}

func (h NoopHandler) HandleActorUpdate(clientID ids.ID, _ *ActorUpdate) error {
	h.Log.Debug("dropping unexpected ActorUpdate message",
		log.Stringer("clientID", clientID),
	)
	return nil
}

func (h NoopHandler) HandleTrace(clientID ids.ID, _ *Trace) error {
	h.Log.Debug("dropping unexpected Trace message",
		log.Stringer("clientID", clientID),
	)
	return nil
}
