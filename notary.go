// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// notaryEntry binds one externally-handed-out PExternal to the epoch that
// minted it and the RNode it addresses within that epoch's Ensemble.
type notaryEntry struct {
	epochID uint64
	rnode   PRNode
}

// Notary is the process-wide registry mapping PExternal to (epoch, RNode)
// (§4.F). A PExternal survives arena compaction and epoch suspension
// because it never aliases an arena index directly.
type Notary struct {
	mu      sync.Mutex
	entries map[uuid.UUID]notaryEntry
	log     *zap.Logger
}

// NewNotary returns an empty Notary. A nil logger falls back to zap.NewNop.
func NewNotary(log *zap.Logger) *Notary {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notary{entries: make(map[uuid.UUID]notaryEntry), log: log}
}

// Register records external as belonging to epochID/rnode.
func (n *Notary) Register(external uuid.UUID, epochID uint64, rnode PRNode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries[external] = notaryEntry{epochID: epochID, rnode: rnode}
	n.log.Debug("notary register", zap.String("p_external", external.String()), zap.Uint64("epoch", epochID))
}

// Deregister removes external, e.g. on epoch teardown.
func (n *Notary) Deregister(external uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, external)
}

// DeregisterEpoch removes every entry belonging to epochID, used when an
// epoch is dropped.
func (n *Notary) DeregisterEpoch(epochID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for k, v := range n.entries {
		if v.epochID == epochID {
			delete(n.entries, k)
		}
	}
}

// Lookup resolves external, failing with InvalidPExternal if unregistered
// and WrongCurrentlyActiveEpoch if registered under a different epoch than
// activeEpochID.
func (n *Notary) Lookup(external uuid.UUID, activeEpochID uint64) (PRNode, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	e, ok := n.entries[external]
	if !ok {
		return PRNode{}, InvalidPExternalError{PExternal: external}
	}
	if e.epochID != activeEpochID {
		return PRNode{}, ErrWrongCurrentlyActiveEpoch
	}
	return e.rnode, nil
}
