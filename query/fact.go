package query

import (
	"github.com/google/uuid"

	"github.com/hxrts/aura/xcrypto"
)

// FactId identifies one fact's position in a scope's fact log.
type FactId uuid.UUID

func NewFactId() FactId { return FactId(uuid.New()) }

// Fact is a single piece of scoped, typed content (§4.3).
type Fact struct {
	ID         FactId
	Scope      ScopeId
	ContentType string
	Bytes      []byte
	EntityID   string // optional; empty means unset
	HasEntity  bool
	Finality   Finality

	// Hash is the Blake3 digest of Bytes, used as the stable identity for
	// Datalog predicate matching and prestate proofs.
	Hash xcrypto.Hash256
}

func NewFact(scope ScopeId, contentType string, bytes []byte) Fact {
	return Fact{
		ID:          NewFactId(),
		Scope:       scope,
		ContentType: contentType,
		Bytes:       bytes,
		Hash:        xcrypto.Sum256(bytes),
		Finality:    Finality{Level: FinalityLocal},
	}
}

func (f Fact) WithEntity(entityID string) Fact {
	f.EntityID = entityID
	f.HasEntity = true
	return f
}
