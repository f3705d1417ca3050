package engine

import "github.com/samber/lo"

// Presence is the set of identities currently joined to one room. Like the
// ledger, it is serialized by the owning room's lock.
type Presence struct {
	members map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{members: make(map[string]struct{})}
}

// Add reports whether the identity was newly added. A repeat join is a
// no-op and must not produce a second user_joined.
func (p *Presence) Add(id string) bool {
	if _, ok := p.members[id]; ok {
		return false
	}
	p.members[id] = struct{}{}
	return true
}

// Remove reports whether the identity was actually present.
func (p *Presence) Remove(id string) bool {
	if _, ok := p.members[id]; !ok {
		return false
	}
	delete(p.members, id)
	return true
}

func (p *Presence) Contains(id string) bool {
	_, ok := p.members[id]
	return ok
}

func (p *Presence) Size() int {
	return len(p.members)
}

// Members lists the current identities in no particular order.
func (p *Presence) Members() []string {
	return lo.Keys(p.members)
}
