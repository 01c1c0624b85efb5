package vmap

// PolicyContainer composes a StoragePolicy with the same header fields as
// Container, but relies entirely on the policy's own CRUD: no internal
// locking, no counters. Use it when a single owner (or external
// synchronization) makes the reader-writer lock pure overhead and lookup
// cost should be pluggable.
type PolicyContainer[P StoragePolicy] struct {
	policy P

	SourceID    string
	SourceSubID string
	TargetID    string
	TargetSubID string
	MessageType string
	Version     string
}

// NewPolicyContainer wraps policy with default header fields.
func NewPolicyContainer[P StoragePolicy](policy P) *PolicyContainer[P] {
	return &PolicyContainer[P]{
		policy:      policy,
		MessageType: DefaultMessageType,
		Version:     DefaultVersion,
	}
}

// Policy returns the underlying policy.
func (c *PolicyContainer[P]) Policy() P {
	return c.policy
}

func (c *PolicyContainer[P]) Set(key string, v *Value) {
	c.policy.Set(key, v)
}

func (c *PolicyContainer[P]) Put(v *Value) {
	c.policy.Set(v.Name(), v)
}

func (c *PolicyContainer[P]) Get(key string) (*Value, bool) {
	return c.policy.Get(key)
}

func (c *PolicyContainer[P]) Contains(key string) bool {
	return c.policy.Contains(key)
}

func (c *PolicyContainer[P]) Remove(key string) bool {
	return c.policy.Remove(key)
}

func (c *PolicyContainer[P]) Clear() {
	c.policy.Clear()
}

func (c *PolicyContainer[P]) Len() int {
	return c.policy.Len()
}

func (c *PolicyContainer[P]) Empty() bool {
	return c.policy.Empty()
}

func (c *PolicyContainer[P]) Each(fn func(key string, v *Value) bool) {
	c.policy.Each(fn)
}

func (c *PolicyContainer[P]) headerIsDefault() bool {
	return c.SourceID == "" && c.SourceSubID == "" &&
		c.TargetID == "" && c.TargetSubID == "" &&
		c.MessageType == DefaultMessageType && c.Version == DefaultVersion
}

// Serialize produces the same envelope format as Container.Serialize, so
// the two container flavors interoperate over the wire.
func (c *PolicyContainer[P]) Serialize() []byte {
	var flags byte
	if !c.headerIsDefault() {
		flags |= envFlagHeader
	}
	buf := appendByte(nil, flags)
	if flags&envFlagHeader != 0 {
		buf = appendVarString(buf, c.SourceID)
		buf = appendVarString(buf, c.SourceSubID)
		buf = appendVarString(buf, c.TargetID)
		buf = appendVarString(buf, c.TargetSubID)
		buf = appendVarString(buf, c.MessageType)
		buf = appendVarString(buf, c.Version)
	}
	buf = appendUint32(buf, uint32(c.policy.Len()))
	g := make(encodeGuard)
	c.policy.Each(func(key string, v *Value) bool {
		buf = appendValue(buf, v, g)
		return true
	})
	return buf
}

// DeserializePolicyContainer decodes a container envelope into the given
// policy. Values are keyed by their own names.
func DeserializePolicyContainer[P StoragePolicy](data []byte, policy P) (*PolicyContainer[P], error) {
	src, err := DeserializeContainer(data)
	if err != nil {
		return nil, err
	}
	c := NewPolicyContainer(policy)
	c.SourceID, c.SourceSubID = src.SourceID(), src.SourceSubID()
	c.TargetID, c.TargetSubID = src.TargetID(), src.TargetSubID()
	c.MessageType, c.Version = src.MessageType(), src.Version()
	src.ForEach(func(key string, v *Value) {
		policy.Set(key, v)
	})
	return c, nil
}
