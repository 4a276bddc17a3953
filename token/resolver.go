package token

import (
	"fmt"
	"sync"
)

// The resolver maps (module, qualname) pairs to factories. It is populated
// statically at type-registration time: each participating type registers
// itself once, typically from an init function. Types nested within types
// register under their full dot-separated qualified name.
var (
	resolverMu sync.RWMutex
	factories  = make(map[TypeTag]Factory)
	remapped   = make(map[TypeTag]TypeTag)

	// resolveCache memoizes resolutions keyed by the ORIGINAL tag, before
	// any remapping, to avoid repeated remap-and-lookup cost.
	resolveCache = make(map[TypeTag]Factory)
)

// RegisterType registers the factory for a participating type under its
// TypeTag. Registration is expected to happen once per type at program
// initialization; registering the same tag again replaces the factory.
// RegisterType panics if the tag is incomplete or the factory is nil, since
// both are programming errors at registration time.
func RegisterType(tag TypeTag, factory Factory) {
	if tag.IsZero() {
		panic(fmt.Sprintf("token: RegisterType: incomplete tag %q", tag))
	}
	if factory == nil {
		panic(fmt.Sprintf("token: RegisterType: nil factory for %q", tag))
	}

	resolverMu.Lock()
	defer resolverMu.Unlock()
	factories[tag] = factory
	// A replaced factory invalidates anything previously resolved to it.
	resolveCache = make(map[TypeTag]Factory)
}

// RegisterRemapping records that the type previously known as old now lives
// at target. Previously serialized data referencing old resolves to target
// without rewriting historical representations.
func RegisterRemapping(old, target TypeTag) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	remapped[old] = target
	resolveCache = make(map[TypeTag]Factory)
}

// Resolve returns the factory for the given tag, consulting the global
// remapping table first. Resolutions are cached by the original tag.
//
// Resolve fails with ErrInvalidReference when either tag component is
// empty, and with ErrResolutionFailure when no factory is registered for
// the (possibly remapped) tag.
func Resolve(tag TypeTag) (Factory, error) {
	return ResolveIn(tag, nil)
}

// ResolveIn is Resolve with an explicit remapping table that takes
// precedence over the global one. A nil table means global remappings only.
func ResolveIn(tag TypeTag, remappings map[TypeTag]TypeTag) (Factory, error) {
	if tag.Module == "" {
		return nil, newError("token.Resolve", KindInvalidReference,
			fmt.Errorf("%w: module path cannot be empty", ErrInvalidReference))
	}
	if tag.Qualname == "" {
		return nil, newError("token.Resolve", KindInvalidReference,
			fmt.Errorf("%w: qualified name cannot be empty", ErrInvalidReference))
	}

	// Per-call remappings bypass the shared cache: the same original tag
	// may map differently under different tables.
	if remappings == nil {
		resolverMu.RLock()
		cached, ok := resolveCache[tag]
		resolverMu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	target := tag
	resolverMu.RLock()
	if mapped, ok := remappings[target]; ok {
		target = mapped
	} else if mapped, ok := remapped[target]; ok {
		target = mapped
	}
	factory, ok := factories[target]
	resolverMu.RUnlock()

	if !ok {
		return nil, newError("token.Resolve", KindResolution,
			fmt.Errorf("%w: no type registered for %q", ErrResolutionFailure, target))
	}

	if remappings == nil {
		resolverMu.Lock()
		resolveCache[tag] = factory
		resolverMu.Unlock()
	}
	return factory, nil
}

// resetResolver clears all registrations. Tests only.
func resetResolver() {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	factories = make(map[TypeTag]Factory)
	remapped = make(map[TypeTag]TypeTag)
	resolveCache = make(map[TypeTag]Factory)
}
