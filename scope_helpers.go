package ffopts

const (
	// Recommended priorities for common layering patterns. Higher numbers win.
	ScopePrioritySystem = 100
	ScopePriorityTenant = 200
	ScopePriorityDevice = 300
	ScopePriorityStream = 400
	ScopePriorityUser   = 500
)

// SystemTenantDeviceStreamUser assembles the canonical five-layer stack
// (system → tenant → device → stream → user) and returns the merged store.
// Nil stores contribute empty layers.
func SystemTenantDeviceStreamUser(system, tenant, device, stream, user *Store, opts ...StoreOption) (*Store, error) {
	layers := []Layer{
		NewLayer(NewScope("user", ScopePriorityUser, WithScopeLabel("User")), user),
		NewLayer(NewScope("stream", ScopePriorityStream, WithScopeLabel("Stream")), stream),
		NewLayer(NewScope("device", ScopePriorityDevice, WithScopeLabel("Device Profile")), device),
		NewLayer(NewScope("tenant", ScopePriorityTenant, WithScopeLabel("Tenant")), tenant),
		NewLayer(NewScope("system", ScopePrioritySystem, WithScopeLabel("System Defaults")), system),
	}
	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}
	return stack.Merge(opts...)
}
