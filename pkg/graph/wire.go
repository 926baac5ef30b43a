package graph

// Helpers shared by everything that builds nodes on an EffectHost. All
// failures come back as *CreationError.

func Create(host EffectHost, kind NodeKind) (Node, error) {
	n, err := host.CreateNode(kind)
	if err != nil {
		return nil, &CreationError{Kind: kind, Op: "create", Err: err}
	}
	return n, nil
}

func Connect(host EffectHost, dst Node, slot int, src Node) error {
	if slot < 0 || slot >= dst.Kind().NumInputs() {
		return &CreationError{Kind: dst.Kind(), Op: "connect", Err: ErrInvalidProperty}
	}
	if err := host.SetInput(dst, slot, src); err != nil {
		return &CreationError{Kind: dst.Kind(), Op: "connect", Err: err}
	}
	return nil
}

func Set(host EffectHost, n Node, props ...Property) error {
	for _, p := range props {
		if err := n.Kind().Validate(p); err != nil {
			return &CreationError{Kind: n.Kind(), Op: "set " + p.Key.String(), Err: err}
		}
		if err := host.SetProperty(n, p); err != nil {
			return &CreationError{Kind: n.Kind(), Op: "set " + p.Key.String(), Err: err}
		}
	}
	return nil
}

func Release(host EffectHost, nodes ...Node) {
	rel, ok := host.(NodeReleaser)
	if !ok {
		return
	}
	for _, n := range nodes {
		if n != nil {
			rel.ReleaseNode(n)
		}
	}
}
