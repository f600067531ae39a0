package policy

import "fmt"

// ErrUnknownProduct indicates no policy is registered for the product code
type ErrUnknownProduct struct {
	Code ProductCode
}

func (e ErrUnknownProduct) Error() string {
	return "no policy registered for product " + string(e.Code)
}

func (e ErrUnknownProduct) Is(target error) bool {
	t, ok := target.(ErrUnknownProduct)
	if !ok {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Registry maps product codes to their policy implementations. The set of
// products is fixed at startup; lookups after that are read-only.
type Registry struct {
	policies map[ProductCode]Policy
}

// NewRegistry builds a registry from the given policies
func NewRegistry(policies ...Policy) (*Registry, error) {
	r := &Registry{policies: make(map[ProductCode]Policy, len(policies))}
	for _, p := range policies {
		if _, exists := r.policies[p.Code()]; exists {
			return nil, fmt.Errorf("duplicate policy for product %s", p.Code())
		}
		r.policies[p.Code()] = p
	}
	return r, nil
}

// Get returns the policy for the product code
func (r *Registry) Get(code ProductCode) (Policy, error) {
	p, ok := r.policies[code]
	if !ok {
		return nil, ErrUnknownProduct{Code: code}
	}
	return p, nil
}
