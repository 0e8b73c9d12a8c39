package alphabet

import (
	"fmt"
	"sort"
)

// English uses the classic a-z letter frequency table.
var English = MustNew("en", "en",
	[]rune("abcdefghijklmnopqrstuvwxyz"),
	[]float64{
		8.167, 1.492, 2.782, 4.253, 12.702, 2.228, 2.015, // a-g
		6.094, 6.966, 0.153, 0.772, 4.025, 2.406, 6.749, // h-n
		7.507, 1.929, 0.095, 5.987, 6.327, 9.056, 2.758, // o-u
		0.978, 2.360, 0.150, 1.974, 0.074, // v-z
	},
)

// Russian covers the 33-letter alphabet including ё.
var Russian = MustNew("ru", "ru",
	[]rune("абвгдеёжзийклмнопрстуфхцчшщъыьэюя"),
	[]float64{
		8.01, 1.59, 4.54, 1.70, 2.98, 8.45, 0.04, 0.94, 1.65, 7.35,
		1.21, 3.49, 4.40, 3.21, 6.70, 10.97, 2.81, 4.73, 5.47, 6.26,
		2.62, 0.26, 0.97, 0.48, 1.44, 0.73, 0.36, 0.04, 1.90, 1.74,
		0.32, 0.64, 2.01,
	},
)

// Registry maps profile names to profiles.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry returns a registry preloaded with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: map[string]*Profile{}}
	r.Register(English)
	r.Register(Russian)
	return r
}

// Register adds or replaces a profile under its name.
func (r *Registry) Register(p *Profile) {
	r.profiles[p.Name()] = p
}

// Get returns the named profile.
func (r *Registry) Get(name string) (*Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownProfile, name, r.Names())
	}
	return p, nil
}

// Names returns the registered profile names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
