package entitysql

import "strconv"

// placeholders hands out parameter names for one builder and keeps the values
// bound to them. Names never repeat within a builder.
type placeholders struct {
	prefix string
	values map[string]interface{}
}

func newPlaceholders(prefix string) *placeholders {
	return &placeholders{prefix: prefix, values: make(map[string]interface{})}
}

// name returns the base placeholder name of prop: "<prefix>_<prop>" or "<prop>".
func (p *placeholders) name(prop string) string {
	if p.prefix == "" {
		return prop
	}
	return p.prefix + "_" + prop
}

// bind stores value under the base name of prop. Used for the entity's own values,
// which are bound once each.
func (p *placeholders) bind(prop string, value interface{}) string {
	name := p.name(prop)
	p.values[name] = value
	return name
}

// place stores value under a fresh "<base>_<n>" name, n being the number of values
// placed so far, advanced until the name is unused.
func (p *placeholders) place(prop string, value interface{}) string {
	base := p.name(prop) + "_"
	for n := len(p.values); ; n++ {
		name := base + strconv.Itoa(n)
		if _, taken := p.values[name]; !taken {
			p.values[name] = value
			return name
		}
	}
}

// snapshot returns a copy of every bound value.
func (p *placeholders) snapshot() map[string]interface{} {
	out := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}
