package client

import "net/url"

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered set of query parameters. Order is preserved on the
// wire so that identical inputs always produce identical request URLs.
// Duplicate keys are not kept: Set replaces in place.
type Params []Param

// NewParams builds a Params list from alternating key/value strings.
// Panics on an odd argument count; construction errors here are programmer
// errors, not runtime conditions.
func NewParams(kv ...string) Params {
	if len(kv)%2 != 0 {
		panic("client: NewParams requires an even number of arguments")
	}
	p := make(Params, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		p = append(p, Param{Key: kv[i], Value: kv[i+1]})
	}
	return p
}

// Get returns the value for key and whether it is present.
func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Set replaces the value for key, or appends the pair if key is absent.
func (p *Params) Set(key, value string) {
	for i, kv := range *p {
		if kv.Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, Param{Key: key, Value: value})
}

// Clone returns an independent copy of the parameter list.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	copy(out, p)
	return out
}

// Encode serializes the parameters in order as a URL query string.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var buf []byte
	for i, kv := range p {
		if i > 0 {
			buf = append(buf, '&')
		}
		buf = append(buf, url.QueryEscape(kv.Key)...)
		buf = append(buf, '=')
		buf = append(buf, url.QueryEscape(kv.Value)...)
	}
	return string(buf)
}
