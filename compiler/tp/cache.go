package tp

type (
	// Cache deduplicates structurally equal types so that every
	// occurrence of, say, &struct list shares one value.
	// It is not safe for concurrent use.
	Cache struct {
		m map[string]Type
	}
)

func NewCache() *Cache {
	return &Cache{
		m: make(map[string]Type),
	}
}

// Intern returns the canonical value for t.
// The rendering of a type identifies it uniquely.
func (c *Cache) Intern(t Type) Type {
	if t == nil {
		return nil
	}

	key := t.String()

	if x, ok := c.m[key]; ok {
		return x
	}

	c.m[key] = t

	return t
}

func (c *Cache) Ptr(elem Type) Type {
	return c.Intern(Ptr{Elem: c.Intern(elem)})
}

func (c *Cache) Array(elem Type) Type {
	return c.Intern(Array{Elem: c.Intern(elem)})
}

func (c *Cache) Func(params []Type, ret Type) Type {
	ps := make([]Type, len(params))

	for i, p := range params {
		ps[i] = c.Intern(p)
	}

	return c.Intern(Func{Params: ps, Ret: c.Intern(ret)})
}

func (c *Cache) Len() int {
	return len(c.m)
}
