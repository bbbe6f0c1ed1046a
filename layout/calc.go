package layout

// Info is the computed layout of a type.
type Info struct {
	FieldOffs  map[string]uint32
	FieldKinds map[string]Kind
	Size       uint32
	Align      uint32
}

// Has reports whether the struct contains the named field.
func (i Info) Has(name string) bool {
	_, ok := i.FieldOffs[name]
	return ok
}

// Offset returns the byte offset of the named field.
func (i Info) Offset(name string) (uint32, bool) {
	off, ok := i.FieldOffs[name]
	return off, ok
}

type Calculator struct {
	cache  map[*Struct]Info
	target Target
}

func NewCalculator(target Target) *Calculator {
	return &Calculator{
		target: target,
		cache:  make(map[*Struct]Info),
	}
}

func (c *Calculator) Calculate(k Kind) Info {
	m := c.target.Model
	switch k {
	case Int:
		return Info{Size: 4, Align: 4}
	case ULong:
		return Info{Size: m.Long, Align: m.Long}
	case WideString:
		return Info{Size: m.Pointer, Align: m.Pointer}
	case WideStringList:
		return Info{Size: 2 * m.Pointer, Align: m.Pointer}
	default:
		return Info{Size: 0, Align: 1}
	}
}

// Struct computes the layout of s for the calculator's target. Fields whose
// condition does not hold are omitted.
func (c *Calculator) Struct(s *Struct) Info {
	if cached, ok := c.cache[s]; ok {
		return cached
	}
	info := c.calculateRecord(s.Fields)
	c.cache[s] = info
	return info
}

func (c *Calculator) calculateRecord(fields []Field) Info {
	fieldOffs := make(map[string]uint32)
	fieldKinds := make(map[string]Kind)
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range fields {
		if !c.target.includes(field.When) {
			continue
		}
		fieldLayout := c.Calculate(field.Kind)

		offset = AlignTo(offset, fieldLayout.Align)
		fieldOffs[field.Name] = offset
		fieldKinds[field.Name] = field.Kind

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	return Info{
		Size:       AlignTo(offset, maxAlign),
		Align:      maxAlign,
		FieldOffs:  fieldOffs,
		FieldKinds: fieldKinds,
	}
}
