package cart

import "math"

// Descriptor is what the presentation layer hands to AddToCart: an entry
// without a quantity.
type Descriptor struct {
	ID        string
	Title     string
	ImageRef  string
	UnitPrice float64
}

func (d Descriptor) Validate() error {
	if d.ID == "" || d.UnitPrice < 0 || math.IsNaN(d.UnitPrice) || math.IsInf(d.UnitPrice, 0) {
		return ErrInvalidDescriptor
	}
	return nil
}

type Entry struct {
	ID        string
	Title     string
	ImageRef  string
	UnitPrice float64
	Quantity  int64
}

// Collection is an ordered, id-unique list of entries. Operations never
// modify the receiver: they return a new Collection, so snapshots handed
// out earlier stay stable.
type Collection struct {
	entries []Entry
}

func NewCollection(entries ...Entry) Collection {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return Collection{entries: out}
}

func (c Collection) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in insertion order.
func (c Collection) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c Collection) Find(id string) (Entry, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.entries[i], true
	}
	return Entry{}, false
}

// Add increments the quantity of an existing entry with the same id, or
// appends a new entry with quantity 1.
func (c Collection) Add(d Descriptor) Collection {
	if i := c.indexOf(d.ID); i >= 0 {
		return c.withQuantity(i, c.entries[i].Quantity+1)
	}

	out := make([]Entry, len(c.entries), len(c.entries)+1)
	copy(out, c.entries)
	out = append(out, Entry{
		ID:        d.ID,
		Title:     d.Title,
		ImageRef:  d.ImageRef,
		UnitPrice: d.UnitPrice,
		Quantity:  1,
	})
	return Collection{entries: out}
}

// Increment reports false when no entry has the given id.
func (c Collection) Increment(id string) (Collection, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return c, false
	}
	return c.withQuantity(i, c.entries[i].Quantity+1), true
}

// Decrement removes the entry instead of letting its quantity reach zero.
// It reports false when no entry has the given id.
func (c Collection) Decrement(id string) (Collection, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return c, false
	}
	if c.entries[i].Quantity > 1 {
		return c.withQuantity(i, c.entries[i].Quantity-1), true
	}

	out := make([]Entry, 0, len(c.entries)-1)
	out = append(out, c.entries[:i]...)
	out = append(out, c.entries[i+1:]...)
	return Collection{entries: out}, true
}

func (c Collection) TotalItemCount() int64 {
	var total int64
	for _, e := range c.entries {
		total += e.Quantity
	}
	return total
}

func (c Collection) TotalPrice() float64 {
	var total float64
	for _, e := range c.entries {
		total += float64(e.Quantity) * e.UnitPrice
	}
	return total
}

func (c Collection) indexOf(id string) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) withQuantity(i int, qty int64) Collection {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	out[i].Quantity = qty
	return Collection{entries: out}
}
