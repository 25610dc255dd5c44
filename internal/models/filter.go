package models

import "github.com/dmitrijs2005/carddavsync/internal/bitfield"

// Filter selects addressbooks by their flags: a row matches when
// flags&Mask == Expected.
type Filter struct {
	Mask     bitfield.Set
	Expected bitfield.Set
}

func (f Filter) Matches(flags bitfield.Set) bool {
	return flags&f.Mask == f.Expected
}

var (
	FilterAll        = Filter{}
	FilterRegular    = Filter{Mask: 0x20, Expected: 0x00}
	FilterActive     = Filter{Mask: 0x21, Expected: 0x01}
	FilterActiveRW   = Filter{Mask: 0x29, Expected: 0x01}
	FilterDiscovered = Filter{Mask: 0x24, Expected: 0x04}
	FilterExtra      = Filter{Mask: 0x24, Expected: 0x00}
	FilterTemplate   = Filter{Mask: 0x20, Expected: 0x20}
)

// Filters lists the named filters accepted by the command line.
var Filters = map[string]Filter{
	"all":        FilterAll,
	"regular":    FilterRegular,
	"active":     FilterActive,
	"active-rw":  FilterActiveRW,
	"discovered": FilterDiscovered,
	"extra":      FilterExtra,
	"template":   FilterTemplate,
}
