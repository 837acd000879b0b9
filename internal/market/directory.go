// internal/market/directory.go
package market

import (
	"sort"
	"strings"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// Directory resolves raw distributor identifiers on order rows to the single
// official name each distributor reports under. Matching is code-based only:
// name-substring matching caused incorrect merges and was removed.
type Directory struct {
	byCode  map[string]string // normalized code -> official name
	grades  map[string]string // official name -> grade letter
	reverse map[string]string // official name -> normalized code
}

// BuildDirectory indexes the distributor reference table. Rows missing either
// a code or an official name are skipped; duplicate codes keep the most
// recently seen mapping.
func BuildDirectory(entries []domain.DistributorEntry) *Directory {
	d := &Directory{
		byCode:  make(map[string]string, len(entries)),
		grades:  make(map[string]string, len(entries)),
		reverse: make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		code := NormalizeCode(e.Code)
		official := strings.TrimSpace(e.OfficialName)
		if code == "" || official == "" {
			continue
		}
		d.byCode[code] = official
		d.reverse[official] = code
		if g := strings.ToUpper(strings.TrimSpace(e.GradeLetter)); g != "" {
			d.grades[official] = g
		}
	}
	return d
}

// Resolve maps a raw code to an official name. ok is false when the
// normalized code has no directory entry.
func (d *Directory) Resolve(rawCode string) (string, bool) {
	official, ok := d.byCode[NormalizeCode(rawCode)]
	return official, ok
}

// CodeFor returns the normalized code registered for an official name.
func (d *Directory) CodeFor(official string) (string, bool) {
	code, ok := d.reverse[strings.TrimSpace(official)]
	return code, ok
}

// GradeLetter returns the service grade (S/A/B/...) for an official name,
// empty when unknown.
func (d *Directory) GradeLetter(official string) string {
	return d.grades[strings.TrimSpace(official)]
}

// Len reports how many codes are registered.
func (d *Directory) Len() int {
	return len(d.byCode)
}

// Officials returns the registered official names, sorted.
func (d *Directory) Officials() []string {
	out := make([]string, 0, len(d.reverse))
	for name := range d.reverse {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Unmapped lists order identities whose normalized code has no directory
// entry, with their summed quantity, largest first. Rows with an empty code
// are reported too: those need the code filled in upstream, not a mapping.
func (d *Directory) Unmapped(orders []domain.OrderRecord) []domain.UnmappedDistributor {
	type key struct{ code, name string }
	totals := make(map[key]int)
	for _, o := range orders {
		code := NormalizeCode(o.DistributorCode)
		if _, ok := d.byCode[code]; ok {
			continue
		}
		k := key{code: code, name: strings.TrimSpace(o.Distributor)}
		totals[k] += o.Quantity
	}

	out := make([]domain.UnmappedDistributor, 0, len(totals))
	for k, qty := range totals {
		out = append(out, domain.UnmappedDistributor{
			RawCode:  k.code,
			RawName:  k.name,
			Quantity: qty,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		if out[i].RawCode != out[j].RawCode {
			return out[i].RawCode < out[j].RawCode
		}
		return out[i].RawName < out[j].RawName
	})
	return out
}

// SuggestNameMatches pairs unmapped order names with similarly named official
// entries. This is a repair hint for operators only: suggestions are never
// applied to the data, an operator confirms them into the reference table.
func (d *Directory) SuggestNameMatches(orders []domain.OrderRecord) []domain.NameSuggestion {
	unmapped := d.Unmapped(orders)
	officials := d.Officials()

	out := make([]domain.NameSuggestion, 0)
	for _, u := range unmapped {
		name := shortName(u.RawName)
		if name == "" {
			continue
		}
		for _, official := range officials {
			if strings.Contains(official, name) || strings.Contains(name, shortName(official)) {
				out = append(out, domain.NameSuggestion{
					RawCode:   u.RawCode,
					RawName:   u.RawName,
					Suggested: official,
					Quantity:  u.Quantity,
				})
				break
			}
		}
	}
	return out
}

// ResolveOrders returns a copy of orders with OfficialDist filled from the
// directory. Unmapped rows keep an empty official name so aggregations keyed
// by distributor exclude them instead of mixing them into a wrong bucket.
func (d *Directory) ResolveOrders(orders []domain.OrderRecord) []domain.OrderRecord {
	out := make([]domain.OrderRecord, len(orders))
	for i, o := range orders {
		o.DistributorCode = NormalizeCode(o.DistributorCode)
		if official, ok := d.byCode[o.DistributorCode]; ok {
			o.OfficialDist = official
		} else {
			o.OfficialDist = ""
		}
		out[i] = o
	}
	return out
}

// GradeOrder converts a grade letter to its sort rank (S first). Unknown
// letters sort after all known ones.
func GradeOrder(letter string) int {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "S":
		return 1
	case "A":
		return 2
	case "B":
		return 3
	case "C":
		return 4
	case "D":
		return 5
	case "E":
		return 6
	case "G":
		return 7
	case "":
		return 999
	default:
		return 99
	}
}

// shortName strips the region prefix convention "통영)이문당" -> "이문당".
func shortName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, ")"); i >= 0 && i+1 < len(name) {
		return strings.TrimSpace(name[i+1:])
	}
	return name
}
