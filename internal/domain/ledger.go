package domain

import "github.com/shopspring/decimal"

// Totals summarizes a book: inflow, outflow and their difference.
type Totals struct {
	TotalIn  decimal.Decimal
	TotalOut decimal.Decimal
	Net      decimal.Decimal
}

// BalancedEntry is a copy of an Entry annotated with the cumulative
// balance through and including it.
type BalancedEntry struct {
	Entry
	Running decimal.Decimal
}

// ComputeTotals buckets every entry into inflow or outflow. Custom entries
// go to inflow when non-negative and to outflow by magnitude otherwise.
func ComputeTotals(entries []*Entry) Totals {
	in, out := decimal.Zero, decimal.Zero

	for _, e := range entries {
		switch {
		case e.Type == EntryTypeIn:
			in = in.Add(e.Amount)
		case e.Type == EntryTypeOut:
			out = out.Add(e.Amount)
		case !e.Amount.IsNegative():
			in = in.Add(e.Amount)
		default:
			out = out.Add(e.Amount.Abs())
		}
	}

	return Totals{TotalIn: in, TotalOut: out, Net: in.Sub(out)}
}

// ComputeRunningBalances annotates entries, in the order given, with the
// balance after each one. Custom entries apply their signed amount
// directly. ComputeTotals instead buckets a negative custom amount into
// outflow by magnitude, so both arrive at the same net.
func ComputeRunningBalances(entries []*Entry) []BalancedEntry {
	result := make([]BalancedEntry, len(entries))
	bal := decimal.Zero

	for i, e := range entries {
		switch e.Type {
		case EntryTypeIn:
			bal = bal.Add(e.Amount)
		case EntryTypeOut:
			bal = bal.Sub(e.Amount)
		default:
			bal = bal.Add(e.Amount)
		}
		result[i] = BalancedEntry{Entry: *e, Running: bal}
	}

	return result
}

// FilterByType keeps the entries of the given type in their original
// order. An empty filter returns entries unchanged. Running balances are
// never recomputed.
func FilterByType(entries []BalancedEntry, t EntryType) []BalancedEntry {
	if t == "" {
		return entries
	}

	filtered := make([]BalancedEntry, 0, len(entries))
	for _, e := range entries {
		if e.Type == t {
			filtered = append(filtered, e)
		}
	}

	return filtered
}
